package server

type jobRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

type preferencesRequest struct {
	SalaryWeight    *int   `json:"salaryWeight" binding:"required,min=0,max=10"`
	RemoteWeight    *int   `json:"remoteWeight" binding:"required,min=0,max=10"`
	CultureWeight   *int   `json:"cultureWeight" binding:"required,min=0,max=10"`
	GrowthWeight    *int   `json:"growthWeight" binding:"required,min=0,max=10"`
	TechStackWeight *int   `json:"techStackWeight" binding:"required,min=0,max=10"`
	CustomNotes     string `json:"customNotes"`
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type resumeTextRequest struct {
	Text string `json:"text"`
}

type resumeObjectRequest struct {
	Key string `json:"key" binding:"required"`
}

type resumeResponse struct {
	ResumeText  string `json:"resumeText"`
	ResumeWords int    `json:"resumeWords"`
}
