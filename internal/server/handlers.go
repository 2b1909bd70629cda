package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
	"github.com/muhammadolammi/jobmatch/internal/resume"
	"github.com/muhammadolammi/jobmatch/internal/session"
)

const sessionKey = "session"

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CreateSession(c *gin.Context) {
	s := h.Sessions.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

// loadSession resolves :id and aborts with 404 for unknown sessions.
func (h *Handler) loadSession(c *gin.Context) {
	s, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).Snapshot())
}

func (h *Handler) DeleteSession(c *gin.Context) {
	h.Sessions.Delete(current(c).ID())
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddJob(c *gin.Context) {
	// A body is optional; an empty record is the default. Chunked bodies
	// report ContentLength -1 and may turn out empty.
	var req jobRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
			return
		}
	}

	s := current(c)
	job := s.AddJob()
	if req != (jobRequest{}) {
		var err error
		job, err = s.UpdateJob(job.ID, req.Title, req.Company, req.Description)
		if err != nil {
			h.writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, job)
}

func (h *Handler) UpdateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	job, err := current(c).UpdateJob(c.Param("jobId"), req.Title, req.Company, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) RemoveJob(c *gin.Context) {
	s := current(c)
	removed, err := s.RemoveJob(c.Param("jobId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "jobs": s.Jobs()})
}

func (h *Handler) SetPreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preferences: " + err.Error()})
		return
	}
	s := current(c)
	err := s.SetPreferences(jobmatch.PreferenceSet{
		SalaryWeight:    *req.SalaryWeight,
		RemoteWeight:    *req.RemoteWeight,
		CultureWeight:   *req.CultureWeight,
		GrowthWeight:    *req.GrowthWeight,
		TechStackWeight: *req.TechStackWeight,
		CustomNotes:     req.CustomNotes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot().Preferences)
}

func (h *Handler) SetCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	s := current(c)
	s.SetCredential(req.APIKey)
	c.JSON(http.StatusOK, gin.H{"hasCredential": s.Snapshot().HasCredential})
}

func (h *Handler) SetResumeText(c *gin.Context) {
	var req resumeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	s := current(c)
	s.SetResumeText(req.Text)
	c.JSON(http.StatusOK, resumeView(s))
}

func (h *Handler) UploadResume(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open resume file"})
		return
	}
	defer f.Close()

	data, err := resume.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read resume file"})
		return
	}

	s := current(c)
	mime := resume.DetectMIME(header.Filename, header.Header.Get("Content-Type"), data)
	if _, err := s.LoadResume(mime, data); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumeView(s))
}

// LoadResumeObject extracts a resume previously uploaded to object storage.
func (h *Handler) LoadResumeObject(c *gin.Context) {
	if h.Fetcher == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "resume object storage is not configured"})
		return
	}
	var req resumeObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	data, err := h.Fetcher.Fetch(c.Request.Context(), req.Key)
	if err != nil {
		h.Logger.Error("resume object fetch failed", "key", req.Key, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch resume object"})
		return
	}

	s := current(c)
	if _, err := s.LoadResume(resume.DetectMIME(req.Key, "", data), data); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumeView(s))
}

// Analyze blocks until the run finishes.
func (h *Handler) Analyze(c *gin.Context) {
	result, err := current(c).Analyze(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Reset(c *gin.Context) {
	s := current(c)
	s.Reset()
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) Result(c *gin.Context) {
	result, err := current(c).Result()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// export serves a cover letter or tailored resume as plain text for the
// clipboard. Empty text yields 204.
func (h *Handler) export(kind session.ExportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		text, err := current(c).Export(c.Param("jobId"), kind)
		if errors.Is(err, session.ErrNothingToCopy) {
			c.Status(http.StatusNoContent)
			return
		}
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.String(http.StatusOK, text)
	}
}

func resumeView(s *session.Session) resumeResponse {
	snap := s.Snapshot()
	return resumeResponse{ResumeText: snap.ResumeText, ResumeWords: snap.ResumeWords}
}
