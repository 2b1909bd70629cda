// Package jobmatch holds the domain types shared by the evaluator, the session
// orchestration and the HTTP API.
package jobmatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type PreferenceSet struct {
	SalaryWeight    int    `json:"salaryWeight" validate:"min=0,max=10"`
	RemoteWeight    int    `json:"remoteWeight" validate:"min=0,max=10"`
	CultureWeight   int    `json:"cultureWeight" validate:"min=0,max=10"`
	GrowthWeight    int    `json:"growthWeight" validate:"min=0,max=10"`
	TechStackWeight int    `json:"techStackWeight" validate:"min=0,max=10"`
	CustomNotes     string `json:"customNotes"`
	// Credential is the evaluator API key supplied by the user.
	Credential string `json:"-"`
}

// DefaultPreferences returns the weights a new session starts with.
func DefaultPreferences() PreferenceSet {
	return PreferenceSet{
		SalaryWeight:    7,
		RemoteWeight:    8,
		CultureWeight:   5,
		GrowthWeight:    6,
		TechStackWeight: 9,
	}
}

var validate = validator.New()

// Validate checks every weight is within [0,10].
func (p PreferenceSet) Validate() error {
	return validate.Struct(p)
}

type JobRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description"`
}

// ScrapedJobRecord is the evaluator-facing shape of a job.
type ScrapedJobRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

type Status string

const (
	StatusHighlyRecommended Status = "Highly Recommended"
	StatusWorthApplying     Status = "Worth Applying"
	StatusMaybe             Status = "Maybe"
	StatusSkipIt            Status = "Skip It"
)

var Statuses = []Status{StatusHighlyRecommended, StatusWorthApplying, StatusMaybe, StatusSkipIt}

// ParseStatus maps case and spacing variants ("skip_it", "WORTH APPLYING") to
// the canonical literal. Unknown values are returned verbatim.
func ParseStatus(s string) Status {
	key := statusKey(s)
	for _, st := range Statuses {
		if statusKey(string(st)) == key {
			return st
		}
	}
	return Status(strings.TrimSpace(s))
}

func statusKey(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Score is a numeric value the evaluator may send as a number, a numeric
// string or null.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		str = strings.TrimSuffix(strings.TrimSpace(str), "%")
		if str == "" {
			*s = 0
			return nil
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("score %q is not numeric", str)
		}
		*s = Score(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}

type MetricScore struct {
	Category  string `json:"category"`
	Score     Score  `json:"score"`
	Reasoning string `json:"reasoning"`
}

type JobEvaluation struct {
	JobID              string        `json:"jobId"`
	DetectedTitle      string        `json:"detectedTitle"`
	DetectedCompany    string        `json:"detectedCompany"`
	WorthApplyingScore Score         `json:"worthApplyingScore"`
	Status             Status        `json:"status"`
	Metrics            []MetricScore `json:"metrics"`
	Pros               []string      `json:"pros"`
	Cons               []string      `json:"cons"`
	Summary            string        `json:"summary"`
	Verdict            string        `json:"verdict"`
	CoverLetter        string        `json:"coverLetter"`
	TailoredResume     string        `json:"tailoredResume"`
}

type EvaluationResult struct {
	Evaluations    []JobEvaluation `json:"evaluations"`
	OverallInsight string          `json:"overallInsight"`
}

// Evaluation returns the evaluation produced for jobID.
func (r *EvaluationResult) Evaluation(jobID string) (JobEvaluation, bool) {
	if r == nil {
		return JobEvaluation{}, false
	}
	for _, e := range r.Evaluations {
		if e.JobID == jobID {
			return e, true
		}
	}
	return JobEvaluation{}, false
}
