// Package session owns the state of one user's analysis session and drives
// analysis runs against the evaluator.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadolammi/jobmatch/internal/evaluator"
	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
	"github.com/muhammadolammi/jobmatch/internal/notify"
	"github.com/muhammadolammi/jobmatch/internal/resume"
)

// Evaluator is the single outbound call of an analysis run.
type Evaluator interface {
	Evaluate(ctx context.Context, credential string, prefs jobmatch.PreferenceSet, resume string, jobs []jobmatch.ScrapedJobRecord) (*jobmatch.EvaluationResult, error)
}

type Deps struct {
	Evaluator Evaluator
	Scraper   jobmatch.Scraper
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Scraper == nil {
		d.Scraper = jobmatch.ManualScraper{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

type ExportKind string

const (
	ExportCoverLetter    ExportKind = "cover-letter"
	ExportTailoredResume ExportKind = "tailored-resume"
)

// Session is safe for concurrent use. At most one analysis run is in flight;
// a second Analyze call while pending returns ErrRunInProgress.
type Session struct {
	id        string
	createdAt time.Time
	deps      Deps
	logger    *slog.Logger

	mu      sync.Mutex
	prefs   jobmatch.PreferenceSet
	jobs    []jobmatch.JobRecord
	resume  string
	result  *jobmatch.EvaluationResult
	lastErr string
	pending bool
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	ID            string                     `json:"id"`
	CreatedAt     time.Time                  `json:"createdAt"`
	Preferences   jobmatch.PreferenceSet     `json:"preferences"`
	HasCredential bool                       `json:"hasCredential"`
	Jobs          []jobmatch.JobRecord       `json:"jobs"`
	ResumeText    string                     `json:"resumeText"`
	ResumeWords   int                        `json:"resumeWords"`
	Pending       bool                       `json:"pending"`
	Result        *jobmatch.EvaluationResult `json:"result,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

func New(id string, deps Deps) *Session {
	deps = deps.withDefaults()
	return &Session{
		id:        id,
		createdAt: time.Now(),
		deps:      deps,
		logger:    deps.Logger.With("component", "session", "session_id", id),
		prefs:     jobmatch.DefaultPreferences(),
		jobs:      []jobmatch.JobRecord{{ID: uuid.NewString()}},
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.prefs
	prefs.Credential = ""
	return Snapshot{
		ID:            s.id,
		CreatedAt:     s.createdAt,
		Preferences:   prefs,
		HasCredential: strings.TrimSpace(s.prefs.Credential) != "",
		Jobs:          slices.Clone(s.jobs),
		ResumeText:    s.resume,
		ResumeWords:   len(strings.Fields(s.resume)),
		Pending:       s.pending,
		Result:        s.result,
		Error:         s.lastErr,
	}
}

func (s *Session) Jobs() []jobmatch.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.jobs)
}

// Result returns the last successful analysis result.
func (s *Session) Result() (*jobmatch.EvaluationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, ErrNoResult
	}
	return s.result, nil
}

// AddJob appends an empty job record and returns it.
func (s *Session) AddJob() jobmatch.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := jobmatch.JobRecord{ID: uuid.NewString()}
	s.jobs = append(s.jobs, job)
	return job
}

// UpdateJob replaces the editable fields of the record with id.
func (s *Session) UpdateJob(id, title, company, description string) (jobmatch.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return jobmatch.JobRecord{}, ErrJobNotFound
	}
	s.jobs[i] = jobmatch.JobRecord{ID: id, Title: title, Company: company, Description: description}
	return s.jobs[i], nil
}

// RemoveJob deletes the record with id. Removing the last remaining record is
// a no-op and reports false.
func (s *Session) RemoveJob(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, ErrJobNotFound
	}
	if len(s.jobs) <= 1 {
		return false, nil
	}
	s.jobs = slices.Delete(s.jobs, i, i+1)
	return true, nil
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.jobs, func(j jobmatch.JobRecord) bool { return j.ID == id })
}

// SetPreferences replaces weights and notes. The credential is kept.
func (s *Session) SetPreferences(p jobmatch.PreferenceSet) error {
	if err := p.Validate(); err != nil {
		return &ValidationError{Message: fmt.Sprintf("Invalid preferences: %v", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p.Credential = s.prefs.Credential
	s.prefs = p
	return nil
}

func (s *Session) SetCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Credential = strings.TrimSpace(credential)
}

func (s *Session) SetResumeText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resume = text
}

// LoadResume extracts text from a resume document and stores it. On failure
// the previously held resume text is kept.
func (s *Session) LoadResume(mime string, data []byte) (string, error) {
	text, err := resume.Extract(mime, data)
	if err != nil {
		s.logger.Error("resume extraction failed", "mime", mime, "bytes", len(data), "error", err)
		return "", fmt.Errorf("%w: %w", ErrResumeParse, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resume = text
	return text, nil
}

// Reset clears the displayed result and error.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = nil
	s.lastErr = ""
}

// Export returns the cover letter or tailored resume of jobID for copying.
func (s *Session) Export(jobID string, kind ExportKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return "", ErrNoResult
	}
	eval, ok := s.result.Evaluation(jobID)
	if !ok {
		return "", ErrJobNotFound
	}
	var text string
	switch kind {
	case ExportCoverLetter:
		text = eval.CoverLetter
	case ExportTailoredResume:
		text = eval.TailoredResume
	default:
		return "", fmt.Errorf("unknown export kind %q", kind)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNothingToCopy
	}
	return text, nil
}

// Analyze runs one end-to-end evaluation. Preconditions are checked before
// any network call; every failure clears the held result.
func (s *Session) Analyze(ctx context.Context) (result *jobmatch.EvaluationResult, err error) {
	prefs, resumeText, jobs, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer func() { s.finish(result, err) }()

	return s.run(ctx, prefs, resumeText, jobs)
}

func (s *Session) begin() (jobmatch.PreferenceSet, string, []jobmatch.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return jobmatch.PreferenceSet{}, "", nil, ErrRunInProgress
	}
	if err := s.validateLocked(); err != nil {
		s.result = nil
		s.lastErr = UserMessage(err)
		return jobmatch.PreferenceSet{}, "", nil, err
	}
	s.pending = true
	s.lastErr = ""
	return s.prefs, s.resume, slices.Clone(s.jobs), nil
}

func (s *Session) validateLocked() error {
	if strings.TrimSpace(s.prefs.Credential) == "" {
		return &ValidationError{Message: MsgMissingCredential}
	}
	if strings.TrimSpace(s.resume) == "" {
		return &ValidationError{Message: MsgMissingResume}
	}
	for _, j := range s.jobs {
		if strings.TrimSpace(j.Description) == "" {
			return &ValidationError{Message: MsgMissingDescription}
		}
	}
	return nil
}

func (s *Session) finish(result *jobmatch.EvaluationResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = false
	if err != nil {
		s.result = nil
		s.lastErr = UserMessage(err)
		return
	}
	s.result = result
	s.lastErr = ""
}

func (s *Session) run(ctx context.Context, prefs jobmatch.PreferenceSet, resumeText string, jobs []jobmatch.JobRecord) (*jobmatch.EvaluationResult, error) {
	logger := s.logger.With("operation", "analyze")

	scraped, err := s.deps.Scraper.Scrape(ctx, jobs)
	if err != nil {
		logger.Error("job scraping failed", "error", err, "jobs", jobs)
		s.publish(ctx, notify.StatusFailed, "analysis failed")
		return nil, &AnalysisError{Err: err}
	}

	s.publish(ctx, notify.StatusProcessing, "analysis started")

	result, err := s.deps.Evaluator.Evaluate(ctx, prefs.Credential, prefs, resumeText, scraped)
	switch {
	case evaluator.IsNoResults(err):
		logger.Error("no evaluation results",
			"error", err,
			"credential", redact(prefs.Credential),
			"resume", resumeText,
			"jobs", scraped,
		)
		s.publish(ctx, notify.StatusNoResults, "no evaluation results")
		return nil, fmt.Errorf("%w: %w", ErrNoResults, err)

	case err != nil:
		logger.Error("evaluation failed",
			"error", err,
			"credential", redact(prefs.Credential),
			"resume", resumeText,
			"jobs", scraped,
		)
		s.publish(ctx, notify.StatusFailed, "analysis failed")
		return nil, &AnalysisError{Err: err}

	case result == nil || len(result.Evaluations) == 0:
		logger.Error("no evaluation results",
			"credential", redact(prefs.Credential),
			"resume", resumeText,
			"jobs", scraped,
			"raw_result", result,
		)
		s.publish(ctx, notify.StatusNoResults, "no evaluation results")
		return nil, ErrNoResults
	}

	logger.Info("analysis completed", "evaluations", len(result.Evaluations))
	s.publish(ctx, notify.StatusCompleted, "analysis completed")
	return result, nil
}

func (s *Session) publish(ctx context.Context, status, message string) {
	err := s.deps.Notifier.Publish(ctx, notify.Update{
		SessionID: s.id,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish update", "status", status, "error", err)
	}
}

// UserMessage maps an Analyze or LoadResume error to the text shown to the user.
func UserMessage(err error) string {
	var validationErr *ValidationError
	var analysisErr *AnalysisError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, ErrNoResults):
		return MsgNoResults
	case errors.As(err, &analysisErr):
		return MsgAnalysisFailed
	case errors.Is(err, ErrResumeParse):
		return MsgResumeParse
	default:
		return err.Error()
	}
}

func redact(credential string) string {
	if len(credential) <= 4 {
		return "****"
	}
	return "****" + credential[len(credential)-4:]
}
