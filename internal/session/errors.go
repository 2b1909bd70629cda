package session

import "errors"

// User-facing messages. Diagnostics go to the log, never into these.
const (
	MsgMissingCredential  = "Please provide your OpenAI API Key."
	MsgMissingResume      = "Please provide your resume first."
	MsgMissingDescription = "Each job must have a manual description."
	MsgAnalysisFailed     = "Failed to analyze jobs. See server logs for details."
	MsgNoResults          = "No evaluation results were generated. See server logs for details."
	MsgResumeParse        = "Failed to parse the resume file. Please try a different file or paste text manually."
)

var (
	ErrRunInProgress = errors.New("an analysis run is already in progress")
	ErrJobNotFound   = errors.New("job not found")
	ErrNoResult      = errors.New("no analysis result available")
	ErrNothingToCopy = errors.New("nothing to copy")
	ErrResumeParse   = errors.New(MsgResumeParse)
	// ErrNoResults is the semantic-empty outcome: a well-formed reply with no
	// usable evaluations.
	ErrNoResults = errors.New(MsgNoResults)
)

// ValidationError is a precondition failure detected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AnalysisError is a provider, transport or parse failure of a run.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string { return MsgAnalysisFailed }

func (e *AnalysisError) Unwrap() error { return e.Err }
