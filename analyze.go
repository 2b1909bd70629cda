package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/jobmatch/internal/evaluator"
	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
	"github.com/muhammadolammi/jobmatch/internal/resume"
	"github.com/muhammadolammi/jobmatch/internal/session"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Evaluate job descriptions against a resume and print the result as JSON",
	Long: `Evaluate one or more job description files against a resume file.

The resume may be plain text, markdown, PDF or DOCX. Each --job flag names a
text file holding one job description; the file name becomes the job title.`,
	RunE: runAnalyze,
}

var (
	analyzeResumeFile string
	analyzeJobFiles   []string
	analyzeNotes      string
	analyzeAPIKey     string
	analyzeOutFile    string
	analyzePrefs      = jobmatch.DefaultPreferences()
)

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeResumeFile, "resume", "r", "", "Path to resume file (required)")
	f.StringArrayVarP(&analyzeJobFiles, "job", "j", nil, "Path to a job description file (repeatable, required)")
	f.IntVar(&analyzePrefs.SalaryWeight, "salary", analyzePrefs.SalaryWeight, "Salary level weight (0-10)")
	f.IntVar(&analyzePrefs.RemoteWeight, "remote", analyzePrefs.RemoteWeight, "Remote flexibility weight (0-10)")
	f.IntVar(&analyzePrefs.CultureWeight, "culture", analyzePrefs.CultureWeight, "Company culture weight (0-10)")
	f.IntVar(&analyzePrefs.GrowthWeight, "growth", analyzePrefs.GrowthWeight, "Career growth weight (0-10)")
	f.IntVar(&analyzePrefs.TechStackWeight, "tech-stack", analyzePrefs.TechStackWeight, "Tech stack match weight (0-10)")
	f.StringVar(&analyzeNotes, "notes", "", "Custom notes and dealbreakers")
	f.StringVar(&analyzeAPIKey, "api-key", "", "Evaluator API key (overrides OPENAI_API_KEY / GEMINI_API_KEY env var)")
	f.StringVarP(&analyzeOutFile, "out", "o", "", "Write the result JSON to this file instead of stdout")

	_ = analyzeCmd.MarkFlagRequired("resume")
	_ = analyzeCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogFormat, cmd.ErrOrStderr())

	s := session.New("cli", session.Deps{
		Evaluator: evaluator.NewClient(cfg.completer(), logger),
		Logger:    logger,
	})

	prefs := analyzePrefs
	prefs.CustomNotes = analyzeNotes
	if err := s.SetPreferences(prefs); err != nil {
		return err
	}
	s.SetCredential(apiKeyFor(cfg.Provider, analyzeAPIKey))

	data, err := os.ReadFile(analyzeResumeFile)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	if _, err := s.LoadResume(resume.DetectMIME(analyzeResumeFile, "", data), data); err != nil {
		return err
	}

	if err := loadJobs(s, analyzeJobFiles); err != nil {
		return err
	}

	result, err := s.Analyze(cmd.Context())
	if err != nil {
		return errors.New(session.UserMessage(err))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if analyzeOutFile != "" {
		if err := os.WriteFile(analyzeOutFile, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// loadJobs fills the session with one job per file, reusing the initial
// empty record for the first file.
func loadJobs(s *session.Session, paths []string) error {
	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read job file: %w", err)
		}
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		id := s.Jobs()[0].ID
		if i > 0 {
			id = s.AddJob().ID
		}
		if _, err := s.UpdateJob(id, title, "", string(content)); err != nil {
			return err
		}
	}
	return nil
}

func apiKeyFor(provider, flag string) string {
	if flag != "" {
		return flag
	}
	if provider == providerGemini {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}
