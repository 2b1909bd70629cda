package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muhammadolammi/jobmatch/internal/evaluator"
	"github.com/muhammadolammi/jobmatch/internal/resume"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

// Config is read from the environment. The evaluator API key is not part of
// it: every session supplies its own.
type Config struct {
	Port          string
	Provider      string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiModel   string
	RabbitMQURL   string
	R2            resume.R2Config
	CORSOrigins   []string
	LogFormat     string
}

func loadConfig() (Config, error) {
	cfg := Config{
		Port:          os.Getenv("PORT"),
		Provider:      strings.ToLower(strings.TrimSpace(os.Getenv("EVALUATOR_PROVIDER"))),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		GeminiModel:   os.Getenv("GEMINI_MODEL"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		R2: resume.R2Config{
			AccountID: os.Getenv("R2_ACCCOUNT_ID"),
			Bucket:    os.Getenv("R2_BUCKET"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
		},
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
		LogFormat:   os.Getenv("LOG_FORMAT"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Provider == "" {
		cfg.Provider = providerOpenAI
	}

	switch cfg.Provider {
	case providerOpenAI, providerGemini:
	default:
		return Config{}, fmt.Errorf("invalid EVALUATOR_PROVIDER %q: want %s or %s", cfg.Provider, providerOpenAI, providerGemini)
	}

	r2 := cfg.R2
	anyR2 := r2.AccountID != "" || r2.Bucket != "" || r2.AccessKey != "" || r2.SecretKey != ""
	if anyR2 && !r2.Enabled() {
		return Config{}, fmt.Errorf("incomplete R2 configuration: R2_ACCCOUNT_ID, R2_BUCKET, R2_ACCESS_KEY and R2_SECRET_KEY must all be set")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) completer() evaluator.Completer {
	if c.Provider == providerGemini {
		return &evaluator.GeminiCompleter{Model: c.GeminiModel}
	}
	return &evaluator.OpenAICompleter{Model: c.OpenAIModel, BaseURL: c.OpenAIBaseURL}
}

func newLogger(format string, w io.Writer) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
