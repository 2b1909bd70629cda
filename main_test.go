package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/jobmatch/internal/evaluator"
	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "EVALUATOR_PROVIDER", "OPENAI_MODEL", "OPENAI_BASE_URL", "GEMINI_MODEL",
		"RABBITMQ_URL", "R2_ACCCOUNT_ID", "R2_BUCKET", "R2_ACCESS_KEY", "R2_SECRET_KEY",
		"CORS_ORIGINS", "LOG_FORMAT", "OPENAI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, providerOpenAI, cfg.Provider)
	assert.False(t, cfg.R2.Enabled())
	assert.Empty(t, cfg.CORSOrigins)

	c, ok := cfg.completer().(*evaluator.OpenAICompleter)
	require.True(t, ok)
	assert.Empty(t, c.BaseURL)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("EVALUATOR_PROVIDER", " Gemini ")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://jobmatch.example.com,")
	t.Setenv("R2_ACCCOUNT_ID", "acct")
	t.Setenv("R2_BUCKET", "resumes")
	t.Setenv("R2_ACCESS_KEY", "ak")
	t.Setenv("R2_SECRET_KEY", "sk")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, providerGemini, cfg.Provider)
	assert.Equal(t, []string{"http://localhost:5173", "https://jobmatch.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.R2.Enabled())

	c, ok := cfg.completer().(*evaluator.GeminiCompleter)
	require.True(t, ok)
	assert.Equal(t, "gemini-2.5-flash", c.Model)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVALUATOR_PROVIDER", "claude")
	_, err := loadConfig()
	assert.ErrorContains(t, err, "invalid EVALUATOR_PROVIDER")

	clearEnv(t)
	t.Setenv("R2_BUCKET", "resumes")
	_, err = loadConfig()
	assert.ErrorContains(t, err, "incomplete R2 configuration")
}

func TestAPIKeyFor(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	assert.Equal(t, "sk-openai", apiKeyFor(providerOpenAI, ""))
	assert.Equal(t, "gm-key", apiKeyFor(providerGemini, ""))
	assert.Equal(t, "flag-key", apiKeyFor(providerOpenAI, "flag-key"))
}

func TestAnalyzeCommand(t *testing.T) {
	clearEnv(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"EVALUATION": [{"jobId": "x", "worthApplyingScore": 91, "status": "Highly Recommended"}], "overallInsight": "Strong."}`,
				},
			}},
		})
	}))
	defer srv.Close()
	t.Setenv("OPENAI_BASE_URL", srv.URL+"/v1")
	t.Setenv("OPENAI_API_KEY", "sk-cli")

	dir := t.TempDir()
	resumePath := filepath.Join(dir, "resume.md")
	jobA := filepath.Join(dir, "backend.txt")
	jobB := filepath.Join(dir, "platform.txt")
	require.NoError(t, os.WriteFile(resumePath, []byte("# Jane Doe\nGo engineer"), 0644))
	require.NoError(t, os.WriteFile(jobA, []byte("Backend role in Go"), 0644))
	require.NoError(t, os.WriteFile(jobB, []byte("Platform role on Kubernetes"), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"analyze", "--resume", resumePath, "--job", jobA, "--job", jobB, "--salary", "3"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "Bearer sk-cli", gotAuth)

	var result jobmatch.EvaluationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Len(t, result.Evaluations, 1)
	assert.Equal(t, jobmatch.StatusHighlyRecommended, result.Evaluations[0].Status)
	assert.Equal(t, "Strong.", result.OverallInsight)
}
