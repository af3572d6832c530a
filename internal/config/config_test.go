package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/llm"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"QFORGE_LLM_PROVIDER", "QFORGE_ANTHROPIC_API_KEY", "QFORGE_OPENAI_API_KEY",
		"QFORGE_GEMINI_API_KEY", "QFORGE_OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearLLMEnv(t)
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 20, cfg.Engine.ConstraintAttempts)
	assert.Equal(t, 10, cfg.Engine.RuleAttempts)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.False(t, cfg.Artifact.Enabled())
	assert.False(t, cfg.LLMConfigured)
}

func TestLoad_Env(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QFORGE_LOG_LEVEL", "DEBUG")
	t.Setenv("QFORGE_CONSTRAINT_ATTEMPTS", "50")
	t.Setenv("QFORGE_DB_DRIVER", "pgx")
	t.Setenv("QFORGE_DB_DSN", "postgres://localhost/qforge")
	t.Setenv("QFORGE_ARTIFACT_ENDPOINT", "localhost:9000")
	t.Setenv("QFORGE_LLM_TIMEOUT", "5s")
	t.Setenv("QFORGE_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50, cfg.Engine.ConstraintAttempts)
	assert.Equal(t, "pgx", cfg.DBDriver)
	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/qforge", dsn)
	assert.True(t, cfg.Artifact.Enabled())
	assert.Equal(t, "qforge-artifacts", cfg.Artifact.Bucket)

	require.True(t, cfg.LLMConfigured)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
}

func TestLoad_ExplicitProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QFORGE_LLM_PROVIDER", "gemini")
	t.Setenv("QFORGE_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.False(t, cfg.LLMConfigured)
}

func TestLoad_VendorKeyFallback(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.True(t, cfg.LLMConfigured)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	clearLLMEnv(t)
	tests := map[string]string{
		"QFORGE_LOG_LEVEL":           "loud",
		"QFORGE_DB_DRIVER":           "mysql",
		"QFORGE_RULE_ATTEMPTS":       "0",
		"QFORGE_CONSTRAINT_ATTEMPTS": "100000",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load(New())
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearLLMEnv(t)
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("QFORGE_HTTP_ADDR=:9999\n"), 0o644))
	t.Setenv("QFORGE_HTTP_ADDR", "")
	os.Unsetenv("QFORGE_HTTP_ADDR")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("warn").String())
	assert.Equal(t, "INFO", ParseLevel("nonsense").String())
}
