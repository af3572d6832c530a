// Package config layers qforge settings: built-in defaults, then an
// optional .env file, then QFORGE_* environment variables, then flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/qforge/qforge/internal/artifact"
	"github.com/qforge/qforge/internal/engine"
	"github.com/qforge/qforge/internal/llm"
	"github.com/qforge/qforge/internal/store"
)

// EnvPrefix is prepended to every key when read from the environment,
// so db_dsn is QFORGE_DB_DSN.
const EnvPrefix = "QFORGE"

// Keys understood by Load.
const (
	KeyLogLevel           = "log_level"
	KeyDBDriver           = "db_driver"
	KeyDBDSN              = "db_dsn"
	KeyHTTPAddr           = "http_addr"
	KeyConstraintAttempts = "constraint_attempts"
	KeyRuleAttempts       = "rule_attempts"
	KeyCacheSize          = "cache_size"
	KeyRevisionKeep       = "revision_keep"

	KeyArtifactEndpoint  = "artifact_endpoint"
	KeyArtifactRegion    = "artifact_region"
	KeyArtifactAccessKey = "artifact_access_key"
	KeyArtifactSecretKey = "artifact_secret_key"
	KeyArtifactBucket    = "artifact_bucket"
	KeyArtifactUseSSL    = "artifact_use_ssl"

	KeyLLMProvider      = "llm_provider"
	KeyLLMTimeout       = "llm_timeout"
	KeyAnthropicAPIKey  = "anthropic_api_key"
	KeyAnthropicModel   = "anthropic_model"
	KeyOpenAIAPIKey     = "openai_api_key"
	KeyOpenAIModel      = "openai_model"
	KeyOpenAIBaseURL    = "openai_base_url"
	KeyGeminiAPIKey     = "gemini_api_key"
	KeyGeminiModel      = "gemini_model"
	KeyOpenRouterAPIKey = "openrouter_api_key"
	KeyOpenRouterModel  = "openrouter_model"
)

// Config is the resolved configuration.
type Config struct {
	LogLevel     string `validate:"oneof=debug info warn error"`
	DBDriver     string `validate:"oneof=sqlite pgx"`
	DBDSN        string
	HTTPAddr     string `validate:"required"`
	CacheSize    int    `validate:"min=1"`
	RevisionKeep int    `validate:"min=0"`

	Engine   engine.Config
	Artifact ArtifactConfig
	LLM      llm.Config `validate:"-"`

	// LLMConfigured is false when no provider could be set up from
	// settings or the vendors' standard key variables.
	LLMConfigured bool
}

// ArtifactConfig selects where rendered artifacts are archived.
// Artifacts are disabled when Endpoint is empty.
type ArtifactConfig struct {
	artifact.S3Config
}

// Enabled reports whether an artifact store is configured.
func (a ArtifactConfig) Enabled() bool { return a.Endpoint != "" }

// New returns a viper instance with defaults registered and environment
// lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	eng := engine.DefaultConfig()
	llmCfg := llm.DefaultConfig()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDBDriver, store.DriverSQLite)
	v.SetDefault(KeyDBDSN, "")
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyConstraintAttempts, eng.ConstraintAttempts)
	v.SetDefault(KeyRuleAttempts, eng.RuleAttempts)
	v.SetDefault(KeyCacheSize, store.DefaultCacheSize)
	v.SetDefault(KeyRevisionKeep, 10)

	v.SetDefault(KeyArtifactEndpoint, "")
	v.SetDefault(KeyArtifactRegion, "us-east-1")
	v.SetDefault(KeyArtifactAccessKey, "")
	v.SetDefault(KeyArtifactSecretKey, "")
	v.SetDefault(KeyArtifactBucket, "qforge-artifacts")
	v.SetDefault(KeyArtifactUseSSL, false)

	v.SetDefault(KeyLLMProvider, "")
	v.SetDefault(KeyLLMTimeout, llmCfg.Timeout)
	v.SetDefault(KeyAnthropicAPIKey, "")
	v.SetDefault(KeyAnthropicModel, llmCfg.Anthropic.Model)
	v.SetDefault(KeyOpenAIAPIKey, "")
	v.SetDefault(KeyOpenAIModel, llmCfg.OpenAI.Model)
	v.SetDefault(KeyOpenAIBaseURL, "")
	v.SetDefault(KeyGeminiAPIKey, "")
	v.SetDefault(KeyGeminiModel, llmCfg.Gemini.Model)
	v.SetDefault(KeyOpenRouterAPIKey, "")
	v.SetDefault(KeyOpenRouterModel, llmCfg.OpenRouter.Model)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads path into the process environment when it exists.
// Variables already set win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var validate = validator.New()

// Load resolves the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		LogLevel:     strings.ToLower(v.GetString(KeyLogLevel)),
		DBDriver:     v.GetString(KeyDBDriver),
		DBDSN:        v.GetString(KeyDBDSN),
		HTTPAddr:     v.GetString(KeyHTTPAddr),
		CacheSize:    v.GetInt(KeyCacheSize),
		RevisionKeep: v.GetInt(KeyRevisionKeep),
		Engine:       engine.DefaultConfig(),
		Artifact: ArtifactConfig{artifact.S3Config{
			Endpoint:  v.GetString(KeyArtifactEndpoint),
			Region:    v.GetString(KeyArtifactRegion),
			AccessKey: v.GetString(KeyArtifactAccessKey),
			SecretKey: v.GetString(KeyArtifactSecretKey),
			Bucket:    v.GetString(KeyArtifactBucket),
			UseSSL:    v.GetBool(KeyArtifactUseSSL),
		}},
	}
	cfg.Engine.ConstraintAttempts = v.GetInt(KeyConstraintAttempts)
	cfg.Engine.RuleAttempts = v.GetInt(KeyRuleAttempts)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.LLM, cfg.LLMConfigured = loadLLM(v)
	return cfg, nil
}

// loadLLM prefers an explicit llm_provider, then whichever provider has
// a QFORGE_ key, then the vendors' own key variables.
func loadLLM(v *viper.Viper) (llm.Config, bool) {
	cfg := llm.DefaultConfig()
	cfg.Timeout = v.GetDuration(KeyLLMTimeout)
	cfg.Anthropic = llm.AnthropicConfig{
		APIKey: v.GetString(KeyAnthropicAPIKey),
		Model:  v.GetString(KeyAnthropicModel),
	}
	cfg.OpenAI = llm.OpenAIConfig{
		APIKey:  v.GetString(KeyOpenAIAPIKey),
		Model:   v.GetString(KeyOpenAIModel),
		BaseURL: v.GetString(KeyOpenAIBaseURL),
	}
	cfg.Gemini = llm.GeminiConfig{
		APIKey: v.GetString(KeyGeminiAPIKey),
		Model:  v.GetString(KeyGeminiModel),
	}
	cfg.OpenRouter = llm.OpenAIConfig{
		APIKey:  v.GetString(KeyOpenRouterAPIKey),
		Model:   v.GetString(KeyOpenRouterModel),
		BaseURL: llm.OpenRouterBaseURL,
	}

	if p := v.GetString(KeyLLMProvider); p != "" {
		cfg.Provider = p
		return cfg, cfg.HasKey()
	}
	for _, p := range []string{llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderOpenRouter} {
		cfg.Provider = p
		if cfg.HasKey() {
			return cfg, true
		}
	}
	if found, ok := llm.DiscoverConfig(); ok {
		found.Timeout = cfg.Timeout
		return found, true
	}
	cfg.Provider = llm.ProviderAnthropic
	return cfg, false
}

// ParseLevel maps a log_level value onto slog.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// DSN returns the configured DSN, falling back to the default sqlite
// file for the sqlite driver.
func (c *Config) DSN() (string, error) {
	if c.DBDSN != "" || c.DBDriver != store.DriverSQLite {
		return c.DBDSN, nil
	}
	return store.DefaultDBPath()
}
