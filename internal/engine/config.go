package engine

import "log/slog"

// Config controls the behavior of the Engine.
type Config struct {
	// ConstraintAttempts caps generation attempts for templates that
	// declare constraints but no validation.rules.
	ConstraintAttempts int `validate:"min=1,max=10000"`

	// RuleAttempts caps generation attempts for templates that declare
	// validation.rules.
	RuleAttempts int `validate:"min=1,max=10000"`

	// KeepSubstituted includes the substituted document text in results.
	KeepSubstituted bool

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger `validate:"-"`
}

// DefaultConfig returns a Config with the standard attempt caps.
func DefaultConfig() Config {
	return Config{
		ConstraintAttempts: 20,
		RuleAttempts:       10,
		KeepSubstituted:    true,
	}
}
