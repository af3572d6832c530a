package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qforge/qforge/internal/config"
)

var (
	settings = config.New()
	cfg      *config.Config
	logger   = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "qforge",
	Short: "Render randomized question templates",
	Long: `qforge turns YAML question templates into concrete, reproducible questions:
parameters are drawn from a seeded generator, constraints are enforced,
placeholders are substituted and diagrams are composed into SVG.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		c, err := config.Load(settings)
		if err != nil {
			return err
		}
		cfg = c

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: config.ParseLevel(c.LogLevel),
		}))
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", ".env", "Optional dotenv file loaded before reading QFORGE_* variables")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("db-driver", "sqlite", "Database driver: sqlite or pgx")
	flags.String("db", "", "Database DSN; for sqlite a file path (defaults to the XDG data dir)")

	mustBind(settings, config.KeyLogLevel, "log-level")
	mustBind(settings, config.KeyDBDriver, "db-driver")
	mustBind(settings, config.KeyDBDSN, "db")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// mustBind ties a persistent flag to a config key so flags override
// environment variables.
func mustBind(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// mustBindFlag is mustBind for a subcommand's local flag.
func mustBindFlag(cmd *cobra.Command, key, flag string) {
	if err := settings.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}
