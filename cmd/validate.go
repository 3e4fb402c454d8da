package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matrixise/coinfolio/internal/scheduler"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file syntax and values without running the application.`,
	Args:  cobra.NoArgs,
	RunE:  validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	slog.Info("✓ Configuration valid",
		"vs_currency", cfg.VsCurrency,
		"api_base_url", cfg.APIBaseURL,
		"api_key_set", cfg.APIKey != "",
		"backend", cfg.Storage.Backend,
		"scope", cfg.Scope,
		"persist_key", cfg.PersistKey(),
		"schedule", scheduler.DescribeSchedule(cfg.Interval, cfg.GetTimezone()),
		"cron", cfg.IsCronExpression(),
		"http_port", cfg.HTTPPort,
		"log_level", cfg.LogLevel,
	)

	return nil
}
