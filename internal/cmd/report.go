package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ronospace/flowiq/internal/config"
	"github.com/ronospace/flowiq/internal/db"
	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/services"
)

var (
	reportUserID uint
	reportAsOf   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one user's forecast report as JSON",
	Long: `Build the full forecast report for one user straight from the database
and print it as indented JSON on stdout. Useful for inspecting what the
API would serve without running it.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().UintVar(&reportUserID, "user", 0, "User ID to report on")
	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "", "Report day (2006-01-02, default today)")
	_ = reportCmd.MarkFlagRequired("user")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	logger.SetOutput(os.Stderr)
	location := cfg.Location(logger)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	repositories := db.NewRepositories(database)
	intelligence := engine.New(logger, engine.Options{
		StatisticsWindow: cfg.Engine.StatisticsWindow,
		LutealPhaseDays:  cfg.Engine.LutealPhaseDays,
	})
	insights := services.NewInsightsService(
		repositories.Users,
		repositories.Cycles,
		repositories.Entries,
		repositories.Wearables,
		intelligence,
	)

	asOf := time.Time{}
	if reportAsOf != "" {
		parsed, err := time.ParseInLocation("2006-01-02", reportAsOf, location)
		if err != nil {
			return fmt.Errorf("invalid --as-of day: %w", err)
		}
		asOf = parsed
	}

	report, err := insights.GenerateReport(reportUserID, asOf)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
