package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowiq",
	Short: "Cycle intelligence engine",
	Long: `Flow iQ turns logged cycle history, daily symptom entries and wearable
summaries into period forecasts, condition risk screenings and pattern
insights, served over a JSON API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
