package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ronospace/flowiq/internal/config"
	"github.com/ronospace/flowiq/internal/db"
	"github.com/ronospace/flowiq/internal/models"
	"github.com/ronospace/flowiq/internal/services"
)

var (
	userAddName           string
	userAddTimeZone       string
	userAddCycleLength    int
	userAddPeriodLength   int
	userAddLastPeriod     string
	userAddTelegramChatID string

	userSetID             uint
	userSetName           string
	userSetCycleLength    int
	userSetPeriodLength   int
	userSetLastPeriod     string
	userSetTelegramChatID string

	userRemoveID uint
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Provision and maintain tracking profiles",
	Long: `Manage the profile rows the engine and the notifier read. Identity and
credentials live in the external auth system; a profile only carries the
display name, time zone, onboarding baseline and alert target.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a tracking profile",
	RunE:  runUserAdd,
}

var userSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update fields on an existing profile",
	RunE:  runUserSet,
}

var userRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete a profile and every row tracked for it",
	RunE:  runUserRemove,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userSetCmd, userRemoveCmd)

	userAddCmd.Flags().StringVar(&userAddName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userAddTimeZone, "timezone", "UTC", "IANA time zone for day boundaries")
	userAddCmd.Flags().IntVar(&userAddCycleLength, "cycle-length", models.DefaultCycleLength, "Baseline cycle length in days")
	userAddCmd.Flags().IntVar(&userAddPeriodLength, "period-length", models.DefaultPeriodLength, "Baseline period length in days")
	userAddCmd.Flags().StringVar(&userAddLastPeriod, "last-period", "", "Most recent period start (2006-01-02)")
	userAddCmd.Flags().StringVar(&userAddTelegramChatID, "telegram-chat-id", "", "Telegram chat for consultation alerts")
	_ = userAddCmd.MarkFlagRequired("name")

	userSetCmd.Flags().UintVar(&userSetID, "id", 0, "User ID to update")
	userSetCmd.Flags().StringVar(&userSetName, "name", "", "New display name")
	userSetCmd.Flags().IntVar(&userSetCycleLength, "cycle-length", 0, "New baseline cycle length in days")
	userSetCmd.Flags().IntVar(&userSetPeriodLength, "period-length", 0, "New baseline period length in days")
	userSetCmd.Flags().StringVar(&userSetLastPeriod, "last-period", "", "New most recent period start (2006-01-02)")
	userSetCmd.Flags().StringVar(&userSetTelegramChatID, "telegram-chat-id", "", "Telegram chat for consultation alerts, empty unlinks")
	_ = userSetCmd.MarkFlagRequired("id")

	userRemoveCmd.Flags().UintVar(&userRemoveID, "id", 0, "User ID to delete")
	_ = userRemoveCmd.MarkFlagRequired("id")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	profiles, err := openProfileService()
	if err != nil {
		return err
	}

	input := services.NewProfileInput{
		DisplayName:    userAddName,
		TimeZone:       userAddTimeZone,
		CycleLength:    userAddCycleLength,
		PeriodLength:   userAddPeriodLength,
		TelegramChatID: userAddTelegramChatID,
	}
	if userAddLastPeriod != "" {
		lastPeriod, err := parseProfileDay(userAddLastPeriod, userAddTimeZone)
		if err != nil {
			return fmt.Errorf("invalid --last-period day: %w", err)
		}
		input.LastPeriodStart = &lastPeriod
	}

	user, first, err := profiles.CreateProfile(input)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.DisplayName)
	if first {
		fmt.Fprintf(cmd.OutOrStdout(), "first profile ready; mint an API token with: flowiq token --user %d\n", user.ID)
	}
	return nil
}

func runUserSet(cmd *cobra.Command, args []string) error {
	profiles, err := openProfileService()
	if err != nil {
		return err
	}

	changes := services.ProfileChanges{}
	flags := cmd.Flags()
	if flags.Changed("name") {
		changes.DisplayName = &userSetName
	}
	if flags.Changed("cycle-length") {
		changes.CycleLength = &userSetCycleLength
	}
	if flags.Changed("period-length") {
		changes.PeriodLength = &userSetPeriodLength
	}
	if flags.Changed("telegram-chat-id") {
		changes.TelegramChatID = &userSetTelegramChatID
	}
	if flags.Changed("last-period") {
		lastPeriod, err := parseProfileDay(userSetLastPeriod, "UTC")
		if err != nil {
			return fmt.Errorf("invalid --last-period day: %w", err)
		}
		changes.LastPeriodStart = &lastPeriod
	}

	user, err := profiles.UpdateProfile(userSetID, changes)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "updated user %d (%s)\n", user.ID, user.DisplayName)
	return nil
}

func runUserRemove(cmd *cobra.Command, args []string) error {
	profiles, err := openProfileService()
	if err != nil {
		return err
	}

	user, cycleCount, err := profiles.RemoveProfile(userRemoveID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed user %d (%s) and %d tracked cycles\n", user.ID, user.DisplayName, cycleCount)
	return nil
}

func openProfileService() (*services.ProfileService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	repositories := db.NewRepositories(database)
	return services.NewProfileService(repositories.Users, repositories.Cycles), nil
}

func parseProfileDay(raw string, timeZone string) (time.Time, error) {
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		location = time.UTC
	}
	return time.ParseInLocation("2006-01-02", raw, location)
}
