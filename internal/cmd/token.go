package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ronospace/flowiq/internal/api"
	"github.com/ronospace/flowiq/internal/config"
)

var (
	tokenUserID uint
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed bearer token for a user",
	Long: `Mint an HS256 bearer token for the given user ID, signed with the
configured secret key. The companion apps send it as
"Authorization: Bearer <token>".`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().UintVar(&tokenUserID, "user", 0, "User ID the token authenticates")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 7*24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	logger.SetOutput(os.Stderr)

	secretKey, err := cfg.EnsureSecretKey(logger)
	if err != nil {
		return err
	}

	token, err := api.MintToken([]byte(secretKey), tokenUserID, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
