package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiddyhq/autopublisher/config"
	"github.com/fiddyhq/autopublisher/pkg/auth"
	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

var tokenCmd = &cobra.Command{
	Use:   "token [email]",
	Short: "Issue an API token for a user",
	Long: `Issues a signed JWT for the given user after verifying their
password. This is the only way tokens are minted; the API itself only
verifies and revokes them.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

var tokenPassword string

func init() {
	tokenCmd.Flags().StringVar(&tokenPassword, "password", "", "User password (will prompt if not provided)")
}

func runToken(cmd *cobra.Command, args []string) error {
	email := args[0]
	cfg := config.Load()

	db, err := database.NewClient(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	st := store.New(db)
	user, err := st.GetUserByEmail(cmd.Context(), email)
	if err != nil {
		return fmt.Errorf("user %s not found", email)
	}

	password := tokenPassword
	if password == "" {
		password, err = promptPassword("Enter password: ")
		if err != nil {
			return err
		}
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return fmt.Errorf("invalid password")
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Tier, cfg.JWTSecret, cfg.JWTExpirationHours)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Println(token)
	return nil
}
