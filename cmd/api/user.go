package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fiddyhq/autopublisher/config"
	"github.com/fiddyhq/autopublisher/pkg/auth"
	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUserCreate,
}

var userSetTierCmd = &cobra.Command{
	Use:   "set-tier [email] [tier]",
	Short: "Change a user's subscription tier",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserSetTier,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

var (
	userEmail    string
	userPassword string
	userTier     string
)

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "User password (will prompt if not provided)")
	userCreateCmd.Flags().StringVar(&userTier, "tier", models.TierTrial, "Subscription tier (trial, hobbyist, professional)")
	userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userSetTierCmd)
	userCmd.AddCommand(userListCmd)
}

func validTier(tier string) bool {
	switch tier {
	case models.TierTrial, models.TierHobbyist, models.TierProfessional:
		return true
	}
	return false
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pwBytes), nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	if !validTier(userTier) {
		return fmt.Errorf("invalid tier %q: must be trial, hobbyist or professional", userTier)
	}

	cfg := config.Load()

	db, err := database.NewClient(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	password := userPassword
	if password == "" {
		password, err = promptPassword("Enter password: ")
		if err != nil {
			return err
		}

		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	st := store.New(db)
	user, err := st.CreateUser(cmd.Context(), &models.User{
		Email:        strings.ToLower(strings.TrimSpace(userEmail)),
		PasswordHash: hash,
		Tier:         userTier,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %s created (id: %d, tier: %s)\n", user.Email, user.ID, user.Tier)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	db, err := database.NewClient(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	st := store.New(db)
	users, err := st.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	fmt.Printf("%-5s %-35s %-14s %-6s %-8s %s\n", "ID", "EMAIL", "TIER", "ADMIN", "PERIOD", "TOTAL")
	for _, user := range users {
		admin := ""
		if user.IsAdmin {
			admin = "yes"
		}
		fmt.Printf("%-5d %-35s %-14s %-6s %-8d %d\n",
			user.ID, user.Email, user.Tier, admin, user.PostsPublishedPeriod, user.PostsPublishedTotal)
	}
	return nil
}

func runUserSetTier(cmd *cobra.Command, args []string) error {
	email, tier := args[0], args[1]
	if !validTier(tier) {
		return fmt.Errorf("invalid tier %q: must be trial, hobbyist or professional", tier)
	}

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

	if err := st.SetUserTier(cmd.Context(), user.ID, tier); err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}

	fmt.Printf("User %s moved to tier %s\n", email, tier)
	return nil
}
