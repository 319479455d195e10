package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiddyhq/autopublisher/config"
	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/secrets"
	"github.com/fiddyhq/autopublisher/pkg/store"
	"github.com/fiddyhq/autopublisher/pkg/testdata"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert fixture data for local development",
	RunE:  runSeed,
}

var (
	seedUsers            int
	seedSitesPerUser     int
	seedCampaignsPerUser int
)

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 5, "Number of users to create")
	seedCmd.Flags().IntVar(&seedSitesPerUser, "sites-per-user", 1, "Sites per user")
	seedCmd.Flags().IntVar(&seedCampaignsPerUser, "campaigns-per-user", 2, "Campaigns per user")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	db, err := database.NewClient(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	cipher, err := secrets.NewCipher(cfg.CredentialSecret)
	if err != nil {
		return fmt.Errorf("initialize credential cipher: %w", err)
	}

	st := store.New(db)
	result, err := testdata.SeedAll(cmd.Context(), st, cipher, testdata.GeneratorConfig{
		Users:            seedUsers,
		SitesPerUser:     seedSitesPerUser,
		CampaignsPerUser: seedCampaignsPerUser,
		ActiveChance:     0.7,
		DueChance:        0.3,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d users, %d sites, %d campaigns\n", result.Users, result.Sites, result.Campaigns)
	return nil
}
