package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Tebogokaulela455/psa/config"
	"github.com/Tebogokaulela455/psa/database"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/spf13/cobra"
)

var purgeRevoked bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Runs the schema migrations against DATABASE_URL and exits.

The server only migrates on start in development; production deploys run this first.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&purgeRevoked, "purge-revoked", false, "Also delete expired rows from revoked_tokens")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	utils.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	utils.Log.Info("[migrate] schema is up to date")

	if purgeRevoked {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		n, err := utils.NewDBRevocationStore(db).Purge(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("purge revoked tokens: %w", err)
		}
		utils.Log.WithField("rows", n).Info("[migrate] purged expired revoked tokens")
	}
	return nil
}
