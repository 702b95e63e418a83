package cli

import (
	"fmt"
	"os"

	"storefront/internal/infrastructure/database/postgres"
	"storefront/internal/infrastructure/mail"
	"storefront/internal/infrastructure/memory"
	"storefront/internal/logger"
	"storefront/internal/usecase/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedOpts struct {
	skipProducts  bool
	adminName     string
	adminEmail    string
	adminPassword string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the launch catalog and an optional admin account",
	Long: `Insert the launch products, skipping any whose name already exists.

When an admin email is given (flag or ADMIN_EMAIL), an admin account is created
with the given password (flag or ADMIN_PASSWORD) unless it already exists.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedOpts.skipProducts, "skip-products", false, "do not insert the launch catalog")
	seedCmd.Flags().StringVar(&seedOpts.adminName, "admin-name", "Store Admin", "display name of the admin account")
	seedCmd.Flags().StringVar(&seedOpts.adminEmail, "admin-email", os.Getenv("ADMIN_EMAIL"), "email of the admin account to create")
	seedCmd.Flags().StringVar(&seedOpts.adminPassword, "admin-password", os.Getenv("ADMIN_PASSWORD"), "password of the admin account to create")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmd.Context()

	if !seedOpts.skipProducts {
		inserted, err := db.SeedProducts(ctx, postgres.LaunchCatalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d of %d launch products\n", inserted, len(postgres.LaunchCatalog))
	}

	if seedOpts.adminEmail == "" {
		return nil
	}

	userService := user.NewService(
		postgres.NewUserRepository(db),
		postgres.NewRefreshTokenRepository(db),
		memory.NewCartStore(cfg.Cart.TTL),
		mail.LogMailer{},
		cfg,
	)
	created, err := userService.EnsureAdmin(ctx, seedOpts.adminName, seedOpts.adminEmail, seedOpts.adminPassword)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	if !created {
		logger.Info("Admin account already exists", zap.String("email", seedOpts.adminEmail))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Admin %s ready\n", seedOpts.adminEmail)
	return nil
}
