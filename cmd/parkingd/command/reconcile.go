package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"campus-parking-backend/internal/db"
	"campus-parking-backend/internal/notification"
	"campus-parking-backend/internal/reconcile"
	"campus-parking-backend/internal/store"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a single reconciliation pass",
	Long: `Compares slot status with recorded reservations once, repairs
every divergence older than the configured grace period and prints
what was changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gormDB, err := db.Init(&cfg.Database)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close(gormDB)

		appStore := store.NewGormStore(gormDB)
		// Alerts are persisted and logged; one-shot runs do not deliver them.
		alerter := notification.NewAlerter(appStore, nil)
		svc := reconcile.NewService(cfg.Reconcile, appStore, alerter)
		report, err := svc.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("reconciling: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "released: %v\n", report.Released)
		fmt.Fprintf(out, "rebooked: %v\n", report.Rebooked)
		fmt.Fprintf(out, "skipped: %d failed: %d\n", report.Skipped, report.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
