package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"campus-parking-backend/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the configured parking slots",
	Long: `Creates the tables if needed and inserts every configured slot
that does not exist yet. Existing slots keep their current status.`,
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

		n, err := db.Seed(cmd.Context(), gormDB, cfg.Seed)
		if err != nil {
			return fmt.Errorf("seeding slots: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d slots\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
