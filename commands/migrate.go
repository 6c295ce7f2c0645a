package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"food-marketplace-api/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and repair missing user profiles",
	Long: `Run the schema migration, then make sure every user has its generic
profile, verification record and role profile. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := config.Migrate(a.DB); err != nil {
			return err
		}
		checked, err := a.Provisioner.Heal(cmd.Context(), a.DB)
		if err != nil {
			return err
		}
		log.Info().Int("users_checked", checked).Msg("migration complete")
		fmt.Printf("Schema up to date, %d users checked\n", checked)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
