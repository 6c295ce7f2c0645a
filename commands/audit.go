package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var auditSlugsCmd = &cobra.Command{
	Use:   "audit-slugs",
	Short: "Report duplicated or overlong restaurant and menu item slugs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		audit, err := a.Catalog.AuditSlugs(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			if err := printJSON(audit); err != nil {
				return err
			}
		} else {
			for slug, ids := range audit.DuplicateRestaurantSlugs {
				fmt.Printf("duplicate restaurant slug %q: ids %v\n", slug, ids)
			}
			for slug, ids := range audit.DuplicateMenuItemSlugs {
				fmt.Printf("duplicate menu item slug %q: ids %v\n", slug, ids)
			}
			for _, s := range audit.LongRestaurantSlugs {
				fmt.Printf("restaurant %d slug is %d characters\n", s.ID, s.Length)
			}
			for _, s := range audit.LongMenuItemSlugs {
				fmt.Printf("menu item %d slug is %d characters\n", s.ID, s.Length)
			}
		}
		if !audit.Clean() {
			return errors.New("slug audit found problems")
		}
		if !jsonOutput {
			fmt.Println("All slugs are unique and within length limits")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditSlugsCmd)
}
