package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"food-marketplace-api/auth"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
)

var (
	// users flags
	roleFilter string
	newUser    services.RegisterInput
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and create accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users, optionally of one role",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Accounts.ListUsers(cmd.Context(), models.UserRole(roleFilter))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(users)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS\tVERIFIED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.Role, u.AccountStatus, u.EmailVerified)
		}
		return w.Flush()
	},
}

// usersCreateCmd is the only way to create platform administrators.
var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account of any role",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		newUser.PasswordConfirm = newUser.Password
		user, err := a.Accounts.CreateUser(cmd.Context(), newUser)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s %q (id %d)\n", user.Role.Label(), user.Username, user.ID)
		return nil
	},
}

var tokensPurgeCmd = &cobra.Command{
	Use:   "purge-revoked",
	Short: "Delete expired entries from the SQL token denylist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		store, ok := a.Revoker.(*auth.GormRevoker)
		if !ok {
			fmt.Println("Revoked tokens live in redis and expire on their own")
			return nil
		}
		n, err := store.Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, tokensPurgeCmd)

	usersListCmd.Flags().StringVar(&roleFilter, "role", "", "Only list users of this role")

	f := usersCreateCmd.Flags()
	f.StringVar(&newUser.Username, "username", "", "Login name")
	f.StringVar(&newUser.Email, "email", "", "Email address")
	f.StringVar(&newUser.Password, "password", "", "Initial password, at least 8 characters")
	f.StringVar(&newUser.FirstName, "first-name", "", "First name")
	f.StringVar(&newUser.LastName, "last-name", "", "Last name")
	f.StringVar((*string)(&newUser.Role), "role", string(models.RoleCustomer), "Role of the new account")
	_ = usersCreateCmd.MarkFlagRequired("username")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")
}
