package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"order-desk/repositories"
	"order-desk/services"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// createAdminCmd provisions an admin out-of-band, since registration does
// not grant the admin flag to anonymous callers.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user, or promote an existing user to admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminPassword == "" {
			adminPassword = os.Getenv("ADMIN_PASSWORD")
		}
		if adminEmail == "" || len(adminPassword) < 6 {
			return errors.New("--email and a password of at least 6 characters (--password or ADMIN_PASSWORD) are required")
		}

		cfg := boot()
		store, err := repositories.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		user, created, err := services.NewUserService(store.Users).CreateAdmin(cmd.Context(), adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
		} else {
			fmt.Printf("Promoted %s (%s) to admin\n", user.Email, user.ID)
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin e-mail address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (defaults to $ADMIN_PASSWORD)")
}
