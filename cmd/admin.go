package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ezenglish/learning-service/internal/models"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		req := &models.RegisterRequest{}
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")
		req.FullName, _ = cmd.Flags().GetString("full-name")

		a, err := newApp(ctx, migrateFlag(cmd))
		if err != nil {
			return err
		}
		defer a.close(ctx)

		user, err := a.serviceManager.Auth().Register(ctx, req, models.GroupAdmin)
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().String("username", "", "Login name")
	createAdminCmd.Flags().String("email", "", "Email address")
	createAdminCmd.Flags().String("password", "", "Initial password")
	createAdminCmd.Flags().String("full-name", "", "Display name")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
