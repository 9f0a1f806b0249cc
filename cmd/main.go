package main

import (
	"fmt"
	"os"

	"hospital-records/cmd/bootstrap"
	"hospital-records/internal/infrastructure/database"
	"hospital-records/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hospital-records",
		Short:         "Employee and patient identity service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".env", "path to the .env configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newTokenCmd(&configPath),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Initialize application with all dependencies
			app, err := bootstrap.New(*configPath)
			if err != nil {
				logrus.Errorf("Failed to initialize application: %v", err)
				return err
			}

			// Run the application
			app.Run()
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return database.MigrateUp(cfg.DB, logrus.StandardLogger())
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return database.MigrateDown(cfg.DB, steps, logrus.StandardLogger())
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")
	migrateCmd.AddCommand(down)

	return migrateCmd
}

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		email  string
		role   string
		userID string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !jwt.ValidRole(role) {
				return fmt.Errorf("role must be %s or %s", jwt.RoleAdmin, jwt.RoleViewer)
			}

			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid user id: %w", err)
				}
				id = parsed
			}

			cfg, err := bootstrap.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			token, err := bootstrap.IssueToken(cfg, id, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().StringVar(&role, "role", jwt.RoleViewer, "admin or viewer")
	cmd.Flags().StringVar(&userID, "user-id", "", "operator id (random when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
