package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/oceaneye/oceaneye/internal/analysis"
	"github.com/oceaneye/oceaneye/internal/api"
	"github.com/oceaneye/oceaneye/internal/auth"
	"github.com/oceaneye/oceaneye/internal/database"
	"github.com/oceaneye/oceaneye/internal/logging"
	"github.com/oceaneye/oceaneye/internal/media"
	"github.com/oceaneye/oceaneye/internal/metrics"
	"github.com/oceaneye/oceaneye/internal/model"
	"github.com/oceaneye/oceaneye/internal/report"
	"github.com/oceaneye/oceaneye/internal/repository"
)

// newServeCmd runs the API against an in-memory repository: no Postgres, no
// object store, disk media only. It provisions a dev user and prints a token
// so the authenticated route is usable immediately.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a local development server with an in-memory repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				cfg.JWTSecret = "dev-secret"
			}
			logger := logging.NewLogger("development")
			defer func() { _ = logger.Sync() }()

			repo := repository.NewMemoryRepository()
			dev := &model.User{Name: "Dev Reporter", Email: "dev@localhost"}
			if err := repo.Create(ctx, dev); err != nil {
				return err
			}
			tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
			token, err := tokens.Issue(dev.ID)
			if err != nil {
				return err
			}
			fmt.Printf("dev user %s\nbearer token: %s\n", dev.ID, token)

			store, err := media.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.UploadPathPrefix, cfg.MaxUploadBytes)
			if err != nil {
				return err
			}
			m := metrics.New()
			registry := prometheus.NewRegistry()
			if err := m.Register(registry); err != nil {
				return err
			}
			analyzer := analysis.NewClient(cfg.AnalysisURL, cfg.AnalysisTimeout)
			pipeline := report.New(store, analyzer, repo, cfg.AnalysisPolicy, m, logger)
			srv := api.New(cfg, logger, pipeline, repo, repo, tokens, m, registry)
			return srv.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}
	cmd.AddCommand(newUserCreateCmd(), newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return err
			}
			user := &model.User{Name: name, Email: email}
			if err := repository.NewUserRepository(pool).Create(ctx, user); err != nil {
				return err
			}
			fmt.Println(user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address (unique)")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			users, err := repository.NewUserRepository(pool).List(ctx)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

// newTokenCmd mints a bearer token for an existing user. Token issuing lives
// here rather than in the API: the service has no login endpoints.
func newTokenCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Mint a bearer token for a user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("OCEANEYE_JWT_SECRET is required")
			}
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			users := repository.NewUserRepository(pool)

			var user *model.User
			switch {
			case len(args) == 1:
				user, err = users.GetByID(ctx, args[0])
			case email != "":
				user, err = users.GetByEmail(ctx, email)
			default:
				return fmt.Errorf("pass a user id or --email")
			}
			if err != nil {
				return err
			}
			token, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL).Issue(user.ID)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Look up the user by email instead of id")
	return cmd
}
