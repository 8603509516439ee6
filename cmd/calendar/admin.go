package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/auth"
	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/persistence/sqlite"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			storage, err := sqlite.Open(ctx, sqlite.Config{DSN: rt.cfg.SQLiteDSN}, rt.logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			if !statusOnly {
				if err := storage.Migrate(ctx); err != nil {
					rt.logger.Error("migration failed", "error", err)
					return err
				}
			}
			status, err := storage.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "current version %s\n", orNone(status.CurrentVersion))
			fmt.Fprintf(out, "applied %d, pending %d\n", len(status.Applied), len(status.Pending))
			for _, m := range status.Pending {
				fmt.Fprintf(out, "pending %s %s\n", m.Version, m.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report the schema state without applying migrations")
	return cmd
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		userID    string
		companyID string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = rt.cfg.TokenTTL
			}
			issuer, err := auth.NewIssuer(rt.cfg.AuthSecret, ttl, nil)
			if err != nil {
				return err
			}
			token, expires, err := issuer.Issue(auth.Identity{UserID: userID, CompanyID: companyID})
			if err != nil {
				return err
			}
			rt.logger.Info("token issued", "user_id", userID, "company_id", companyID, "expires_at", expires)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "member id the token speaks for")
	cmd.Flags().StringVar(&companyID, "company", "", "company id of the member")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to CALENDAR_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newMemberCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the member directory",
	}

	var m persistence.Member
	add := &cobra.Command{
		Use:   "add",
		Short: "Register or update a company member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			storage, err := rt.openStorage(ctx)
			if err != nil {
				return err
			}
			defer storage.Close()

			service := application.NewMemberService(storage, time.Now, rt.logger)
			saved, err := service.RegisterMember(ctx, m)
			if err != nil {
				var vErr *application.ValidationError
				if errors.As(err, &vErr) {
					for field, msg := range vErr.FieldErrors {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", field, msg)
					}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "member %s registered in %s\n", saved.ID, saved.CompanyID)
			return nil
		},
	}
	add.Flags().StringVar(&m.ID, "id", "", "member id")
	add.Flags().StringVar(&m.CompanyID, "company", "", "company id")
	add.Flags().StringVar(&m.Name, "name", "", "display name")
	add.Flags().StringVar(&m.Email, "email", "", "email address")

	cmd.AddCommand(add)
	return cmd
}
