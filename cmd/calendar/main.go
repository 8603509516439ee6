// Command calendar runs the company calendar API and its administrative tasks.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/company-calendar/internal/config"
	"github.com/example/company-calendar/internal/logging"
	"github.com/example/company-calendar/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	envFiles []string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "calendar",
		Short:         "Company calendar API server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newTokenCommand(opts),
		newMemberCommand(opts),
	)
	return cmd
}

// process is the shared state every subcommand starts from.
type process struct {
	cfg    config.Config
	logger *slog.Logger
}

func (o *rootOptions) load(stderr io.Writer) (process, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return process{}, err
	}
	logger, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return process{}, err
	}
	return process{cfg: cfg, logger: logger}, nil
}

// openStorage opens and migrates the configured database.
func (rt process) openStorage(ctx context.Context) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(ctx, sqlite.Config{DSN: rt.cfg.SQLiteDSN}, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return storage, nil
}
