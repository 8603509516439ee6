// Package sqlite implements the persistence repositories on SQLite through
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"log/slog"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the repositories over one connection pool.
type Storage struct {
	*ConnectionPool
	*AppointmentRepository
	*InviteRepository
	*MemberRepository

	logger *slog.Logger
}

var (
	_ persistence.AppointmentRepository = (*Storage)(nil)
	_ persistence.InviteRepository      = (*Storage)(nil)
	_ persistence.MemberRepository      = (*Storage)(nil)
)

// Open connects to the database described by cfg. Call Migrate before use.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := OpenPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{
		ConnectionPool:        pool,
		AppointmentRepository: NewAppointmentRepository(pool),
		InviteRepository:      NewInviteRepository(pool),
		MemberRepository:      NewMemberRepository(pool),
		logger:                logger,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	return s.migrationManager().Run(ctx)
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	return s.migrationManager().Status(ctx)
}

func (s *Storage) migrationManager() *migration.Manager {
	return migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.DB()),
		s.logger,
	)
}
