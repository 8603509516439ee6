package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager runs pending migrations in version order.
type Manager struct {
	source   Source
	executor Executor
	logger   *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(source Source, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{source: source, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration. Each migration is recorded right
// after it commits, so a failure leaves earlier migrations applied.
func (m *Manager) Run(ctx context.Context) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date", "version", status.CurrentVersion)
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "from_version", status.CurrentVersion, "pending", len(status.Pending))
	for _, mig := range status.Pending {
		start := time.Now()
		if err := m.executor.ExecuteMigration(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "path", mig.Path, "error", err)
			return newMigrationError(mig.Version, mig.Path, "execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		elapsed := time.Since(start)
		if err := m.executor.RecordMigration(ctx, mig, elapsed); err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "migration applied", "version", mig.Version, "description", mig.Description, "duration", elapsed)
	}
	return nil
}

// Status reports applied and pending migrations after checking that the
// available files form a continuous sequence covering every applied version.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	available, err := m.source.Scan()
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return Status{}, err
	}
	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedSet := make(map[int]struct{}, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		appliedSet[versionNumber(a.Version)] = struct{}{}
		if versionNumber(a.Version) > versionNumber(status.CurrentVersion) {
			status.CurrentVersion = a.Version
		}
	}
	for _, mig := range available {
		if _, done := appliedSet[versionNumber(mig.Version)]; !done {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	for i, mig := range available {
		n := versionNumber(mig.Version)
		if i > 0 && n != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration before version %s", ErrVersionConflict, mig.Version)
		}
		byVersion[n] = mig
	}
	for _, a := range applied {
		mig, ok := byVersion[versionNumber(a.Version)]
		if !ok {
			return fmt.Errorf("%w: applied version %s has no migration file", ErrVersionConflict, a.Version)
		}
		if a.Checksum != "" && mig.Checksum != a.Checksum {
			return newMigrationError(mig.Version, mig.Path, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}
