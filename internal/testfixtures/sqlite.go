package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style persistence tests.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Appointments persistence.AppointmentRepository
	Invites      persistence.InviteRepository
	Members      persistence.MemberRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "calendar.db")

	storage, err := sqlite.Open(ctx, sqlite.Config{DSN: path}, DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Appointments: storage,
		Invites:      storage,
		Members:      storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedMembers stores the members, failing the test on error.
func (h *SQLiteHarness) SeedMembers(tb testing.TB, members ...persistence.Member) {
	tb.Helper()
	for _, m := range members {
		if err := h.Members.UpsertMember(context.Background(), m); err != nil {
			tb.Fatalf("seed member %s: %v", m.ID, err)
		}
	}
}
