package orchestrator

import (
	"context"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/participants"
)

// loadGuard debounces one list. Both guards are advisory: the server stays
// the source of truth.
type loadGuard struct {
	inflight   int
	lastLoadAt time.Time
	seq        uint64
}

func (g *loadGuard) loading() bool {
	return g.inflight > 0
}

// LoadAppointments refreshes the company appointments. While a load is in
// flight, or within the minimum interval of the previous one, the last known
// list is returned without calling the backend. A failed load keeps the
// previous list and returns it together with the error.
func (s *Session) LoadAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	return load(ctx, s, OpLoadAppointments, &s.appointmentsGuard, &s.appointments, false,
		func(ctx context.Context) ([]appointment.Appointment, error) {
			items, err := s.backend.ListAppointments(ctx)
			for i := range items {
				items[i] = items[i].Normalize()
			}
			return items, err
		})
}

// LoadPendingInvites refreshes the pending invites addressed to the caller.
func (s *Session) LoadPendingInvites(ctx context.Context) ([]invite.Invite, error) {
	return s.loadPendingInvites(ctx, false)
}

// LoadMyInvites refreshes every invite addressed to the caller.
func (s *Session) LoadMyInvites(ctx context.Context) ([]invite.Invite, error) {
	return s.loadMyInvites(ctx, false)
}

// LoadMembers refreshes the member directory of the caller's company.
func (s *Session) LoadMembers(ctx context.Context) ([]participants.Member, error) {
	return load(ctx, s, OpLoadMembers, &s.membersGuard, &s.members, false, s.backend.ListMembers)
}

func (s *Session) loadPendingInvites(ctx context.Context, force bool) ([]invite.Invite, error) {
	return load(ctx, s, OpLoadPendingInvites, &s.pendingGuard, &s.pending, force, s.fetchInvites(s.backend.ListPendingInvites))
}

func (s *Session) loadMyInvites(ctx context.Context, force bool) ([]invite.Invite, error) {
	return load(ctx, s, OpLoadMyInvites, &s.mineGuard, &s.mine, force, s.fetchInvites(s.backend.ListMyInvites))
}

func (s *Session) fetchInvites(fetch func(context.Context) ([]invite.Invite, error)) func(context.Context) ([]invite.Invite, error) {
	return func(ctx context.Context) ([]invite.Invite, error) {
		items, err := fetch(ctx)
		for i := range items {
			items[i] = items[i].Normalize()
		}
		return items, err
	}
}

// load runs fetch under guard and stores the result in list. force bypasses
// both guards; a load that was overtaken by a newer one does not overwrite
// the list.
func load[T any](ctx context.Context, s *Session, op string, guard *loadGuard, list *[]T, force bool, fetch func(context.Context) ([]T, error)) ([]T, error) {
	logger := s.log(ctx, op)
	now := s.now()

	s.mu.Lock()
	if !force {
		recent := !guard.lastLoadAt.IsZero() && now.Sub(guard.lastLoadAt) < s.minInterval
		if guard.loading() || recent {
			cached := append([]T(nil), (*list)...)
			s.mu.Unlock()
			logger.Debug("load suppressed", "in_flight", guard.loading(), "items", len(cached))
			return cached, nil
		}
	}
	previousLoadAt := guard.lastLoadAt
	guard.inflight++
	guard.seq++
	token := guard.seq
	guard.lastLoadAt = now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		guard.inflight--
		s.mu.Unlock()
	}()

	items, err := fetch(ctx)
	if err != nil {
		err = translate(op, err)
		s.mu.Lock()
		if guard.seq == token {
			// a failed load must not suppress the caller's retry
			guard.lastLoadAt = previousLoadAt
		}
		cached := append([]T(nil), (*list)...)
		s.mu.Unlock()
		logger.Warn("load failed, keeping last known list", "error_kind", failure.Kind(err), "error", err)
		return cached, err
	}

	s.mu.Lock()
	if guard.seq == token {
		*list = append([]T(nil), items...)
	}
	result := append([]T(nil), (*list)...)
	s.mu.Unlock()

	logger.Debug("load completed", "items", len(result))
	return result, nil
}
