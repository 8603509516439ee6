package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/persistence"
)

var referenceNow = time.Date(2024, time.October, 15, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return referenceNow }

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// memoryStore is a map backed stand-in for the SQLite repositories.
type memoryStore struct {
	mu           sync.Mutex
	appointments map[string]appointment.Appointment
	invites      map[string]invite.Invite
	members      []persistence.Member

	createErr error
	// transitionErr fails the next TransitionInvite without touching state.
	transitionErr error
}

func newMemoryStore(members ...persistence.Member) *memoryStore {
	return &memoryStore{
		appointments: map[string]appointment.Appointment{},
		invites:      map[string]invite.Invite{},
		members:      members,
	}
}

func member(id, companyID string) persistence.Member {
	return persistence.Member{ID: id, CompanyID: companyID, Name: "Member " + id, Email: id + "@example.com"}
}

func (m *memoryStore) CreateAppointment(_ context.Context, a appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.appointments[a.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *memoryStore) UpdateAppointment(_ context.Context, a appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *memoryStore) GetAppointment(_ context.Context, id string) (appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return appointment.Appointment{}, persistence.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) ListAppointments(_ context.Context, filter persistence.AppointmentFilter) ([]appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range m.appointments {
		if filter.CompanyID != "" && a.CompanyID != filter.CompanyID {
			continue
		}
		if filter.ParticipantID != "" && a.OwnerUserID != filter.ParticipantID && !a.HasParticipant(filter.ParticipantID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteAppointment(_ context.Context, id string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return 0, persistence.ErrNotFound
	}
	delete(m.appointments, id)
	cancelled := 0
	for key, inv := range m.invites {
		if inv.AppointmentID == id && inv.Status == invite.StatusPending {
			inv.Status = invite.StatusCancelled
			inv.UpdatedAt = at
			m.invites[key] = inv
			cancelled++
		}
	}
	return cancelled, nil
}

func (m *memoryStore) CreateInvite(_ context.Context, inv invite.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[inv.ID] = inv
	return nil
}

func (m *memoryStore) TransitionInvite(_ context.Context, inv invite.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitionErr != nil {
		err := m.transitionErr
		m.transitionErr = nil
		return err
	}
	stored, ok := m.invites[inv.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if stored.Status != invite.StatusPending {
		return persistence.ErrStale
	}
	m.invites[inv.ID] = inv
	if inv.Status == invite.StatusAccepted {
		if a, ok := m.appointments[inv.AppointmentID]; ok && !a.HasParticipant(inv.InvitedUserID) {
			a.ParticipantIDs = appointment.NormalizeIDs(append(a.ParticipantIDs, inv.InvitedUserID))
			a.UpdatedAt = inv.UpdatedAt
			m.appointments[a.ID] = a
		}
	}
	return nil
}

func (m *memoryStore) GetInvite(_ context.Context, id string) (invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[id]
	if !ok {
		return invite.Invite{}, persistence.ErrNotFound
	}
	if a, ok := m.appointments[inv.AppointmentID]; ok {
		inv.Appointment = invite.SummaryOf(a)
	}
	return inv, nil
}

func (m *memoryStore) ListInvites(_ context.Context, filter persistence.InviteFilter) ([]invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []invite.Invite
	for _, inv := range m.invites {
		if filter.AppointmentID != "" && inv.AppointmentID != filter.AppointmentID {
			continue
		}
		if filter.InvitedUserID != "" && inv.InvitedUserID != filter.InvitedUserID {
			continue
		}
		if filter.CompanyID != "" && inv.CompanyID != filter.CompanyID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, inv.Status) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) UpsertMember(_ context.Context, member persistence.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.members {
		if existing.ID == member.ID {
			m.members[i] = member
			return nil
		}
	}
	m.members = append(m.members, member)
	return nil
}

func (m *memoryStore) GetMember(_ context.Context, id string) (persistence.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range m.members {
		if member.ID == id {
			return member, nil
		}
	}
	return persistence.Member{}, persistence.ErrNotFound
}

func (m *memoryStore) ListMembers(_ context.Context, companyID string) ([]persistence.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Member
	for _, member := range m.members {
		if member.CompanyID == companyID {
			out = append(out, member)
		}
	}
	return out, nil
}

func containsStatus(list []invite.Status, s invite.Status) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
