package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/persistence"
)

var (
	memberCounter      uint64
	appointmentCounter uint64
	inviteCounter      uint64
)

// DefaultCompanyID is the tenant every fixture belongs to unless overridden.
const DefaultCompanyID = "company-1"

var referenceTime = time.Date(2024, time.October, 15, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Member fixtures ----------------------------

// MemberOption configures a generated member.
type MemberOption func(*persistence.Member)

// NewMember returns a deterministic directory member.
func NewMember(opts ...MemberOption) persistence.Member {
	idx := atomic.AddUint64(&memberCounter, 1)
	id := fmt.Sprintf("member-%03d", idx)
	m := persistence.Member{
		ID:        id,
		CompanyID: DefaultCompanyID,
		Name:      fmt.Sprintf("Member %03d", idx),
		Email:     id + "@example.com",
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WithMemberID overrides the generated member ID.
func WithMemberID(id string) MemberOption {
	return func(m *persistence.Member) {
		m.ID = id
		m.Email = id + "@example.com"
	}
}

// WithMemberName overrides the display name.
func WithMemberName(name string) MemberOption {
	return func(m *persistence.Member) {
		m.Name = name
	}
}

// WithMemberCompany moves the member to another company.
func WithMemberCompany(companyID string) MemberOption {
	return func(m *persistence.Member) {
		m.CompanyID = companyID
	}
}

// ------------------------- Appointment fixtures --------------------------

// AppointmentOption configures a generated appointment.
type AppointmentOption func(*appointment.Appointment)

// NewAppointment returns a one hour visit starting a day after ReferenceTime.
func NewAppointment(opts ...AppointmentOption) appointment.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	start := referenceTime.Add(24 * time.Hour)
	a := appointment.Appointment{
		ID:             fmt.Sprintf("appointment-%03d", idx),
		Title:          fmt.Sprintf("Appointment %03d", idx),
		Type:           appointment.TypeVisit,
		Status:         appointment.InitialStatus(),
		Visibility:     appointment.VisibilityPublic,
		StartAt:        start,
		EndAt:          start.Add(time.Hour),
		Color:          appointment.DefaultColor(),
		OwnerUserID:    "owner",
		CompanyID:      DefaultCompanyID,
		ParticipantIDs: []string{},
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(a *appointment.Appointment) {
		a.ID = id
	}
}

// WithAppointmentTitle overrides the title.
func WithAppointmentTitle(title string) AppointmentOption {
	return func(a *appointment.Appointment) {
		a.Title = title
	}
}

// WithAppointmentOwner sets the owner.
func WithAppointmentOwner(userID string) AppointmentOption {
	return func(a *appointment.Appointment) {
		a.OwnerUserID = userID
	}
}

// WithAppointmentCompany sets the company.
func WithAppointmentCompany(companyID string) AppointmentOption {
	return func(a *appointment.Appointment) {
		a.CompanyID = companyID
	}
}

// WithAppointmentWindow sets the start and end.
func WithAppointmentWindow(start, end time.Time) AppointmentOption {
	return func(a *appointment.Appointment) {
		a.StartAt = start
		a.EndAt = end
	}
}

// WithAppointmentParticipants sets the participant ids.
func WithAppointmentParticipants(ids ...string) AppointmentOption {
	return func(a *appointment.Appointment) {
		a.ParticipantIDs = appointment.NormalizeIDs(ids)
	}
}

// ---------------------------- Invite fixtures ----------------------------

// InviteOption configures a generated invite.
type InviteOption func(*invite.Invite)

// NewInvite returns a pending invite for the appointment.
func NewInvite(appointmentID, inviterID, invitedID string, opts ...InviteOption) invite.Invite {
	idx := atomic.AddUint64(&inviteCounter, 1)
	inv := invite.New(fmt.Sprintf("invite-%03d", idx), appointmentID, inviterID, invitedID, DefaultCompanyID, nil, referenceTime)
	for _, opt := range opts {
		opt(&inv)
	}
	return inv
}

// WithInviteID overrides the generated invite ID.
func WithInviteID(id string) InviteOption {
	return func(inv *invite.Invite) {
		inv.ID = id
	}
}

// WithInviteStatus sets the status.
func WithInviteStatus(status invite.Status) InviteOption {
	return func(inv *invite.Invite) {
		inv.Status = status
	}
}

// WithInviteCreatedAt sets both timestamps.
func WithInviteCreatedAt(t time.Time) InviteOption {
	return func(inv *invite.Invite) {
		inv.CreatedAt = t
		inv.UpdatedAt = t
	}
}
