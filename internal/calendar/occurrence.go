package calendar

import (
	"time"

	"github.com/example/company-calendar/internal/appointment"
)

// Occurrence is a derived, non-persisted instance of an appointment for one
// calendar cell. Start and End are floating wall-clock values.
type Occurrence struct {
	ID             string                 `json:"id"`
	GroupID        string                 `json:"groupId"`
	Start          time.Time              `json:"start"`
	End            time.Time              `json:"end"`
	AllDay         bool                   `json:"allDay"`
	Title          string                 `json:"title"`
	Color          string                 `json:"color"`
	Type           appointment.Type       `json:"type"`
	Status         appointment.Status     `json:"status"`
	Visibility     appointment.Visibility `json:"visibility"`
	Location       *string                `json:"location,omitempty"`
	OwnerUserID    string                 `json:"ownerUserId"`
	ParticipantIDs []string               `json:"participantIds"`
}

// GroupIndex resolves occurrences back to the appointment they came from.
type GroupIndex map[string]appointment.Appointment

// NewGroupIndex indexes appointments by id.
func NewGroupIndex(as []appointment.Appointment) GroupIndex {
	idx := make(GroupIndex, len(as))
	for _, a := range as {
		idx[a.ID] = a
	}
	return idx
}

// Resolve returns the appointment behind occ.
func (idx GroupIndex) Resolve(occ Occurrence) (appointment.Appointment, bool) {
	key := occ.GroupID
	if key == "" {
		key = occ.ID
	}
	a, ok := idx[key]
	return a, ok
}
