// Package appointment defines the calendar appointment entity shared by the
// client core and the reference API server.
package appointment

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/wallclock"
)

// MaxTextLength caps description and notes, counted in characters.
const MaxTextLength = 300

// Type classifies an appointment.
type Type string

const (
	TypeVisit         Type = "visit"
	TypeMeeting       Type = "meeting"
	TypeInspection    Type = "inspection"
	TypeDocumentation Type = "documentation"
	TypeMaintenance   Type = "maintenance"
	TypeMarketing     Type = "marketing"
	TypeTraining      Type = "training"
	TypeOther         Type = "other"
)

// Types lists every supported appointment type.
var Types = []Type{TypeVisit, TypeMeeting, TypeInspection, TypeDocumentation, TypeMaintenance, TypeMarketing, TypeTraining, TypeOther}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Status tracks the appointment lifecycle.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Statuses lists every supported status.
var Statuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// InitialStatus is assigned to every newly created appointment.
func InitialStatus() Status {
	return StatusScheduled
}

// Visibility controls who can see an appointment.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityTeam:
		return true
	}
	return false
}

// Palette holds the fixed color swatches an appointment may use.
var Palette = []string{
	"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6",
	"#ec4899", "#14b8a6", "#f97316", "#6366f1", "#64748b",
}

// DefaultColor is applied when no swatch is chosen.
func DefaultColor() string {
	return Palette[0]
}

// ValidColor reports whether c is one of the palette swatches.
func ValidColor(c string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, swatch := range Palette {
		if c == swatch {
			return true
		}
	}
	return false
}

// Appointment is a calendar entry owned by a company member.
type Appointment struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	Type           Type       `json:"type"`
	Status         Status     `json:"status"`
	Visibility     Visibility `json:"visibility"`
	StartAt        time.Time  `json:"startAt"`
	EndAt          time.Time  `json:"endAt"`
	Color          string     `json:"color"`
	OwnerUserID    string     `json:"ownerUserId"`
	CompanyID      string     `json:"companyId"`
	ParticipantIDs []string   `json:"participantIds"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt,omitempty"`
}

// Normalize applies the defaulting rules for loosely populated payloads.
func (a Appointment) Normalize() Appointment {
	if !a.Type.Valid() {
		a.Type = TypeOther
	}
	if !a.Status.Valid() {
		a.Status = StatusScheduled
	}
	if !a.Visibility.Valid() {
		a.Visibility = VisibilityPublic
	}
	if !ValidColor(a.Color) {
		a.Color = DefaultColor()
	} else {
		a.Color = strings.ToLower(strings.TrimSpace(a.Color))
	}
	a.ParticipantIDs = NormalizeIDs(a.ParticipantIDs)
	return a
}

// IsOwnedBy reports whether userID created the appointment.
func (a Appointment) IsOwnedBy(userID string) bool {
	return userID != "" && a.OwnerUserID == userID
}

// HasParticipant reports whether userID is in the participant set.
func (a Appointment) HasParticipant(userID string) bool {
	for _, id := range a.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// UnmarshalJSON reads startAt and endAt with or without a UTC offset. Values
// written without one decode as floating wall-clock readings.
func (a *Appointment) UnmarshalJSON(data []byte) error {
	type plain Appointment
	aux := struct {
		*plain
		StartAt wallclock.Timestamp `json:"startAt"`
		EndAt   wallclock.Timestamp `json:"endAt"`
	}{
		plain:   (*plain)(a),
		StartAt: wallclock.Timestamp{Time: a.StartAt},
		EndAt:   wallclock.Timestamp{Time: a.EndAt},
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.StartAt = aux.StartAt.Time
	a.EndAt = aux.EndAt.Time
	return nil
}

// Input captures caller provided fields for a new appointment.
type Input struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	Type           Type       `json:"type"`
	Visibility     Visibility `json:"visibility"`
	StartAt        time.Time  `json:"startAt"`
	EndAt          time.Time  `json:"endAt"`
	Color          string     `json:"color,omitempty"`
	ParticipantIDs []string   `json:"participantIds,omitempty"`
}

// Validate checks the non-temporal fields of a create request. Date windows
// are checked by the datewindow package.
func (in Input) Validate() *failure.ValidationError {
	vErr := &failure.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		vErr.Add("title", "title is required")
	}
	validateText(vErr, "description", in.Description)
	validateText(vErr, "notes", in.Notes)
	if in.Type != "" && !in.Type.Valid() {
		vErr.Add("type", "unknown appointment type")
	}
	if in.Visibility != "" && !in.Visibility.Valid() {
		vErr.Add("visibility", "unknown visibility")
	}
	if in.Color != "" && !ValidColor(in.Color) {
		vErr.Add("color", "color must be one of the palette swatches")
	}
	return vErr
}

// Build turns a validated input into an appointment owned by ownerID.
func (in Input) Build(id, ownerID, companyID string, now time.Time) Appointment {
	a := Appointment{
		ID:             id,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Location:       in.Location,
		Notes:          in.Notes,
		Type:           in.Type,
		Status:         InitialStatus(),
		Visibility:     in.Visibility,
		StartAt:        in.StartAt,
		EndAt:          in.EndAt,
		Color:          in.Color,
		OwnerUserID:    ownerID,
		CompanyID:      companyID,
		ParticipantIDs: in.ParticipantIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return a.Normalize()
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title          *string     `json:"title,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Location       *string     `json:"location,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
	Type           *Type       `json:"type,omitempty"`
	Status         *Status     `json:"status,omitempty"`
	Visibility     *Visibility `json:"visibility,omitempty"`
	StartAt        *time.Time  `json:"startAt,omitempty"`
	EndAt          *time.Time  `json:"endAt,omitempty"`
	Color          *string     `json:"color,omitempty"`
	ParticipantIDs *[]string   `json:"participantIds,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.Notes == nil &&
		p.Type == nil && p.Status == nil && p.Visibility == nil && p.StartAt == nil &&
		p.EndAt == nil && p.Color == nil && p.ParticipantIDs == nil
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() *failure.ValidationError {
	vErr := &failure.ValidationError{}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		vErr.Add("title", "title is required")
	}
	validateText(vErr, "description", p.Description)
	validateText(vErr, "notes", p.Notes)
	if p.Type != nil && !p.Type.Valid() {
		vErr.Add("type", "unknown appointment type")
	}
	if p.Status != nil && !p.Status.Valid() {
		vErr.Add("status", "unknown status")
	}
	if p.Visibility != nil && !p.Visibility.Valid() {
		vErr.Add("visibility", "unknown visibility")
	}
	if p.Color != nil && !ValidColor(*p.Color) {
		vErr.Add("color", "color must be one of the palette swatches")
	}
	return vErr
}

// Apply returns a copy of a with the patch applied.
func (p Patch) Apply(a Appointment, now time.Time) Appointment {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		a.Description = emptyToNil(*p.Description)
	}
	if p.Location != nil {
		a.Location = emptyToNil(*p.Location)
	}
	if p.Notes != nil {
		a.Notes = emptyToNil(*p.Notes)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Visibility != nil {
		a.Visibility = *p.Visibility
	}
	if p.StartAt != nil {
		a.StartAt = *p.StartAt
	}
	if p.EndAt != nil {
		a.EndAt = *p.EndAt
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.ParticipantIDs != nil {
		a.ParticipantIDs = append([]string(nil), (*p.ParticipantIDs)...)
	}
	a.UpdatedAt = now
	return a.Normalize()
}

// NormalizeIDs trims, deduplicates and sorts a set of member identifiers.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func validateText(vErr *failure.ValidationError, field string, value *string) {
	if value == nil {
		return
	}
	if utf8.RuneCountInString(*value) > MaxTextLength {
		vErr.Add(field, field+" must be at most 300 characters")
	}
}

func emptyToNil(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
