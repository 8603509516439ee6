package persistence

import (
	"time"

	"github.com/example/company-calendar/internal/participants"
)

// Member is a company member as stored in the directory table.
type Member struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	Avatar    *string
	Phone     *string
	CreatedAt time.Time
}

// Directory converts the record into the member directory entry.
func (m Member) Directory() participants.Member {
	return participants.Member{
		ID:     m.ID,
		Name:   m.Name,
		Email:  m.Email,
		Avatar: m.Avatar,
		Phone:  m.Phone,
	}
}
