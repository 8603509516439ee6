package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/company-calendar/internal/participants"
	"github.com/example/company-calendar/internal/persistence"
)

// MemberService exposes the company member directory.
type MemberService struct {
	members persistence.MemberRepository
	now     func() time.Time
	logger  *slog.Logger
}

// NewMemberService wires the member repository.
func NewMemberService(members persistence.MemberRepository, now func() time.Time, logger *slog.Logger) *MemberService {
	if now == nil {
		now = time.Now
	}
	return &MemberService{members: members, now: now, logger: defaultLogger(logger)}
}

// ListMembers returns the principal's company roster ordered by name.
func (s *MemberService) ListMembers(ctx context.Context, principal Principal) ([]participants.Member, error) {
	if s == nil || s.members == nil {
		return nil, fmt.Errorf("member service not configured")
	}
	if !principal.Valid() {
		return nil, ErrUnauthorized
	}
	records, err := s.members.ListMembers(ctx, principal.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	roster := make([]participants.Member, len(records))
	for i, m := range records {
		roster[i] = m.Directory()
	}
	return roster, nil
}

// RegisterMember adds or refreshes a directory entry. It backs the
// administrative CLI, so no principal is involved.
func (s *MemberService) RegisterMember(ctx context.Context, m persistence.Member) (persistence.Member, error) {
	if s == nil || s.members == nil {
		return persistence.Member{}, fmt.Errorf("member service not configured")
	}
	m.ID = strings.TrimSpace(m.ID)
	m.CompanyID = strings.TrimSpace(m.CompanyID)
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)

	vErr := &ValidationError{}
	if m.ID == "" {
		vErr.Add("id", "id is required")
	}
	if m.CompanyID == "" {
		vErr.Add("companyId", "company id is required")
	}
	if m.Name == "" {
		vErr.Add("name", "name is required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		vErr.Add("email", "email is invalid")
	}
	if vErr.HasErrors() {
		return persistence.Member{}, vErr
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	if err := s.members.UpsertMember(ctx, m); err != nil {
		return persistence.Member{}, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "MemberService", "RegisterMember", "member_id", m.ID, "company_id", m.CompanyID).
		InfoContext(ctx, "member registered")
	return m, nil
}
