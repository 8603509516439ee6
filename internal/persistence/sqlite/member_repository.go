package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/company-calendar/internal/persistence"
)

// MemberRepository implements persistence.MemberRepository.
type MemberRepository struct {
	pool *ConnectionPool
}

// NewMemberRepository creates a repository over pool.
func NewMemberRepository(pool *ConnectionPool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// UpsertMember inserts m or refreshes its directory fields. CreatedAt is
// kept from the first insert.
func (r *MemberRepository) UpsertMember(ctx context.Context, m persistence.Member) error {
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO members (id, company_id, name, email, avatar, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			email = excluded.email,
			avatar = excluded.avatar,
			phone = excluded.phone`,
		m.ID, m.CompanyID, m.Name, m.Email, nullString(m.Avatar), nullString(m.Phone), formatTime(m.CreatedAt),
	)
	return mapError(err)
}

// GetMember loads one member.
func (r *MemberRepository) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT id, company_id, name, email, avatar, phone, created_at FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err != nil {
		return persistence.Member{}, mapError(err)
	}
	return m, nil
}

// ListMembers returns the company roster ordered by name.
func (r *MemberRepository) ListMembers(ctx context.Context, companyID string) ([]persistence.Member, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, company_id, name, email, avatar, phone, created_at FROM members WHERE company_id = ? ORDER BY name, id`, companyID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	members := []persistence.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, mapError(rows.Err())
}

func scanMember(row rowScanner) (persistence.Member, error) {
	var (
		m             persistence.Member
		avatar, phone sql.NullString
		created       string
	)
	if err := row.Scan(&m.ID, &m.CompanyID, &m.Name, &m.Email, &avatar, &phone, &created); err != nil {
		return persistence.Member{}, err
	}
	m.Avatar = stringPtr(avatar)
	m.Phone = stringPtr(phone)
	t, err := parseTime(created)
	if err != nil {
		return persistence.Member{}, err
	}
	m.CreatedAt = t
	return m, nil
}
