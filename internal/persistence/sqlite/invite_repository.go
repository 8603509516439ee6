package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/persistence"
)

// InviteRepository implements persistence.InviteRepository.
type InviteRepository struct {
	pool *ConnectionPool
}

// NewInviteRepository creates a repository over pool.
func NewInviteRepository(pool *ConnectionPool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

// The appointment summary comes from a LEFT JOIN so invites of deleted
// appointments still list, with whatever the row last held.
const inviteSelect = `
	SELECT i.id, i.appointment_id, i.inviter_user_id, i.invited_user_id, i.company_id, i.status,
	       i.message, i.response_message, i.responded_at, i.created_at, i.updated_at,
	       a.title, a.start_at, a.end_at, a.location, a.color, a.type
	FROM appointment_invites i
	LEFT JOIN appointments a ON a.id = i.appointment_id`

// CreateInvite inserts a new invite. A second active invite for the same
// appointment and invitee fails with persistence.ErrDuplicate.
func (r *InviteRepository) CreateInvite(ctx context.Context, inv invite.Invite) error {
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO appointment_invites (id, appointment_id, inviter_user_id, invited_user_id, company_id, status,
		                                 message, response_message, responded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.AppointmentID, inv.InviterUserID, inv.InvitedUserID, inv.CompanyID, string(inv.Status),
		nullString(inv.Message), nullString(inv.ResponseMessage), nullTime(inv.RespondedAt),
		formatTime(inv.CreatedAt), formatTime(inv.UpdatedAt),
	)
	return mapError(err)
}

// TransitionInvite moves a pending invite to inv.Status. The status guard
// makes concurrent transitions race on the row: the loser sees
// persistence.ErrStale. Accepting also joins the invitee to the appointment
// within the same transaction.
func (r *InviteRepository) TransitionInvite(ctx context.Context, inv invite.Invite) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE appointment_invites
			SET status = ?, response_message = ?, responded_at = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			string(inv.Status), nullString(inv.ResponseMessage), nullTime(inv.RespondedAt), formatTime(inv.UpdatedAt),
			inv.ID, string(invite.StatusPending),
		)
		if err != nil {
			return mapError(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			var status string
			if err := tx.QueryRowContext(ctx, `SELECT status FROM appointment_invites WHERE id = ?`, inv.ID).Scan(&status); err != nil {
				return mapError(err)
			}
			return persistence.ErrStale
		}

		if inv.Status != invite.StatusAccepted {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO appointment_participants (appointment_id, user_id) VALUES (?, ?)`,
			inv.AppointmentID, inv.InvitedUserID); err != nil {
			return mapError(err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE appointments SET updated_at = ? WHERE id = ?`, formatTime(inv.UpdatedAt), inv.AppointmentID)
		return mapError(err)
	})
}

// GetInvite loads one invite with its appointment summary.
func (r *InviteRepository) GetInvite(ctx context.Context, id string) (invite.Invite, error) {
	row := r.pool.DB().QueryRowContext(ctx, inviteSelect+` WHERE i.id = ?`, id)
	inv, err := scanInvite(row)
	if err != nil {
		return invite.Invite{}, mapError(err)
	}
	return inv, nil
}

// ListInvites returns invites matching filter, newest first.
func (r *InviteRepository) ListInvites(ctx context.Context, filter persistence.InviteFilter) ([]invite.Invite, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause, value string) {
		if value != "" {
			clauses = append(clauses, clause)
			args = append(args, value)
		}
	}
	add("i.company_id = ?", filter.CompanyID)
	add("i.appointment_id = ?", filter.AppointmentID)
	add("i.invited_user_id = ?", filter.InvitedUserID)
	add("i.inviter_user_id = ?", filter.InviterUserID)
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "i.status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}

	query := inviteSelect
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY i.created_at DESC, i.id`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list := []invite.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, mapError(rows.Err())
}

func scanInvite(row rowScanner) (invite.Invite, error) {
	var (
		inv                                   invite.Invite
		status, created, updated              string
		message, responseMessage, respondedAt sql.NullString
		title, startAt, endAt                 sql.NullString
		location, color, kind                 sql.NullString
	)
	if err := row.Scan(&inv.ID, &inv.AppointmentID, &inv.InviterUserID, &inv.InvitedUserID, &inv.CompanyID, &status,
		&message, &responseMessage, &respondedAt, &created, &updated,
		&title, &startAt, &endAt, &location, &color, &kind); err != nil {
		return invite.Invite{}, err
	}
	inv.Status = invite.Status(status)
	inv.Message = stringPtr(message)
	inv.ResponseMessage = stringPtr(responseMessage)

	var err error
	if inv.RespondedAt, err = timePtr(respondedAt); err != nil {
		return invite.Invite{}, err
	}
	if inv.CreatedAt, err = parseTime(created); err != nil {
		return invite.Invite{}, err
	}
	if inv.UpdatedAt, err = parseTime(updated); err != nil {
		return invite.Invite{}, err
	}

	if title.Valid {
		summary := &invite.Summary{
			ID:       inv.AppointmentID,
			Title:    title.String,
			Location: stringPtr(location),
			Color:    color.String,
			Type:     appointment.Type(kind.String),
		}
		if summary.StartAt, err = parseTime(startAt.String); err != nil {
			return invite.Invite{}, err
		}
		if summary.EndAt, err = parseTime(endAt.String); err != nil {
			return invite.Invite{}, err
		}
		inv.Appointment = summary
	}
	return inv.Normalize(), nil
}
