package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository.
type AppointmentRepository struct {
	pool *ConnectionPool
}

// NewAppointmentRepository creates a repository over pool.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `id, company_id, owner_user_id, title, description, location, notes, type, status, visibility, start_at, end_at, color, created_at, updated_at`

// CreateAppointment inserts a and its participants.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, a appointment.Appointment) error {
	if a.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`, start_utc, end_utc)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.CompanyID, a.OwnerUserID, a.Title,
			nullString(a.Description), nullString(a.Location), nullString(a.Notes),
			string(a.Type), string(a.Status), string(a.Visibility),
			formatTime(a.StartAt), formatTime(a.EndAt), a.Color,
			formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
			formatUTC(a.StartAt), formatUTC(a.EndAt),
		)
		if err != nil {
			return mapError(err)
		}
		return insertParticipants(ctx, tx, a.ID, a.ParticipantIDs)
	})
}

// UpdateAppointment replaces the mutable fields and the participant set.
// Owner and company never change.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, a appointment.Appointment) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET title = ?, description = ?, location = ?, notes = ?, type = ?, status = ?, visibility = ?,
			    start_at = ?, end_at = ?, start_utc = ?, end_utc = ?, color = ?, updated_at = ?
			WHERE id = ? AND deleted_at IS NULL`,
			a.Title, nullString(a.Description), nullString(a.Location), nullString(a.Notes),
			string(a.Type), string(a.Status), string(a.Visibility),
			formatTime(a.StartAt), formatTime(a.EndAt), formatUTC(a.StartAt), formatUTC(a.EndAt),
			a.Color, formatTime(a.UpdatedAt), a.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_participants WHERE appointment_id = ?`, a.ID); err != nil {
			return mapError(err)
		}
		return insertParticipants(ctx, tx, a.ID, a.ParticipantIDs)
	})
}

// GetAppointment loads one live appointment.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (appointment.Appointment, error) {
	if id == "" {
		return appointment.Appointment{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ? AND deleted_at IS NULL`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return appointment.Appointment{}, mapError(err)
	}

	participants, err := r.participantsFor(ctx, []string{a.ID})
	if err != nil {
		return appointment.Appointment{}, err
	}
	a.ParticipantIDs = appointment.NormalizeIDs(participants[a.ID])
	return a, nil
}

// ListAppointments returns live appointments matching filter, ordered by
// start instant then id.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]appointment.Appointment, error) {
	var (
		clauses = []string{"deleted_at IS NULL"}
		args    []any
	)
	if filter.CompanyID != "" {
		clauses = append(clauses, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if filter.ParticipantID != "" {
		clauses = append(clauses, "(owner_user_id = ? OR id IN (SELECT appointment_id FROM appointment_participants WHERE user_id = ?))")
		args = append(args, filter.ParticipantID, filter.ParticipantID)
	}
	if filter.StartsAfter != nil {
		clauses = append(clauses, "end_utc > ?")
		args = append(args, formatUTC(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		clauses = append(clauses, "start_utc < ?")
		args = append(args, formatUTC(*filter.EndsBefore))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY start_utc, id`
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	var list []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapError(err)
	}
	rows.Close()

	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	participants, err := r.participantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].ParticipantIDs = appointment.NormalizeIDs(participants[list[i].ID])
	}
	return list, nil
}

// DeleteAppointment soft-deletes the appointment and cancels its active
// invites in the same transaction.
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string, at time.Time) (int, error) {
	var cancelled int64
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE appointments SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
			formatTime(at), formatTime(at), id)
		if err != nil {
			return mapError(err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return persistence.ErrNotFound
		}

		result, err = tx.ExecContext(ctx, `UPDATE appointment_invites SET status = ?, updated_at = ? WHERE appointment_id = ? AND status = ?`,
			string(invite.StatusCancelled), formatTime(at), id, string(invite.StatusPending))
		if err != nil {
			return mapError(err)
		}
		cancelled, err = result.RowsAffected()
		return err
	})
	return int(cancelled), err
}

func (r *AppointmentRepository) participantsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT appointment_id, user_id FROM appointment_participants WHERE appointment_id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var appointmentID, userID string
		if err := rows.Scan(&appointmentID, &userID); err != nil {
			return nil, err
		}
		out[appointmentID] = append(out[appointmentID], userID)
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out, mapError(rows.Err())
}

func insertParticipants(ctx context.Context, tx *sql.Tx, appointmentID string, userIDs []string) error {
	for _, userID := range appointment.NormalizeIDs(userIDs) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO appointment_participants (appointment_id, user_id) VALUES (?, ?)`, appointmentID, userID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (appointment.Appointment, error) {
	var (
		a                               appointment.Appointment
		description, location, notes    sql.NullString
		kind, status, visibility        string
		startAt, endAt, created, update string
	)
	if err := row.Scan(&a.ID, &a.CompanyID, &a.OwnerUserID, &a.Title, &description, &location, &notes,
		&kind, &status, &visibility, &startAt, &endAt, &a.Color, &created, &update); err != nil {
		return appointment.Appointment{}, err
	}
	a.Description = stringPtr(description)
	a.Location = stringPtr(location)
	a.Notes = stringPtr(notes)
	a.Type = appointment.Type(kind)
	a.Status = appointment.Status(status)
	a.Visibility = appointment.Visibility(visibility)

	var err error
	if a.StartAt, err = parseTime(startAt); err != nil {
		return appointment.Appointment{}, err
	}
	if a.EndAt, err = parseTime(endAt); err != nil {
		return appointment.Appointment{}, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return appointment.Appointment{}, err
	}
	if a.UpdatedAt, err = parseTime(update); err != nil {
		return appointment.Appointment{}, err
	}
	a.ParticipantIDs = []string{}
	return a, nil
}
