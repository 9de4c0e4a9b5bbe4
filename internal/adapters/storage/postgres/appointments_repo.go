package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"therapy-practice-manager/internal/domain/appointments"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (
			id, client_id, clinician_id,
			start_time, end_time,
			type, status, event_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		a.ID,
		a.ClientID,
		a.ClinicianID,
		a.StartTime,
		a.EndTime,
		a.Type,
		string(a.Status),
		nullIfEmpty(a.EventID),
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, client_id, clinician_id,
			start_time, end_time,
			type, status, event_id,
			created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appointments.Appointment{}, ErrNotFound
		}
		return appointments.Appointment{}, err
	}
	return a, nil
}

func (r *AppointmentsRepo) ListByClient(ctx context.Context, clientID string) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, client_id, clinician_id,
			start_time, end_time,
			type, status, event_id,
			created_at, updated_at
		FROM appointments
		WHERE client_id = $1
		ORDER BY start_time ASC, id ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *AppointmentsRepo) ListByClinician(ctx context.Context, clinicianID string, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	query := `
		SELECT
			id, client_id, clinician_id,
			start_time, end_time,
			type, status, event_id,
			created_at, updated_at
		FROM appointments
		WHERE clinician_id = $1
	`
	args := []any{clinicianID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND start_time >= $` + itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND start_time <= $` + itoa(len(args))
	}
	query += ` ORDER BY start_time ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET
			start_time = $2,
			end_time = $3,
			type = $4,
			status = $5,
			event_id = $6,
			updated_at = $7
		WHERE id = $1
	`,
		a.ID,
		a.StartTime,
		a.EndTime,
		a.Type,
		string(a.Status),
		nullIfEmpty(a.EventID),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectAppointments(rows *sql.Rows) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var status string
	var eventID sql.NullString
	if err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ClinicianID,
		&a.StartTime,
		&a.EndTime,
		&a.Type,
		&status,
		&eventID,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}
	a.Status = appointments.Status(status)
	a.EventID = eventID.String
	return a, nil
}
