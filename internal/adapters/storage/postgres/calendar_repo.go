package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"therapy-practice-manager/internal/domain/calendar"
)

type CalendarRepo struct {
	db *sql.DB
}

func NewCalendarRepo(db *sql.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

func (r *CalendarRepo) Upsert(ctx context.Context, e calendar.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_events (
			id, clinician_id,
			summary, start_time, status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			summary = EXCLUDED.summary,
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`,
		e.ID,
		e.ClinicianID,
		e.Summary,
		e.StartTime,
		string(e.Status),
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *CalendarRepo) GetByID(ctx context.Context, id string) (calendar.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return calendar.Event{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, clinician_id,
			summary, start_time, status,
			created_at, updated_at
		FROM calendar_events
		WHERE id = $1
	`, id)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Event{}, ErrNotFound
		}
		return calendar.Event{}, err
	}
	return e, nil
}

func (r *CalendarRepo) ListByClinician(ctx context.Context, clinicianID string, filter calendar.ListFilter) ([]calendar.Event, error) {
	query := `
		SELECT
			id, clinician_id,
			summary, start_time, status,
			created_at, updated_at
		FROM calendar_events
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
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			args = append(args, string(st))
			placeholders = append(placeholders, "$"+itoa(len(args)))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY start_time ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]calendar.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (calendar.Event, error) {
	var e calendar.Event
	var status string
	if err := row.Scan(
		&e.ID,
		&e.ClinicianID,
		&e.Summary,
		&e.StartTime,
		&status,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return calendar.Event{}, err
	}
	e.Status = calendar.SyncStatus(status)
	return e, nil
}
