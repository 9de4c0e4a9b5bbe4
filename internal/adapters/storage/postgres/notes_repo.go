package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"therapy-practice-manager/internal/domain/notes"
)

type NotesRepo struct {
	db *sql.DB
}

func NewNotesRepo(db *sql.DB) *NotesRepo {
	return &NotesRepo{db: db}
}

func (r *NotesRepo) Create(ctx context.Context, n notes.Note) error {
	tags, err := json.Marshal(n.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO session_notes (
			id, client_id, clinician_id,
			appointment_id, event_id,
			content, session_date, tags,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		n.ID,
		n.ClientID,
		n.ClinicianID,
		nullIfEmpty(n.AppointmentID),
		nullIfEmpty(n.EventID),
		n.Content,
		n.SessionDate,
		tags,
		n.CreatedAt,
		n.UpdatedAt,
	)
	return err
}

func (r *NotesRepo) GetByID(ctx context.Context, id string) (notes.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return notes.Note{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, client_id, clinician_id,
			appointment_id, event_id,
			content, session_date, tags,
			created_at, updated_at
		FROM session_notes
		WHERE id = $1
	`, id)

	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notes.Note{}, ErrNotFound
		}
		return notes.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) ListByClient(ctx context.Context, clientID string) ([]notes.Note, error) {
	return r.list(ctx, `WHERE client_id = $1`, clientID)
}

func (r *NotesRepo) ListByClinician(ctx context.Context, clinicianID string) ([]notes.Note, error) {
	return r.list(ctx, `WHERE clinician_id = $1`, clinicianID)
}

func (r *NotesRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]notes.Note, error) {
	if strings.TrimSpace(appointmentID) == "" {
		return []notes.Note{}, nil
	}
	return r.list(ctx, `WHERE appointment_id = $1`, appointmentID)
}

func (r *NotesRepo) list(ctx context.Context, where string, arg any) ([]notes.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, client_id, clinician_id,
			appointment_id, event_id,
			content, session_date, tags,
			created_at, updated_at
		FROM session_notes
		`+where+`
		ORDER BY created_at ASC, id ASC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notes.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateLink escribe solo los campos de vínculo: appointment_id/event_id
// siempre (vacío desvincula), session_date solo si viene backfill.
func (r *NotesRepo) UpdateLink(ctx context.Context, id string, link notes.Link) error {
	var (
		res sql.Result
		err error
	)

	if link.SessionDate != nil {
		res, err = r.db.ExecContext(ctx, `
			UPDATE session_notes SET
				appointment_id = $2,
				event_id = $3,
				session_date = $4,
				updated_at = $5
			WHERE id = $1
		`, id, nullIfEmpty(link.AppointmentID), nullIfEmpty(link.EventID), *link.SessionDate, time.Now())
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE session_notes SET
				appointment_id = $2,
				event_id = $3,
				updated_at = $4
			WHERE id = $1
		`, id, nullIfEmpty(link.AppointmentID), nullIfEmpty(link.EventID), time.Now())
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotesRepo) Update(ctx context.Context, n notes.Note) error {
	tags, err := json.Marshal(n.Tags)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE session_notes SET
			content = $2,
			session_date = $3,
			tags = $4,
			updated_at = $5
		WHERE id = $1
	`,
		n.ID,
		n.Content,
		n.SessionDate,
		tags,
		n.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNote(row rowScanner) (notes.Note, error) {
	var n notes.Note
	var appointmentID, eventID sql.NullString
	var sessionDate sql.NullTime
	var tags []byte
	if err := row.Scan(
		&n.ID,
		&n.ClientID,
		&n.ClinicianID,
		&appointmentID,
		&eventID,
		&n.Content,
		&sessionDate,
		&tags,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return notes.Note{}, err
	}

	n.AppointmentID = appointmentID.String
	n.EventID = eventID.String
	if sessionDate.Valid {
		t := sessionDate.Time
		n.SessionDate = &t
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &n.Tags); err != nil {
			return notes.Note{}, err
		}
	}
	return n, nil
}
