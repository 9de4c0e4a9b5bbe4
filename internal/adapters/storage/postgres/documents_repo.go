package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"therapy-practice-manager/internal/domain/documents"
)

type DocumentsRepo struct {
	db *sql.DB
}

func NewDocumentsRepo(db *sql.DB) *DocumentsRepo {
	return &DocumentsRepo{db: db}
}

func (r *DocumentsRepo) Create(ctx context.Context, d documents.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, clinician_id, client_id,
			file_name, extracted_text, note_id,
			uploaded_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		d.ID,
		d.ClinicianID,
		nullIfEmpty(d.ClientID),
		d.FileName,
		d.ExtractedText,
		nullIfEmpty(d.NoteID),
		d.UploadedAt,
		d.UpdatedAt,
	)
	return err
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return documents.Document{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, clinician_id, client_id,
			file_name, extracted_text, note_id,
			uploaded_at, updated_at
		FROM documents
		WHERE id = $1
	`, id)

	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return documents.Document{}, ErrNotFound
		}
		return documents.Document{}, err
	}
	return d, nil
}

func (r *DocumentsRepo) ListByClient(ctx context.Context, clientID string) ([]documents.Document, error) {
	return r.list(ctx, `WHERE client_id = $1`, clientID)
}

func (r *DocumentsRepo) ListByClinician(ctx context.Context, clinicianID string) ([]documents.Document, error) {
	return r.list(ctx, `WHERE clinician_id = $1`, clinicianID)
}

func (r *DocumentsRepo) ListUnmatched(ctx context.Context, clinicianID string) ([]documents.Document, error) {
	return r.list(ctx, `WHERE clinician_id = $1 AND note_id IS NULL`, clinicianID)
}

func (r *DocumentsRepo) list(ctx context.Context, where string, arg any) ([]documents.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, clinician_id, client_id,
			file_name, extracted_text, note_id,
			uploaded_at, updated_at
		FROM documents
		`+where+`
		ORDER BY uploaded_at ASC, id ASC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentsRepo) Update(ctx context.Context, d documents.Document) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET
			client_id = $2,
			file_name = $3,
			extracted_text = $4,
			note_id = $5,
			updated_at = $6
		WHERE id = $1
	`,
		d.ID,
		nullIfEmpty(d.ClientID),
		d.FileName,
		d.ExtractedText,
		nullIfEmpty(d.NoteID),
		d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (documents.Document, error) {
	var d documents.Document
	var clientID, noteID sql.NullString
	if err := row.Scan(
		&d.ID,
		&d.ClinicianID,
		&clientID,
		&d.FileName,
		&d.ExtractedText,
		&noteID,
		&d.UploadedAt,
		&d.UpdatedAt,
	); err != nil {
		return documents.Document{}, err
	}
	d.ClientID = clientID.String
	d.NoteID = noteID.String
	return d, nil
}
