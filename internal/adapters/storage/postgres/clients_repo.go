package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"therapy-practice-manager/internal/domain/clients"
)

type ClientsRepo struct {
	db *sql.DB
}

func NewClientsRepo(db *sql.DB) *ClientsRepo {
	return &ClientsRepo{db: db}
}

func (r *ClientsRepo) Create(ctx context.Context, c clients.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (
			id, clinician_id,
			first_name, last_name, email, phone,
			status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		c.ID,
		c.ClinicianID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *ClientsRepo) GetByID(ctx context.Context, id string) (clients.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return clients.Client{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, clinician_id,
			first_name, last_name, email, phone,
			status,
			created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)

	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clients.Client{}, ErrNotFound
		}
		return clients.Client{}, err
	}
	return c, nil
}

func (r *ClientsRepo) ListByClinician(ctx context.Context, clinicianID string) ([]clients.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, clinician_id,
			first_name, last_name, email, phone,
			status,
			created_at, updated_at
		FROM clients
		WHERE clinician_id = $1
		ORDER BY created_at ASC, id ASC
	`, clinicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]clients.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientsRepo) Update(ctx context.Context, c clients.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients SET
			first_name = $2,
			last_name = $3,
			email = $4,
			phone = $5,
			status = $6,
			updated_at = $7
		WHERE id = $1
	`,
		c.ID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		string(c.Status),
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (clients.Client, error) {
	var c clients.Client
	var status string
	if err := row.Scan(
		&c.ID,
		&c.ClinicianID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return clients.Client{}, err
	}
	c.Status = clients.Status(status)
	return c, nil
}
