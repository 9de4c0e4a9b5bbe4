package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (s *Service) Create(ctx context.Context, clinicianID string, in CreateInput) (Client, error) {
	if strings.TrimSpace(clinicianID) == "" {
		return Client{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" {
		return Client{}, ErrInvalidInput
	}

	now := s.now()
	c := Client{
		ID:          uuid.NewString(),
		ClinicianID: clinicianID,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Client{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClinician(ctx context.Context, clinicianID string) ([]Client, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClinician(ctx, clinicianID)
}

type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Status    *Status
}

// Update aplica cambios parciales; solo el clínico dueño puede editar.
func (s *Service) Update(ctx context.Context, id, clinicianID string, in UpdateInput) (Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if c.ClinicianID != clinicianID {
		return Client{}, ErrForbidden
	}

	if in.FirstName != nil {
		c.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		c.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Status != nil {
		if *in.Status != StatusActive && *in.Status != StatusArchived {
			return Client{}, ErrInvalidInput
		}
		c.Status = *in.Status
	}

	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}
