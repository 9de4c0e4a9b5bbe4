package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
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
	StartTime time.Time
	EndTime   *time.Time
	Type      string
	EventID   string
}

func (s *Service) Create(ctx context.Context, clientID, clinicianID string, in CreateInput) (Appointment, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clinicianID) == "" {
		return Appointment{}, ErrInvalidInput
	}
	if in.StartTime.IsZero() {
		return Appointment{}, ErrInvalidInput
	}

	now := s.now()
	a := Appointment{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		ClinicianID: clinicianID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Type:        strings.TrimSpace(in.Type),
		Status:      StatusScheduled,
		EventID:     strings.TrimSpace(in.EventID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Appointment, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) ListByClinician(ctx context.Context, clinicianID string, filter ListFilter) ([]Appointment, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClinician(ctx, clinicianID, filter)
}

// UpdateStatus marca la cita como completed/cancelled/no_show.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Appointment, error) {
	switch status {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
	default:
		return Appointment{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	a.Status = status
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}
