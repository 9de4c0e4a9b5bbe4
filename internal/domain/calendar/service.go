package calendar

import (
	"context"
	"errors"
	"strings"
	"time"

	"therapy-practice-manager/internal/domain/appointments"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo  Repository
	appts appointments.Repository
	now   func() time.Time
}

func NewService(repo Repository, appts appointments.Repository) *Service {
	return &Service{
		repo:  repo,
		appts: appts,
		now:   time.Now,
	}
}

type EventInput struct {
	ID        string
	Summary   string
	StartTime time.Time
}

// Sync inserta/actualiza el lote de eventos del calendario externo y recalcula
// el estado de conciliación contra las citas del clínico:
// - matched: alguna cita referencia el evento
// - pending: evento nuevo sin cita todavía
// - unmatched: el evento ya estaba pending y otra pasada lo encontró sin cita
func (s *Service) Sync(ctx context.Context, clinicianID string, inputs []EventInput) ([]Event, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}

	appts, err := s.appts.ListByClinician(ctx, clinicianID, appointments.ListFilter{})
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(appts))
	for _, a := range appts {
		if a.EventID != "" {
			referenced[a.EventID] = true
		}
	}

	now := s.now()
	out := make([]Event, 0, len(inputs))

	for _, in := range inputs {
		id := strings.TrimSpace(in.ID)
		if id == "" {
			continue
		}

		e := Event{
			ID:          id,
			ClinicianID: clinicianID,
			Summary:     strings.TrimSpace(in.Summary),
			StartTime:   in.StartTime,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		prev, err := s.repo.GetByID(ctx, id)
		known := err == nil
		if known {
			e.CreatedAt = prev.CreatedAt
		}

		switch {
		case referenced[id]:
			e.Status = StatusMatched
		case known && prev.Status != StatusMatched:
			e.Status = StatusUnmatched
		default:
			e.Status = StatusPending
		}

		if err := s.repo.Upsert(ctx, e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, nil
}

func (s *Service) List(ctx context.Context, clinicianID string, filter ListFilter) ([]Event, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClinician(ctx, clinicianID, filter)
}
