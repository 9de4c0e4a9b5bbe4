package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"therapy-practice-manager/internal/domain/appointments"
)

type appointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
}

func NewAppointmentRepo() appointments.Repository {
	return &appointmentRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("appointment already exists")
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *appointmentRepo) ListByClient(ctx context.Context, clientID string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}

	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) ListByClinician(ctx context.Context, clinicianID string, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.ClinicianID != clinicianID {
			continue
		}
		if filter.From != nil && a.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.StartTime.After(*filter.To) {
			continue
		}
		out = append(out, a)
	}

	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; !exists {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

// Orden estable por start_time asc; el matcher depende de un barrido
// determinista para resolver empates.
func sortAppointments(out []appointments.Appointment) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
}
