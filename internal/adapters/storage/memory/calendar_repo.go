package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"therapy-practice-manager/internal/domain/calendar"
)

type calendarRepo struct {
	mu   sync.RWMutex
	byID map[string]calendar.Event
}

func NewCalendarRepo() calendar.Repository {
	return &calendarRepo{
		byID: make(map[string]calendar.Event),
	}
}

func (r *calendarRepo) Upsert(ctx context.Context, e calendar.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id required")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *calendarRepo) GetByID(ctx context.Context, id string) (calendar.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return calendar.Event{}, ErrNotFound
	}
	return e, nil
}

func (r *calendarRepo) ListByClinician(ctx context.Context, clinicianID string, filter calendar.ListFilter) ([]calendar.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]calendar.Event, 0)
	for _, e := range r.byID {
		if e.ClinicianID != clinicianID {
			continue
		}
		if filter.From != nil && e.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.StartTime.After(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 {
			ok := false
			for _, st := range filter.Statuses {
				if e.Status == st {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})

	return out, nil
}
