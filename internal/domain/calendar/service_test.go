package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"therapy-practice-manager/internal/domain/appointments"
)

type fakeEventRepo struct {
	byID map[string]Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]Event)}
}

func (r *fakeEventRepo) Upsert(_ context.Context, e Event) error {
	r.byID[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (Event, error) {
	e, ok := r.byID[id]
	if !ok {
		return Event{}, errors.New("not found")
	}
	return e, nil
}

func (r *fakeEventRepo) ListByClinician(_ context.Context, clinicianID string, _ ListFilter) ([]Event, error) {
	out := make([]Event, 0)
	for _, e := range r.byID {
		if e.ClinicianID == clinicianID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeApptRepo struct {
	appts []appointments.Appointment
}

func (r *fakeApptRepo) Create(_ context.Context, a appointments.Appointment) error {
	r.appts = append(r.appts, a)
	return nil
}

func (r *fakeApptRepo) GetByID(_ context.Context, id string) (appointments.Appointment, error) {
	for _, a := range r.appts {
		if a.ID == id {
			return a, nil
		}
	}
	return appointments.Appointment{}, errors.New("not found")
}

func (r *fakeApptRepo) ListByClient(_ context.Context, clientID string) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for _, a := range r.appts {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) ListByClinician(_ context.Context, clinicianID string, _ appointments.ListFilter) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for _, a := range r.appts {
		if a.ClinicianID == clinicianID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) Update(_ context.Context, a appointments.Appointment) error {
	for i := range r.appts {
		if r.appts[i].ID == a.ID {
			r.appts[i] = a
			return nil
		}
	}
	return errors.New("not found")
}

func TestSyncStatusTransitions(t *testing.T) {
	repo := newFakeEventRepo()
	appts := &fakeApptRepo{}
	svc := NewService(repo, appts)
	fixed := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	_ = appts.Create(ctx, appointments.Appointment{
		ID: "a1", ClientID: "c-1", ClinicianID: "dr-1", EventID: "ev-ref",
	})

	start := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	inputs := []EventInput{
		{ID: "ev-ref", Summary: "Session", StartTime: start},
		{ID: "ev-new", Summary: "Mystery", StartTime: start},
	}

	out, err := svc.Sync(ctx, "dr-1", inputs)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 events, got %d", len(out))
	}
	if out[0].Status != StatusMatched {
		t.Fatalf("referenced event status = %s, want matched", out[0].Status)
	}
	if out[1].Status != StatusPending {
		t.Fatalf("new event status = %s, want pending", out[1].Status)
	}

	// Segunda pasada: el que seguía pending sin cita baja a unmatched,
	// el referenciado se queda en matched.
	out, err = svc.Sync(ctx, "dr-1", inputs)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if out[0].Status != StatusMatched {
		t.Fatalf("referenced event status = %s, want matched", out[0].Status)
	}
	if out[1].Status != StatusUnmatched {
		t.Fatalf("stale event status = %s, want unmatched", out[1].Status)
	}
}

func TestSyncSkipsEmptyIDs(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewService(repo, &fakeApptRepo{})

	out, err := svc.Sync(context.Background(), "dr-1", []EventInput{
		{ID: "  ", Summary: "ghost"},
		{ID: "ev-1", Summary: "real"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(out) != 1 || out[0].ID != "ev-1" {
		t.Fatalf("out = %+v", out)
	}
}

func TestSyncRequiresClinician(t *testing.T) {
	svc := NewService(newFakeEventRepo(), &fakeApptRepo{})
	if _, err := svc.Sync(context.Background(), " ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSyncPreservesCreatedAt(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewService(repo, &fakeApptRepo{})
	first := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	ctx := context.Background()

	if _, err := svc.Sync(ctx, "dr-1", []EventInput{{ID: "ev-1", Summary: "s"}}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	second := first.Add(24 * time.Hour)
	svc.now = func() time.Time { return second }
	out, err := svc.Sync(ctx, "dr-1", []EventInput{{ID: "ev-1", Summary: "s"}})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !out[0].CreatedAt.Equal(first) {
		t.Fatalf("created_at = %v, want preserved %v", out[0].CreatedAt, first)
	}
	if !out[0].UpdatedAt.Equal(second) {
		t.Fatalf("updated_at = %v, want %v", out[0].UpdatedAt, second)
	}
}
