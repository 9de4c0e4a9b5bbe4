package notes

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// fakeRepo guarda notas en un mapa, suficiente para probar el service.
type fakeRepo struct {
	byID map[string]Note
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]Note)}
}

func (r *fakeRepo) Create(_ context.Context, n Note) error {
	r.byID[n.ID] = n
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (Note, error) {
	n, ok := r.byID[id]
	if !ok {
		return Note{}, errors.New("not found")
	}
	return n, nil
}

func (r *fakeRepo) ListByClient(_ context.Context, clientID string) ([]Note, error) {
	out := make([]Note, 0)
	for _, n := range r.byID {
		if n.ClientID == clientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByClinician(_ context.Context, clinicianID string) ([]Note, error) {
	out := make([]Note, 0)
	for _, n := range r.byID {
		if n.ClinicianID == clinicianID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByAppointment(_ context.Context, appointmentID string) ([]Note, error) {
	out := make([]Note, 0)
	for _, n := range r.byID {
		if n.AppointmentID == appointmentID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateLink(_ context.Context, id string, link Link) error {
	n, ok := r.byID[id]
	if !ok {
		return errors.New("not found")
	}
	n.AppointmentID = link.AppointmentID
	n.EventID = link.EventID
	if link.SessionDate != nil {
		n.SessionDate = link.SessionDate
	}
	r.byID[id] = n
	return nil
}

func (r *fakeRepo) Update(_ context.Context, n Note) error {
	if _, ok := r.byID[n.ID]; !ok {
		return errors.New("not found")
	}
	r.byID[n.ID] = n
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc
}

func TestCreateDerivesTagsWhenNoneGiven(t *testing.T) {
	svc := newTestService(newFakeRepo())

	n, err := svc.Create(context.Background(), "c-1", "dr-1", CreateInput{
		Content: "anxiety anxiety grief",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := []string{"anxiety", "grief"}
	if !reflect.DeepEqual(n.Tags, want) {
		t.Fatalf("tags = %v, want %v", n.Tags, want)
	}
}

func TestCreateKeepsCallerTags(t *testing.T) {
	svc := newTestService(newFakeRepo())

	n, err := svc.Create(context.Background(), "c-1", "dr-1", CreateInput{
		Content: "anxiety anxiety grief",
		Tags:    []string{"custom"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !reflect.DeepEqual(n.Tags, []string{"custom"}) {
		t.Fatalf("tags = %v, want caller's", n.Tags)
	}
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	svc := newTestService(newFakeRepo())

	if _, err := svc.Create(context.Background(), "c-1", "dr-1", CreateInput{Content: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(context.Background(), "", "dr-1", CreateInput{Content: "ok content"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateRederivesTagsOnContentChange(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, "c-1", "dr-1", CreateInput{Content: "grief grief"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	content := "panic panic attacks"
	updated, err := svc.Update(ctx, n.ID, "dr-1", UpdateInput{Content: &content})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []string{"panic", "attacks"}
	if !reflect.DeepEqual(updated.Tags, want) {
		t.Fatalf("tags = %v, want %v", updated.Tags, want)
	}
}

func TestUpdateForbiddenForOtherClinician(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, "c-1", "dr-1", CreateInput{Content: "grief grief"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	content := "other"
	if _, err := svc.Update(ctx, n.ID, "dr-2", UpdateInput{Content: &content}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestEffectiveDate(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sd := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)

	n := Note{SessionDate: &sd, CreatedAt: created}
	if got, ok := n.EffectiveDate(); !ok || !got.Equal(sd) {
		t.Fatalf("session date should win, got %v ok=%v", got, ok)
	}

	n = Note{CreatedAt: created}
	if got, ok := n.EffectiveDate(); !ok || !got.Equal(created) {
		t.Fatalf("created_at should be the fallback, got %v ok=%v", got, ok)
	}

	n = Note{}
	if _, ok := n.EffectiveDate(); ok {
		t.Fatal("note without dates must report ok=false")
	}
}
