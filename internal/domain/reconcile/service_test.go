package reconcile_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"therapy-practice-manager/internal/adapters/storage/memory"
	"therapy-practice-manager/internal/domain/appointments"
	"therapy-practice-manager/internal/domain/notes"
	"therapy-practice-manager/internal/domain/reconcile"
)

const (
	clientID    = "c-1"
	clinicianID = "dr-1"
)

func newFixture(t *testing.T) (*reconcile.Service, notes.Repository, appointments.Repository) {
	t.Helper()
	noteRepo := memory.NewNoteRepo()
	apptRepo := memory.NewAppointmentRepo()
	return reconcile.NewService(noteRepo, apptRepo), noteRepo, apptRepo
}

func mustCreateAppt(t *testing.T, repo appointments.Repository, id string, start time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), appointments.Appointment{
		ID:          id,
		ClientID:    clientID,
		ClinicianID: clinicianID,
		StartTime:   start,
		Type:        "individual",
		Status:      appointments.StatusScheduled,
		CreatedAt:   start,
	})
	if err != nil {
		t.Fatalf("create appointment %s: %v", id, err)
	}
}

func mustCreateNote(t *testing.T, repo notes.Repository, n notes.Note) {
	t.Helper()
	if n.ClientID == "" {
		n.ClientID = clientID
	}
	if n.ClinicianID == "" {
		n.ClinicianID = clinicianID
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("create note %s: %v", n.ID, err)
	}
}

func TestReconcileAutoLinksWithinThreshold(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	sd := start.Add(45 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{
		ID: "n1", Content: "seguimiento", SessionDate: &sd, CreatedAt: sd,
	})

	res, err := svc.ReconcileClient(ctx, clientID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.LinkedCount != 1 || res.TotalUnlinked != 1 {
		t.Fatalf("got linked=%d unlinked=%d, want 1/1", res.LinkedCount, res.TotalUnlinked)
	}
	if len(res.LinkedNoteIDs) != 1 || res.LinkedNoteIDs[0] != "n1" {
		t.Fatalf("linked ids = %v", res.LinkedNoteIDs)
	}
	if len(res.Suggestions) != 0 {
		t.Fatalf("unexpected suggestions: %v", res.Suggestions)
	}

	n, err := noteRepo.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if n.AppointmentID != "a1" {
		t.Fatalf("note not linked, appointment_id=%q", n.AppointmentID)
	}
}

func TestReconcileBackfillsSessionDate(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	// Nota sin SessionDate: la fecha efectiva cae en CreatedAt.
	mustCreateNote(t, noteRepo, notes.Note{
		ID: "n1", Content: "imported", CreatedAt: start.Add(30 * time.Minute),
	})

	if _, err := svc.ReconcileClient(ctx, clientID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	n, _ := noteRepo.GetByID(ctx, "n1")
	if n.SessionDate == nil || !n.SessionDate.Equal(start) {
		t.Fatalf("session date not backfilled from appointment, got %v", n.SessionDate)
	}
}

func TestReconcileSuggestsOutsideAutoRange(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	sd := start.Add(300 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	res, err := svc.ReconcileClient(ctx, clientID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.LinkedCount != 0 {
		t.Fatalf("300 min gap should not auto-link")
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("want 1 suggestion, got %d", len(res.Suggestions))
	}
	s := res.Suggestions[0]
	if s.AppointmentID != "a1" || s.Confidence != 0.60 {
		t.Fatalf("suggestion = %+v, want a1 @ 0.60", s)
	}
	if !strings.Contains(s.Reason, "300 minutes away") {
		t.Fatalf("reason = %q", s.Reason)
	}

	n, _ := noteRepo.GetByID(ctx, "n1")
	if n.Linked() {
		t.Fatal("suggestion must not persist a link")
	}
}

func TestReconcileIgnoresBeyondSuggestionThreshold(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	sd := start.Add(50 * time.Hour)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	res, err := svc.ReconcileClient(context.Background(), clientID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.LinkedCount != 0 || len(res.Suggestions) != 0 {
		t.Fatalf("beyond 1440 min nothing should happen, got %+v", res)
	}
	if res.TotalUnlinked != 1 {
		t.Fatalf("total unlinked = %d, want 1", res.TotalUnlinked)
	}
}

func TestReconcileConflictBecomesSuggestion(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	// n1 ya está vinculada a a1; n2 cae cerca de la misma cita.
	sd1 := start.Add(10 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{
		ID: "n1", AppointmentID: "a1", SessionDate: &sd1, CreatedAt: sd1,
	})
	sd2 := start.Add(20 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n2", SessionDate: &sd2, CreatedAt: sd2})

	res, err := svc.ReconcileClient(ctx, clientID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.LinkedCount != 0 {
		t.Fatal("claimed appointment must never auto-link again")
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("want 1 suggestion, got %d", len(res.Suggestions))
	}
	s := res.Suggestions[0]
	if s.NoteID != "n2" || s.AppointmentID != "a1" {
		t.Fatalf("suggestion = %+v", s)
	}
	if !strings.Contains(s.Reason, "already linked to note n1") {
		t.Fatalf("reason = %q", s.Reason)
	}
	if len(s.Factors) != 2 || s.Factors[0] != reconcile.FactorDateProximity || s.Factors[1] != reconcile.FactorConflict {
		t.Fatalf("factors = %v", s.Factors)
	}
	// La confianza se calcula igual aunque haya conflicto.
	if s.Confidence != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", s.Confidence)
	}
}

func TestReconcileClaimsWithinSameRun(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	// Dos notas sueltas cerca de la misma cita: la primera (por created_at)
	// la reclama, la segunda queda en conflicto.
	sd1 := start.Add(10 * time.Minute)
	sd2 := start.Add(20 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd1, CreatedAt: sd1})
	mustCreateNote(t, noteRepo, notes.Note{ID: "n2", SessionDate: &sd2, CreatedAt: sd2})

	res, err := svc.ReconcileClient(ctx, clientID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.LinkedCount != 1 || res.LinkedNoteIDs[0] != "n1" {
		t.Fatalf("want only n1 linked, got %+v", res)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].NoteID != "n2" {
		t.Fatalf("want conflict suggestion for n2, got %+v", res.Suggestions)
	}
}

func TestReconcileMissingTimestampSuggestion(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)

	mustCreateAppt(t, apptRepo, "a1", time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1"}) // sin fecha alguna

	res, err := svc.ReconcileClient(context.Background(), clientID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.LinkedCount != 0 {
		t.Fatal("note without timestamp must not link")
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("want 1 suggestion, got %d", len(res.Suggestions))
	}
	s := res.Suggestions[0]
	if s.Confidence != 0 || s.AppointmentID != "" {
		t.Fatalf("suggestion = %+v", s)
	}
	if len(s.Factors) != 1 || s.Factors[0] != reconcile.FactorMissingTimestamp {
		t.Fatalf("factors = %v", s.Factors)
	}
}

func TestReconcileSecondRunIsNoop(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	sd := start.Add(time.Hour)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	if _, err := svc.ReconcileClient(ctx, clientID); err != nil {
		t.Fatalf("first run: %v", err)
	}

	res, err := svc.ReconcileClient(ctx, clientID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.LinkedCount != 0 || res.TotalUnlinked != 0 || len(res.Suggestions) != 0 {
		t.Fatalf("second run should be a no-op, got %+v", res)
	}
}

func TestReconcileEmptyClientID(t *testing.T) {
	svc, _, _ := newFixture(t)
	if _, err := svc.ReconcileClient(context.Background(), "  "); !errors.Is(err, reconcile.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSuggestForNote(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	sd := start.Add(45 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	s, err := svc.SuggestForNote(ctx, "n1")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if s == nil {
		t.Fatal("expected a suggestion")
	}
	// El camino de solo-sugerencia nunca aplica el vínculo, aunque el rango
	// sea de auto-link.
	if s.AppointmentID != "a1" || s.Confidence != 0.95 {
		t.Fatalf("suggestion = %+v", s)
	}
	n, _ := noteRepo.GetByID(ctx, "n1")
	if n.Linked() {
		t.Fatal("SuggestForNote must not persist")
	}
}

func TestSuggestForNoteAlreadyLinked(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", AppointmentID: "a1", CreatedAt: start})

	s, err := svc.SuggestForNote(ctx, "n1")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if s != nil {
		t.Fatalf("linked note should give nil, got %+v", s)
	}
}

func TestSuggestForNoteNotFound(t *testing.T) {
	svc, _, _ := newFixture(t)
	if _, err := svc.SuggestForNote(context.Background(), "ghost"); !errors.Is(err, reconcile.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateLinkHappyPath(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	sd := start.Add(90 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	v, err := svc.ValidateLink(ctx, "n1", "a1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !v.IsValid || v.Confidence != 0.85 || len(v.Warnings) != 0 {
		t.Fatalf("validation = %+v", v)
	}
}

func TestValidateLinkCrossClient(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	sd := start.Add(10 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{
		ID: "n1", ClientID: "other-client", SessionDate: &sd, CreatedAt: sd,
	})

	v, err := svc.ValidateLink(ctx, "n1", "a1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.IsValid {
		t.Fatal("cross-client link must be invalid")
	}
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], "different clients") {
		t.Fatalf("warnings = %v", v.Warnings)
	}
}

func TestValidateLinkAccumulatesWarnings(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)

	// Otra nota ya reclama a1, y la candidata está lejísimos.
	mustCreateNote(t, noteRepo, notes.Note{ID: "n0", AppointmentID: "a1", CreatedAt: start})
	sd := start.Add(2000 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	v, err := svc.ValidateLink(ctx, "n1", "a1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.IsValid {
		t.Fatal("should be invalid")
	}
	if len(v.Warnings) != 2 {
		t.Fatalf("want 2 warnings, got %v", v.Warnings)
	}
	if !strings.Contains(v.Warnings[0], "already linked to note(s): n0") {
		t.Fatalf("warnings[0] = %q", v.Warnings[0])
	}
	if !strings.Contains(v.Warnings[1], "exceeds the 1440 minute limit") {
		t.Fatalf("warnings[1] = %q", v.Warnings[1])
	}
	if v.Confidence != 0.10 {
		t.Fatalf("confidence = %v, want 0.10", v.Confidence)
	}
}

func TestValidateLinkMissingTimestamp(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	mustCreateAppt(t, apptRepo, "a1", time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1"})

	v, err := svc.ValidateLink(ctx, "n1", "a1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	// Falta de timestamp advierte pero no bloquea.
	if !v.IsValid {
		t.Fatal("missing timestamp should not block")
	}
	if v.Confidence != reconcile.FallbackConfidence {
		t.Fatalf("confidence = %v, want fallback", v.Confidence)
	}
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], "missing timestamp") {
		t.Fatalf("warnings = %v", v.Warnings)
	}
}

func TestLinkBlockedWithoutForce(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n0", AppointmentID: "a1", CreatedAt: start})
	sd := start.Add(time.Hour)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", SessionDate: &sd, CreatedAt: sd})

	_, v, err := svc.Link(ctx, "n1", "a1", false)
	if !errors.Is(err, reconcile.ErrLinkBlocked) {
		t.Fatalf("err = %v, want ErrLinkBlocked", err)
	}
	if v.IsValid {
		t.Fatal("validation should be invalid")
	}

	// force salta el conflicto
	n, _, err := svc.Link(ctx, "n1", "a1", true)
	if err != nil {
		t.Fatalf("forced link: %v", err)
	}
	if n.AppointmentID != "a1" {
		t.Fatalf("note not linked: %+v", n)
	}
}

func TestLinkForceNeverCrossesClients(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	sd := start.Add(10 * time.Minute)
	mustCreateNote(t, noteRepo, notes.Note{
		ID: "n1", ClientID: "other-client", SessionDate: &sd, CreatedAt: sd,
	})

	if _, _, err := svc.Link(ctx, "n1", "a1", true); !errors.Is(err, reconcile.ErrLinkBlocked) {
		t.Fatalf("err = %v, want ErrLinkBlocked even with force", err)
	}
	n, _ := noteRepo.GetByID(ctx, "n1")
	if n.Linked() {
		t.Fatal("cross-client note must stay unlinked")
	}
}

func TestLinkBackfillsSessionDate(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	mustCreateNote(t, noteRepo, notes.Note{ID: "n1", CreatedAt: start.Add(time.Hour)})

	n, _, err := svc.Link(ctx, "n1", "a1", false)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if n.SessionDate == nil || !n.SessionDate.Equal(start) {
		t.Fatalf("session date not backfilled, got %v", n.SessionDate)
	}
}

func TestUnlinkIsIdempotent(t *testing.T) {
	svc, noteRepo, apptRepo := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mustCreateAppt(t, apptRepo, "a1", start)
	mustCreateNote(t, noteRepo, notes.Note{
		ID: "n1", AppointmentID: "a1", EventID: "ev-1", CreatedAt: start,
	})

	n, err := svc.Unlink(ctx, "n1")
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if n.Linked() || n.EventID != "" {
		t.Fatalf("still linked: %+v", n)
	}

	// Segunda vez no falla ni cambia nada.
	if _, err := svc.Unlink(ctx, "n1"); err != nil {
		t.Fatalf("second unlink: %v", err)
	}
}
