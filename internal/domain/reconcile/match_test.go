package reconcile

import (
	"math"
	"testing"
	"time"

	"therapy-practice-manager/internal/domain/appointments"
)

func TestConfidenceBuckets(t *testing.T) {
	cases := []struct {
		diff float64
		want float64
	}{
		{0, 0.95},
		{45, 0.95},
		{60, 0.95},
		{61, 0.85},
		{120, 0.85},
		{121, 0.75},
		{180, 0.75},
		{181, 0.60},
		{360, 0.60},
		{361, 0.45},
		{720, 0.45},
		{721, 0.30},
		{1440, 0.30},
		{1441, 0.10},
		{99999, 0.10},
	}
	for _, tc := range cases {
		if got := Confidence(tc.diff); got != tc.want {
			t.Errorf("Confidence(%v) = %v, want %v", tc.diff, got, tc.want)
		}
	}
}

func TestConfidenceNegativeUsesAbs(t *testing.T) {
	if got := Confidence(-90); got != 0.85 {
		t.Fatalf("Confidence(-90) = %v, want 0.85", got)
	}
}

func TestConfidenceNonFinite(t *testing.T) {
	for _, d := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := Confidence(d); got != 0 {
			t.Errorf("Confidence(%v) = %v, want 0", d, got)
		}
	}
}

func TestClosestAppointmentPicksMinimum(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	appts := []appointments.Appointment{
		{ID: "a1", StartTime: ts.Add(-6 * time.Hour)},
		{ID: "a2", StartTime: ts.Add(45 * time.Minute)},
		{ID: "a3", StartTime: ts.Add(3 * time.Hour)},
	}

	m := ClosestAppointment(appts, ts)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Appointment.ID != "a2" {
		t.Fatalf("got %s, want a2", m.Appointment.ID)
	}
	if m.DiffMinutes != 45 {
		t.Fatalf("diff = %v, want 45", m.DiffMinutes)
	}
}

func TestClosestAppointmentTieKeepsFirst(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	appts := []appointments.Appointment{
		{ID: "before", StartTime: ts.Add(-30 * time.Minute)},
		{ID: "after", StartTime: ts.Add(30 * time.Minute)},
	}

	m := ClosestAppointment(appts, ts)
	if m == nil || m.Appointment.ID != "before" {
		t.Fatalf("tie should keep the first encountered, got %+v", m)
	}
}

func TestClosestAppointmentSkipsMissingStart(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	if m := ClosestAppointment(nil, ts); m != nil {
		t.Fatalf("empty slice should give nil, got %+v", m)
	}

	appts := []appointments.Appointment{
		{ID: "a1"}, // sin hora
		{ID: "a2"},
	}
	if m := ClosestAppointment(appts, ts); m != nil {
		t.Fatalf("all-zero starts should give nil, got %+v", m)
	}

	appts = append(appts, appointments.Appointment{ID: "a3", StartTime: ts.Add(time.Hour)})
	m := ClosestAppointment(appts, ts)
	if m == nil || m.Appointment.ID != "a3" {
		t.Fatalf("expected a3, got %+v", m)
	}
}
