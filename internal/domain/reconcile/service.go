package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"therapy-practice-manager/internal/domain/appointments"
	"therapy-practice-manager/internal/domain/notes"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrLinkBlocked  = errors.New("link blocked")
)

// Suggestion es un candidato de vínculo que no se aplicó solo.
type Suggestion struct {
	NoteID        string
	AppointmentID string
	Confidence    float64
	Reason        string
	Factors       []string
}

// Result resume una corrida de reconciliación por cliente.
type Result struct {
	LinkedCount   int
	TotalUnlinked int
	LinkedNoteIDs []string
	Suggestions   []Suggestion
}

// LinkValidation es el veredicto del validador de vínculos.
type LinkValidation struct {
	IsValid    bool
	Confidence float64
	Warnings   []string
}

type Service struct {
	notes notes.Repository
	appts appointments.Repository
}

func NewService(notesRepo notes.Repository, apptsRepo appointments.Repository) *Service {
	return &Service{
		notes: notesRepo,
		appts: apptsRepo,
	}
}

// decision clasifica una nota sin vincular contra las citas del cliente.
// Exactamente uno de los campos viene poblado; ambos nil significa "saltar"
// (sin candidato dentro del umbral de sugerencia).
type decision struct {
	suggestion *Suggestion
	autoLink   *Match
}

// classify aplica el orden acordado: el chequeo de conflicto va ANTES de la
// rama de umbral, así una cita ya reclamada nunca se auto-enlaza.
func classify(n notes.Note, appts []appointments.Appointment, assigned map[string]string) decision {
	ts, ok := n.EffectiveDate()
	if !ok {
		return decision{suggestion: &Suggestion{
			NoteID:     n.ID,
			Confidence: 0,
			Reason:     "note has no usable timestamp",
			Factors:    []string{FactorMissingTimestamp},
		}}
	}

	m := ClosestAppointment(appts, ts)
	if m == nil || m.DiffMinutes > SuggestionThresholdMinutes {
		return decision{}
	}

	conf := Confidence(m.DiffMinutes)

	if owner, claimed := assigned[m.Appointment.ID]; claimed && owner != n.ID {
		return decision{suggestion: &Suggestion{
			NoteID:        n.ID,
			AppointmentID: m.Appointment.ID,
			Confidence:    conf,
			Reason:        fmt.Sprintf("appointment already linked to note %s", owner),
			Factors:       []string{FactorDateProximity, FactorConflict},
		}}
	}

	if m.DiffMinutes <= AutoLinkThresholdMinutes {
		return decision{autoLink: m}
	}

	return decision{suggestion: &Suggestion{
		NoteID:        n.ID,
		AppointmentID: m.Appointment.ID,
		Confidence:    conf,
		Reason:        fmt.Sprintf("closest appointment is %.0f minutes away", m.DiffMinutes),
		Factors:       []string{FactorDateProximity},
	}}
}

// ReconcileClient corre la reconciliación por lote para un cliente: separa
// notas ya vinculadas de sueltas, auto-enlaza las que caen dentro del umbral
// (persistiendo el vínculo) y devuelve sugerencias para el resto.
//
// La garantía de "una cita, una nota" vale solo dentro de esta invocación:
// el mapa de asignaciones se arma fresco desde una lectura snapshot, así que
// dos corridas concurrentes pueden pisarse (last-write-wins).
func (s *Service) ReconcileClient(ctx context.Context, clientID string) (Result, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return Result{}, ErrInvalidInput
	}

	allNotes, err := s.notes.ListByClient(ctx, clientID)
	if err != nil {
		return Result{}, err
	}
	appts, err := s.appts.ListByClient(ctx, clientID)
	if err != nil {
		return Result{}, err
	}

	// cita -> nota, sembrado con los vínculos ya existentes
	assigned := make(map[string]string)
	unlinked := make([]notes.Note, 0, len(allNotes))
	for _, n := range allNotes {
		if n.Linked() {
			assigned[n.AppointmentID] = n.ID
		} else {
			unlinked = append(unlinked, n)
		}
	}

	res := Result{
		TotalUnlinked: len(unlinked),
		LinkedNoteIDs: []string{},
		Suggestions:   []Suggestion{},
	}

	for _, n := range unlinked {
		d := classify(n, appts, assigned)

		switch {
		case d.autoLink != nil:
			m := d.autoLink
			link := notes.Link{
				AppointmentID: m.Appointment.ID,
				EventID:       m.Appointment.EventID,
			}
			// Backfill: si la nota no traía fecha propia, hereda la de la cita.
			if n.SessionDate == nil || n.SessionDate.IsZero() {
				start := m.Start
				link.SessionDate = &start
			}
			if err := s.notes.UpdateLink(ctx, n.ID, link); err != nil {
				return Result{}, err
			}
			assigned[m.Appointment.ID] = n.ID
			res.LinkedNoteIDs = append(res.LinkedNoteIDs, n.ID)

		case d.suggestion != nil:
			res.Suggestions = append(res.Suggestions, *d.suggestion)
		}
	}

	res.LinkedCount = len(res.LinkedNoteIDs)
	return res, nil
}

// SuggestForNote clasifica una sola nota sin persistir nada. Usa el mismo
// clasificador que el lote, así el orden conflicto-antes-de-umbral es idéntico
// en ambos caminos. nil cuando la nota ya está vinculada o no hay candidato.
func (s *Service) SuggestForNote(ctx context.Context, noteID string) (*Suggestion, error) {
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	if n.Linked() {
		return nil, nil
	}

	allNotes, err := s.notes.ListByClient(ctx, n.ClientID)
	if err != nil {
		return nil, err
	}
	appts, err := s.appts.ListByClient(ctx, n.ClientID)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]string)
	for _, other := range allNotes {
		if other.Linked() {
			assigned[other.AppointmentID] = other.ID
		}
	}

	d := classify(n, appts, assigned)
	if d.suggestion != nil {
		return d.suggestion, nil
	}
	if d.autoLink != nil {
		// En el camino de solo-sugerencia no se aplica nada: el rango de
		// auto-link baja a sugerencia simple.
		m := d.autoLink
		return &Suggestion{
			NoteID:        n.ID,
			AppointmentID: m.Appointment.ID,
			Confidence:    Confidence(m.DiffMinutes),
			Reason:        fmt.Sprintf("closest appointment is %.0f minutes away", m.DiffMinutes),
			Factors:       []string{FactorDateProximity},
		}, nil
	}
	return nil, nil
}

// ValidateLink verifica de forma independiente un par (nota, cita) propuesto:
// identidad de cliente, proximidad temporal y ausencia de vínculo previo en
// conflicto. Acumula warnings; IsValid cae si hay alguna condición bloqueante.
func (s *Service) ValidateLink(ctx context.Context, noteID, appointmentID string) (LinkValidation, error) {
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return LinkValidation{}, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	a, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return LinkValidation{}, fmt.Errorf("appointment %s: %w", appointmentID, ErrNotFound)
	}

	v := LinkValidation{IsValid: true, Warnings: []string{}}

	if n.ClientID != "" && a.ClientID != "" && n.ClientID != a.ClientID {
		v.Warnings = append(v.Warnings, "note and appointment belong to different clients")
		v.IsValid = false
	}

	linked, err := s.notes.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return LinkValidation{}, err
	}
	conflicting := make([]string, 0)
	for _, other := range linked {
		if other.ID != n.ID {
			conflicting = append(conflicting, other.ID)
		}
	}
	if len(conflicting) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"appointment already linked to note(s): %s", strings.Join(conflicting, ", ")))
		v.IsValid = false
	}

	ts, hasTS := n.EffectiveDate()
	if hasTS && !a.StartTime.IsZero() {
		diff := math.Abs(ts.Sub(a.StartTime).Minutes())
		v.Confidence = Confidence(diff)
		if diff > SuggestionThresholdMinutes {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"time difference of %.0f minutes exceeds the %d minute limit", diff, SuggestionThresholdMinutes))
			v.IsValid = false
		}
	} else {
		// Sin timestamp no hay cálculo: confianza baja fija, warning no bloqueante.
		v.Confidence = FallbackConfidence
		v.Warnings = append(v.Warnings, "missing timestamp on note or appointment, confidence defaulted")
	}

	return v, nil
}

// Link confirma un vínculo propuesto tras validarlo. force salta las
// condiciones bloqueantes de conflicto y distancia, nunca la de clientes
// distintos (esa es invariante del modelo, no preferencia).
func (s *Service) Link(ctx context.Context, noteID, appointmentID string, force bool) (notes.Note, LinkValidation, error) {
	v, err := s.ValidateLink(ctx, noteID, appointmentID)
	if err != nil {
		return notes.Note{}, LinkValidation{}, err
	}

	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return notes.Note{}, v, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	a, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return notes.Note{}, v, fmt.Errorf("appointment %s: %w", appointmentID, ErrNotFound)
	}

	if n.ClientID != "" && a.ClientID != "" && n.ClientID != a.ClientID {
		return notes.Note{}, v, ErrLinkBlocked
	}
	if !v.IsValid && !force {
		return notes.Note{}, v, ErrLinkBlocked
	}

	link := notes.Link{AppointmentID: a.ID, EventID: a.EventID}
	if (n.SessionDate == nil || n.SessionDate.IsZero()) && !a.StartTime.IsZero() {
		start := a.StartTime
		link.SessionDate = &start
	}
	if err := s.notes.UpdateLink(ctx, n.ID, link); err != nil {
		return notes.Note{}, v, err
	}

	updated, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return notes.Note{}, v, err
	}
	return updated, v, nil
}

// Unlink suelta la nota de su cita (idempotente).
func (s *Service) Unlink(ctx context.Context, noteID string) (notes.Note, error) {
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return notes.Note{}, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	if !n.Linked() {
		return n, nil
	}

	if err := s.notes.UpdateLink(ctx, n.ID, notes.Link{}); err != nil {
		return notes.Note{}, err
	}
	return s.notes.GetByID(ctx, noteID)
}
