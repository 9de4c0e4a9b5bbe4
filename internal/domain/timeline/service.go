package timeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"therapy-practice-manager/internal/domain/appointments"
	"therapy-practice-manager/internal/domain/calendar"
	"therapy-practice-manager/internal/domain/clients"
	"therapy-practice-manager/internal/domain/documents"
	"therapy-practice-manager/internal/domain/notes"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// Fuentes declaradas en cada item.
const (
	sourceScheduler = "scheduler"
	sourceChart     = "chart"
	sourceUpload    = "upload"
	sourceCalendar  = "external_calendar"
)

// excludedEventWords: eventos externos sin cita cuyo título es puro
// placeholder administrativo se descartan del timeline.
var excludedEventWords = []string{"blocked", "busy", "hold", "unavailable", "out of office"}

// inferStripWords: palabras de cortesía que se pelan del título al inferir
// el nombre del cliente de un evento sin cita.
var inferStripWords = map[string]bool{
	"appointment": true, "appt": true, "session": true, "meeting": true,
	"consult": true, "consultation": true, "intake": true, "with": true,
}

// Query acota la agregación: exactamente uno de ClientID/ClinicianID debe
// venir poblado. Kinds vacío incluye todo; IncludeUnlinked=false descarta
// los items unlinked/unmatched.
type Query struct {
	ClientID    string
	ClinicianID string

	From *time.Time
	To   *time.Time

	Kinds           []Kind
	IncludeUnlinked bool
}

// Service arma la vista fusionada de solo lectura. Nunca muta las entidades
// subyacentes: todo Item se construye fresco por request.
type Service struct {
	clients clients.Repository
	appts   appointments.Repository
	notes   notes.Repository
	docs    documents.Repository
	events  calendar.Repository
}

func NewService(
	clientsRepo clients.Repository,
	apptsRepo appointments.Repository,
	notesRepo notes.Repository,
	docsRepo documents.Repository,
	eventsRepo calendar.Repository,
) *Service {
	return &Service{
		clients: clientsRepo,
		appts:   apptsRepo,
		notes:   notesRepo,
		docs:    docsRepo,
		events:  eventsRepo,
	}
}

// Build fusiona citas, notas, documentos y eventos de calendario en una sola
// lista ordenada por fecha descendente, anotando el estado de reconciliación
// de cada item de forma independiente (no confía en estados precalculados).
func (s *Service) Build(ctx context.Context, q Query) ([]Item, error) {
	if strings.TrimSpace(q.ClientID) == "" && strings.TrimSpace(q.ClinicianID) == "" {
		return nil, ErrInvalidInput
	}

	var (
		appts []appointments.Appointment
		nts   []notes.Note
		docs  []documents.Document
		evts  []calendar.Event
		err   error
	)

	clientNames := make(map[string]string)

	if q.ClientID != "" {
		c, cerr := s.clients.GetByID(ctx, q.ClientID)
		if cerr != nil {
			return nil, cerr
		}
		clientNames[c.ID] = c.FullName()

		if appts, err = s.appts.ListByClient(ctx, q.ClientID); err != nil {
			return nil, err
		}
		if nts, err = s.notes.ListByClient(ctx, q.ClientID); err != nil {
			return nil, err
		}
		if docs, err = s.docs.ListByClient(ctx, q.ClientID); err != nil {
			return nil, err
		}
		// En vista por cliente solo entran los eventos que alguna cita del
		// cliente referencia; los sueltos no se pueden atribuir.
		evts, err = s.events.ListByClinician(ctx, c.ClinicianID, calendar.ListFilter{})
		if err != nil {
			return nil, err
		}
	} else {
		cs, cerr := s.clients.ListByClinician(ctx, q.ClinicianID)
		if cerr != nil {
			return nil, cerr
		}
		for _, c := range cs {
			clientNames[c.ID] = c.FullName()
		}

		if appts, err = s.appts.ListByClinician(ctx, q.ClinicianID, appointments.ListFilter{}); err != nil {
			return nil, err
		}
		if nts, err = s.notes.ListByClinician(ctx, q.ClinicianID); err != nil {
			return nil, err
		}
		if docs, err = s.docs.ListByClinician(ctx, q.ClinicianID); err != nil {
			return nil, err
		}
		if evts, err = s.events.ListByClinician(ctx, q.ClinicianID, calendar.ListFilter{}); err != nil {
			return nil, err
		}
	}

	// Cruces: citas con nota atada, eventos referenciados por alguna cita.
	linkedAppointments := make(map[string]bool)
	for _, n := range nts {
		if n.AppointmentID != "" {
			linkedAppointments[n.AppointmentID] = true
		}
	}
	apptByEventID := make(map[string]appointments.Appointment)
	for _, a := range appts {
		if a.EventID != "" {
			apptByEventID[a.EventID] = a
		}
	}

	items := make([]Item, 0, len(appts)+len(nts)+len(docs)+len(evts))

	for _, a := range appts {
		status := StatusUnlinked
		if linkedAppointments[a.ID] {
			status = StatusLinked
		}
		title := a.Type
		if title == "" {
			title = "Appointment"
		}
		items = append(items, Item{
			Kind:       KindAppointment,
			RefID:      a.ID,
			Date:       a.StartTime,
			Title:      title,
			ClientID:   a.ClientID,
			ClientName: clientNames[a.ClientID],
			Status:     status,
			Source:     sourceScheduler,
			Meta: map[string]string{
				"appointment_status": string(a.Status),
				"event_id":           a.EventID,
			},
		})
	}

	for _, n := range nts {
		status := StatusUnlinked
		if n.Linked() {
			status = StatusLinked
		}
		date, hasDate := n.EffectiveDate()
		meta := map[string]string{"appointment_id": n.AppointmentID}
		if !hasDate {
			meta["missing_date"] = "true"
		}
		items = append(items, Item{
			Kind:       KindNote,
			RefID:      n.ID,
			Date:       date,
			Title:      "Clinical Note",
			ClientID:   n.ClientID,
			ClientName: clientNames[n.ClientID],
			Tags:       n.Tags,
			Status:     status,
			Source:     sourceChart,
			Meta:       meta,
		})
	}

	for _, d := range docs {
		// Documento sin nota adjunta: material de carta pendiente.
		status := StatusPending
		if d.Attached() {
			status = StatusMatched
		}
		items = append(items, Item{
			Kind:       KindDocument,
			RefID:      d.ID,
			Date:       d.UploadedAt,
			Title:      d.FileName,
			ClientID:   d.ClientID,
			ClientName: clientNames[d.ClientID],
			Status:     status,
			Source:     sourceUpload,
			Meta:       map[string]string{"note_id": d.NoteID},
		})
	}

	for _, e := range evts {
		a, matched := apptByEventID[e.ID]

		if q.ClientID != "" && (!matched || a.ClientID != q.ClientID) {
			continue
		}

		if !matched {
			if isExcludedEvent(e.Summary) {
				continue
			}
			items = append(items, Item{
				Kind:       KindCalendarEvent,
				RefID:      e.ID,
				Date:       e.StartTime,
				Title:      e.Summary,
				ClientName: inferClientName(e.Summary),
				Status:     StatusUnmatched,
				Source:     sourceCalendar,
				Meta:       map[string]string{"sync_status": string(e.Status)},
			})
			continue
		}

		items = append(items, Item{
			Kind:       KindCalendarEvent,
			RefID:      e.ID,
			Date:       e.StartTime,
			Title:      e.Summary,
			ClientID:   a.ClientID,
			ClientName: clientNames[a.ClientID],
			Status:     StatusMatched,
			Source:     sourceCalendar,
			Meta: map[string]string{
				"sync_status":    string(e.Status),
				"appointment_id": a.ID,
			},
		})
	}

	items = filterItems(items, q)

	// Más reciente primero; fechas cero (notas sin fecha) al final.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})

	return items, nil
}

func filterItems(items []Item, q Query) []Item {
	kinds := make(map[Kind]bool, len(q.Kinds))
	for _, k := range q.Kinds {
		kinds[k] = true
	}

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if len(kinds) > 0 && !kinds[it.Kind] {
			continue
		}
		if !q.IncludeUnlinked && (it.Status == StatusUnlinked || it.Status == StatusUnmatched) {
			continue
		}
		if q.From != nil && it.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && it.Date.After(*q.To) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// GroupByDay agrupa los items (ya ordenados desc) por día calendario.
func GroupByDay(items []Item) []DayGroup {
	groups := make([]DayGroup, 0)
	index := make(map[string]int)

	for _, it := range items {
		day := it.Date.Format("2006-01-02")
		if it.Date.IsZero() {
			day = "undated"
		}
		i, ok := index[day]
		if !ok {
			groups = append(groups, DayGroup{Day: day})
			i = len(groups) - 1
			index[day] = i
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	return groups
}

func isExcludedEvent(summary string) bool {
	s := strings.ToLower(summary)
	for _, w := range excludedEventWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// inferClientName intenta sacar un nombre de cliente del título del evento
// pelando palabras de relleno al inicio y al final ("Session with Jane Doe"
// -> "Jane Doe"). Si no queda nada, pasa el título crudo.
func inferClientName(summary string) string {
	words := strings.Fields(summary)

	for len(words) > 0 && inferStripWords[strings.ToLower(strings.Trim(words[0], "-:"))] {
		words = words[1:]
	}
	for len(words) > 0 && inferStripWords[strings.ToLower(strings.Trim(words[len(words)-1], "-:"))] {
		words = words[:len(words)-1]
	}

	name := strings.Trim(strings.Join(words, " "), " -:")
	if name == "" {
		return summary
	}
	return name
}
