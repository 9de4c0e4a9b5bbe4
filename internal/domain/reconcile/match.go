// Package reconcile decide a qué cita pertenece cada nota clínica suelta:
// empareja por cercanía temporal, puntúa confianza y clasifica cada caso como
// auto-link, sugerencia o conflicto.
package reconcile

import (
	"math"
	"time"

	"therapy-practice-manager/internal/domain/appointments"
)

const (
	// AutoLinkThresholdMinutes: diferencia dentro de la cual la nota se ata
	// automáticamente a la cita más cercana.
	AutoLinkThresholdMinutes = 180
	// SuggestionThresholdMinutes: más allá de 24 horas no se propone nada.
	SuggestionThresholdMinutes = 1440
	// FallbackConfidence se usa cuando falta algún timestamp para calcular.
	FallbackConfidence = 0.2
)

// Factores que acompañan una sugerencia, en orden de aporte.
const (
	FactorDateProximity    = "date_proximity"
	FactorConflict         = "conflict"
	FactorMissingTimestamp = "missing_timestamp"
)

// Match es el resultado del emparejador temporal.
type Match struct {
	Appointment appointments.Appointment
	Start       time.Time
	DiffMinutes float64
}

// ClosestAppointment devuelve la cita que minimiza |start - ts|. Citas sin
// hora de inicio usable se saltan; empates los gana la primera encontrada
// (barrido estable, sin clave secundaria). nil si ninguna cita tiene hora.
func ClosestAppointment(appts []appointments.Appointment, ts time.Time) *Match {
	var best *Match
	for i := range appts {
		a := appts[i]
		if a.StartTime.IsZero() {
			continue
		}
		diff := math.Abs(ts.Sub(a.StartTime).Minutes())
		if best == nil || diff < best.DiffMinutes {
			best = &Match{Appointment: a, Start: a.StartTime, DiffMinutes: diff}
		}
	}
	return best
}

// Confidence mapea una diferencia en minutos a un puntaje en [0,1] por
// función escalonada. Cada frontera es inclusiva hacia el bucket más alto
// (180 cae en <=180). Entradas no finitas dan 0.
func Confidence(diffMinutes float64) float64 {
	if math.IsNaN(diffMinutes) || math.IsInf(diffMinutes, 0) {
		return 0
	}

	d := math.Abs(diffMinutes)
	switch {
	case d <= 60:
		return 0.95
	case d <= 120:
		return 0.85
	case d <= 180:
		return 0.75
	case d <= 360:
		return 0.60
	case d <= 720:
		return 0.45
	case d <= 1440:
		return 0.30
	default:
		return 0.10
	}
}
