package notes

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultTagLimit es el máximo de tags derivados cuando el caller no pide otro.
const DefaultTagLimit = 5

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]+`)

// stopwords: inglés común más relleno del dominio ("client", "session"...).
// Solo importan términos de más de 3 letras; los cortos se descartan antes.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"about", "after", "again", "against", "also", "because", "been", "before",
		"being", "between", "both", "came", "come", "could", "does", "doing",
		"during", "each", "from", "goes", "have", "into", "just", "like", "made",
		"make", "many", "more", "most", "much", "only", "other", "over", "really",
		"should", "since", "some", "still", "such", "than", "that", "their",
		"them", "then", "there", "they", "this", "through", "time", "until",
		"upon", "very", "well", "went", "were", "what", "when", "where", "which",
		"while", "will", "with", "would", "your",
		// relleno del dominio
		"client", "clients", "note", "notes", "patient", "session", "sessions",
		"therapist", "therapy", "today",
	} {
		stopwords[w] = struct{}{}
	}
}

// ExtractTopTags deriva tags por frecuencia de palabra: minúsculas, solo
// [a-z0-9\s], tokens de más de 3 letras fuera del stopword set. Devuelve los
// `limit` más frecuentes; empates conservan el orden de primera aparición.
// Es el fallback barato al etiquetado por IA.
func ExtractTopTags(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultTagLimit
	}
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	clean := nonAlnum.ReplaceAllString(strings.ToLower(text), "")

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range strings.Fields(clean) {
		if len(tok) <= 3 {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// Estable: los empates quedan en orden de primera aparición.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}
