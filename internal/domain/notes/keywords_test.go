package notes

import (
	"reflect"
	"testing"
)

func TestExtractTopTagsFrequencyOrder(t *testing.T) {
	text := "the client discussed anxiety anxiety depression treatment treatment treatment"

	got := ExtractTopTags(text, 2)
	want := []string{"treatment", "anxiety"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractTopTagsTieKeepsFirstAppearance(t *testing.T) {
	got := ExtractTopTags("grief grief sleep sleep", 5)
	want := []string{"grief", "sleep"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractTopTagsNormalization(t *testing.T) {
	// Mayúsculas y puntuación se descartan antes de tokenizar.
	got := ExtractTopTags("ANXIETY, anxiety! (anxiety)", 5)
	want := []string{"anxiety"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractTopTagsFiltersShortAndStopwords(t *testing.T) {
	got := ExtractTopTags("the client was sad but the session went well today", 5)
	for _, tag := range got {
		if len(tag) <= 3 {
			t.Errorf("short token leaked: %q", tag)
		}
		if _, ok := stopwords[tag]; ok {
			t.Errorf("stopword leaked: %q", tag)
		}
	}
}

func TestExtractTopTagsEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "the a with", "!!! ..."} {
		got := ExtractTopTags(text, 5)
		if len(got) != 0 {
			t.Errorf("ExtractTopTags(%q) = %v, want empty", text, got)
		}
	}
}

func TestExtractTopTagsLimitDefaults(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta theta"
	if got := ExtractTopTags(text, 0); len(got) != DefaultTagLimit {
		t.Fatalf("limit 0 should default to %d, got %d", DefaultTagLimit, len(got))
	}
	if got := ExtractTopTags(text, -3); len(got) != DefaultTagLimit {
		t.Fatalf("negative limit should default to %d, got %d", DefaultTagLimit, len(got))
	}
	if got := ExtractTopTags(text, 100); len(got) != 7 {
		t.Fatalf("limit above token count returns all, got %d", len(got))
	}
}

func TestExtractTopTagsIdempotent(t *testing.T) {
	text := "panic panic attacks attacks breathing exercises"
	first := ExtractTopTags(text, 3)
	second := ExtractTopTags(text, 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not deterministic: %v vs %v", first, second)
	}
}
