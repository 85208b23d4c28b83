package reportparser

import (
	"testing"

	"github.com/giygas/pgx-report-api/reportparser/entities"
)

func recordsOf(pairs ...string) []entities.DrugRecord {
	out := make([]entities.DrugRecord, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, entities.DrugRecord{Drug: pairs[i], Interaction: pairs[i+1]})
	}
	return out
}

func drugNames(rs []entities.DrugRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Drug
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSorterByteOrder(t *testing.T) {
	s, err := NewSorter("")
	if err != nil {
		t.Fatalf("NewSorter failed: %v", err)
	}
	if s.Locale() != "" {
		t.Errorf("Expected no locale, got %q", s.Locale())
	}

	in := recordsOf("warfarin", "", "Codeine", "", "abacavir", "", "Warfarin", "")
	got := drugNames(s.Sort(in))
	want := []string{"Codeine", "Warfarin", "abacavir", "warfarin"}
	if !equalNames(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if in[0].Drug != "warfarin" {
		t.Error("Expected Sort to leave its input untouched")
	}
}

func TestSorterCollated(t *testing.T) {
	s, err := NewSorter("en")
	if err != nil {
		t.Fatalf("NewSorter failed: %v", err)
	}
	if s.Locale() != "en" {
		t.Errorf("Expected locale en, got %q", s.Locale())
	}

	got := drugNames(s.Sort(recordsOf("warfarin", "", "Codeine", "", "abacavir", "")))
	want := []string{"abacavir", "Codeine", "warfarin"}
	if !equalNames(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestNewSorterInvalidLocale(t *testing.T) {
	if _, err := NewSorter("not a locale!!"); err == nil {
		t.Error("Expected error for invalid locale")
	}
}

func TestNilSorter(t *testing.T) {
	var s *Sorter
	got := s.Sort(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
}

func TestViews(t *testing.T) {
	s, _ := NewSorter("")
	in := recordsOf(
		"X", "Contraindicated",
		"D", "Major",
		"B", "moderate",
		"A", "",
		"C", "Major",
	)

	views := s.Views(in)

	if want := []string{"C", "D"}; !equalNames(drugNames(views.Major), want) {
		t.Errorf("Expected major %v, got %v", want, drugNames(views.Major))
	}
	if want := []string{"B"}; !equalNames(drugNames(views.Moderate), want) {
		t.Errorf("Expected moderate %v, got %v", want, drugNames(views.Moderate))
	}
	if want := []string{"A", "X"}; !equalNames(drugNames(views.Minimal), want) {
		t.Errorf("Expected minimal %v, got %v", want, drugNames(views.Minimal))
	}

	total := len(views.Major) + len(views.Moderate) + len(views.Minimal)
	if total != len(in) {
		t.Errorf("Expected every record in exactly one view, got %d of %d", total, len(in))
	}
}

func TestViewsEmpty(t *testing.T) {
	views := (&Sorter{}).Views(nil)
	for _, sev := range entities.Severities {
		if views.Bucket(sev) == nil {
			t.Errorf("Expected empty non-nil %s bucket", sev)
		}
	}
}
