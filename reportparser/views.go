package reportparser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/giygas/pgx-report-api/reportparser/entities"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sorter orders drug records by name. The zero value (and nil) compares names
// byte-wise and case-sensitively; a Sorter built for a locale uses that
// locale's collation.
type Sorter struct {
	tag      language.Tag
	collated bool
}

// NewSorter returns a byte-wise sorter for an empty locale, otherwise a
// collating sorter for the given BCP 47 tag.
func NewSorter(locale string) (*Sorter, error) {
	if strings.TrimSpace(locale) == "" {
		return &Sorter{}, nil
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid sort locale %q: %w", locale, err)
	}
	return &Sorter{tag: tag, collated: true}, nil
}

// Locale returns the collation tag, or "" for byte-wise ordering.
func (s *Sorter) Locale() string {
	if s == nil || !s.collated {
		return ""
	}
	return s.tag.String()
}

// Sort returns a copy of records ordered by drug name. Equal names keep their
// relative order.
func (s *Sorter) Sort(records []entities.DrugRecord) []entities.DrugRecord {
	out := slices.Clone(records)
	if out == nil {
		out = []entities.DrugRecord{}
	}

	if s == nil || !s.collated {
		slices.SortStableFunc(out, func(a, b entities.DrugRecord) int {
			return strings.Compare(a.Drug, b.Drug)
		})
		return out
	}

	// A Collator is not safe for concurrent use, so each call gets its own.
	c := collate.New(s.tag)
	slices.SortStableFunc(out, func(a, b entities.DrugRecord) int {
		return c.CompareString(a.Drug, b.Drug)
	})
	return out
}

// Views splits records into the three severity buckets, each sorted by name.
func (s *Sorter) Views(records []entities.DrugRecord) entities.SeverityViews {
	views := entities.SeverityViews{
		Major:    []entities.DrugRecord{},
		Moderate: []entities.DrugRecord{},
		Minimal:  []entities.DrugRecord{},
	}

	for _, r := range s.Sort(records) {
		switch r.Severity() {
		case entities.SeverityMajor:
			views.Major = append(views.Major, r)
		case entities.SeverityModerate:
			views.Moderate = append(views.Moderate, r)
		default:
			views.Minimal = append(views.Minimal, r)
		}
	}
	return views
}
