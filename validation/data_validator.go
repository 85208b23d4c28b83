// Package validation provides request input validation and report data quality checks.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

const maxListedIssues = 10

// Pre-compiled regex patterns for performance optimization
var (
	// Drug names: letters in any script, digits, spaces and the punctuation that
	// shows up in names such as "amphetamine/dextroamphetamine" or "peginterferon alfa-2a (pegasys)"
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.,\+/\(\)']+$`)

	// Plain substring checks are cheaper than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "url(", "exec(", "execute(",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/",
		"../", "..\\", "%2e%2e", "file://",
		"$(", "${", "`",
	}

	recognizedInteractions = []string{"major", "moderate", "minimal"}
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator interface
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput validates a drug name or search term taken from a request
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(input) > 100 {
		return fmt.Errorf("input too long: maximum 100 characters")
	}

	if words := strings.Fields(input); len(words) > 8 {
		return fmt.Errorf("input too complex: maximum 8 words allowed")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . , + / ( ) ' are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateSeverity resolves a severity bucket name from a query parameter
func (v *DataValidatorImpl) ValidateSeverity(input string) (entities.Severity, error) {
	sev, ok := entities.ParseSeverity(input)
	if !ok {
		return "", fmt.Errorf("invalid severity %q: must be one of major, moderate, minimal", input)
	}
	return sev, nil
}

// ReportDataQuality lists the oddities of a normalized report. None of them
// block a load; they are logged so a bad source can be spotted.
func (v *DataValidatorImpl) ReportDataQuality(report *entities.Report) *interfaces.DataQualityReport {
	q := &interfaces.DataQualityReport{
		DuplicateDrugs:           []string{},
		UnrecognizedInteractions: []string{},
		SeverityCounts:           make(map[entities.Severity]int, len(entities.Severities)),
	}
	for _, sev := range entities.Severities {
		q.SeverityCounts[sev] = 0
	}

	if report == nil {
		return q
	}

	seen := make(map[string]int, len(report.Drugs))
	for _, d := range report.Drugs {
		q.SeverityCounts[d.Severity()]++

		if d.Drug == "" {
			q.UnnamedDrugs++
		} else {
			seen[d.Drug]++
			if seen[d.Drug] == 2 && len(q.DuplicateDrugs) < maxListedIssues {
				q.DuplicateDrugs = append(q.DuplicateDrugs, d.Drug)
			}
		}

		if strings.TrimSpace(d.Recommendation) == "" {
			q.DrugsWithoutRecommendation++
		}

		if isUnrecognized(d.Interaction) &&
			!slices.Contains(q.UnrecognizedInteractions, d.Interaction) &&
			len(q.UnrecognizedInteractions) < maxListedIssues {
			q.UnrecognizedInteractions = append(q.UnrecognizedInteractions, d.Interaction)
		}
	}

	return q
}

// isUnrecognized reports interaction text that only lands in the minimal
// bucket because nothing else matched, e.g. "Contraindicated".
func isUnrecognized(interaction string) bool {
	text := strings.ToLower(strings.TrimSpace(interaction))
	if text == "" {
		return false
	}
	for _, word := range recognizedInteractions {
		if strings.Contains(text, word) {
			return false
		}
	}
	return true
}

// LogDataQuality writes a warning for every kind of issue found
func LogDataQuality(q *interfaces.DataQualityReport) {
	if q == nil {
		return
	}

	if len(q.DuplicateDrugs) > 0 {
		logging.Warn("Report lists some drugs more than once", "drugs", q.DuplicateDrugs)
	}
	if q.UnnamedDrugs > 0 {
		logging.Warn("Report contains records without a drug name", "count", q.UnnamedDrugs)
	}
	if len(q.UnrecognizedInteractions) > 0 {
		logging.Warn("Unrecognized interaction strengths classified as minimal",
			"interactions", q.UnrecognizedInteractions,
		)
	}
	if q.DrugsWithoutRecommendation > 0 {
		logging.Warn("Records without a recommendation", "count", q.DrugsWithoutRecommendation)
	}
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
