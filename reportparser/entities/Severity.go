package entities

import "strings"

// Severity is the bucket an interaction falls into for display.
type Severity string

const (
	SeverityMajor    Severity = "major"
	SeverityModerate Severity = "moderate"
	SeverityMinimal  Severity = "minimal"
)

// Severities lists the buckets from strongest to weakest.
var Severities = []Severity{SeverityMajor, SeverityModerate, SeverityMinimal}

// ClassifySeverity maps free interaction text to a bucket by case-insensitive
// containment, checking "major" then "moderate". Anything else is minimal,
// including empty text and labels such as "Contraindicated".
func ClassifySeverity(interaction string) Severity {
	text := strings.ToLower(interaction)
	switch {
	case strings.Contains(text, string(SeverityMajor)):
		return SeverityMajor
	case strings.Contains(text, string(SeverityModerate)):
		return SeverityModerate
	default:
		return SeverityMinimal
	}
}

// ParseSeverity resolves a bucket name, ignoring case.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMajor:
		return SeverityMajor, true
	case SeverityModerate:
		return SeverityModerate, true
	case SeverityMinimal:
		return SeverityMinimal, true
	}
	return "", false
}
