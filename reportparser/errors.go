package reportparser

import "errors"

// Load failures. Each is terminal for one load attempt and maps to its own
// user-facing message.
var (
	// ErrFetchUnavailable means the default report document could not be retrieved.
	ErrFetchUnavailable = errors.New("default report unavailable")

	// ErrParse means the supplied text is not valid JSON.
	ErrParse = errors.New("invalid file format")

	// ErrInvalidReportShape means the JSON is valid but is not a recognizable report.
	ErrInvalidReportShape = errors.New("error processing the report")
)

// UserMessage returns the message shown to a user for a load error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrFetchUnavailable):
		return "Default report not found, please upload one."
	case errors.Is(err, ErrParse):
		return "Invalid file format. Please upload a valid JSON report."
	case errors.Is(err, ErrInvalidReportShape):
		return "Error processing the report. Please check the file format."
	default:
		return "Unexpected error while loading the report."
	}
}
