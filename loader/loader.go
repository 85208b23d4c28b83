// Package loader acquires report documents: the default report from a URL or file,
// and user uploads from a request body.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser"
	"golang.org/x/text/encoding/charmap"
)

// Compile-time check to ensure ReportLoader implements Loader interface
var _ interfaces.Loader = (*ReportLoader)(nil)

// ErrUploadTooLarge is returned when an upload exceeds the configured size.
var ErrUploadTooLarge = errors.New("report exceeds the maximum upload size")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReportLoader reads report documents. Both the default report and uploads
// are capped at maxSize bytes.
type ReportLoader struct {
	source  string
	client  *http.Client
	maxSize int64
}

// NewReportLoader creates a loader for the given default source, which may be
// an http(s) URL, a file path, or empty when there is no default report.
func NewReportLoader(source string, timeout time.Duration, maxSize int64) *ReportLoader {
	return &ReportLoader{
		source:  source,
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// Source describes where the default report is read from
func (l *ReportLoader) Source() string {
	return l.source
}

func (l *ReportLoader) remote() bool {
	return strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://")
}

// FetchDefault retrieves the default report. Every failure wraps
// reportparser.ErrFetchUnavailable; nothing is retried.
func (l *ReportLoader) FetchDefault(ctx context.Context) ([]byte, error) {
	if l.source == "" {
		return nil, fmt.Errorf("%w: no default report configured", reportparser.ErrFetchUnavailable)
	}

	var (
		body []byte
		err  error
	)
	if l.remote() {
		body, err = l.fetchURL(ctx)
	} else {
		body, err = l.readFile()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reportparser.ErrFetchUnavailable, err)
	}

	logging.Debug("Default report fetched", "source", l.source, "bytes", len(body))
	return normalizeEncoding(body), nil
}

func (l *ReportLoader) fetchURL(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", l.source, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, l.source)
	}

	return l.readLimited(resp.Body)
}

func (l *ReportLoader) readFile() ([]byte, error) {
	f, err := os.Open(filepath.Clean(l.source))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return l.readLimited(f)
}

// ReadUpload reads an uploaded document, applying the size cap and the
// charset fallback.
func (l *ReportLoader) ReadUpload(r io.Reader) ([]byte, error) {
	body, err := l.readLimited(r)
	if err != nil {
		return nil, err
	}
	return normalizeEncoding(body), nil
}

func (l *ReportLoader) readLimited(r io.Reader) ([]byte, error) {
	if l.maxSize <= 0 {
		return io.ReadAll(r)
	}

	body, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if int64(len(body)) > l.maxSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrUploadTooLarge, l.maxSize)
	}
	return body, nil
}

// normalizeEncoding strips a UTF-8 byte order mark and decodes documents that
// are not valid UTF-8 as ISO-8859-1.
func normalizeEncoding(body []byte) []byte {
	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return body
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		logging.Warn("Failed to decode report as ISO-8859-1", "error", err)
		return body
	}
	logging.Debug("Report decoded from ISO-8859-1")
	return decoded
}
