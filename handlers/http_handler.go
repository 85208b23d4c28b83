// Package handlers provides the HTTP handlers of the report API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/pgx-report-api/ingest"
	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/loader"
	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

const (
	uploadPrompt  = "Please upload a report to begin."
	uploadField   = "file"
	maxFormMemory = 8 << 20
)

// Reloader fetches the default report on demand
type Reloader interface {
	Reload(ctx context.Context) (*entities.Report, error)
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	loader        interfaces.Loader
	ingester      interfaces.Ingester
	reloader      Reloader
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	dataStore interfaces.DataStore,
	validator interfaces.DataValidator,
	loader interfaces.Loader,
	ingester interfaces.Ingester,
	reloader Reloader,
	healthChecker interfaces.HealthChecker,
) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		loader:        loader,
		ingester:      ingester,
		reloader:      reloader,
		healthChecker: healthChecker,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", h.lastModified().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

func (h *HTTPHandlerImpl) lastModified() time.Time {
	if h.dataStore != nil {
		if t := h.dataStore.GetLastUpdated(); !t.IsZero() {
			return t
		}
	}
	return time.Now()
}

// statusFor maps a load error to its HTTP status
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, ingest.ErrUpdateInProgress):
		return http.StatusConflict
	case errors.Is(err, loader.ErrUploadTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, reportparser.ErrFetchUnavailable):
		return http.StatusNotFound
	case errors.Is(err, reportparser.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, reportparser.ErrInvalidReportShape):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the user-facing text for a load error
func messageFor(err error) string {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, ingest.ErrUpdateInProgress):
		return "A report is already being loaded. Please try again."
	case errors.Is(err, loader.ErrUploadTooLarge), errors.As(err, &maxBytes):
		return "Report file is too large."
	default:
		return reportparser.UserMessage(err)
	}
}

func (h *HTTPHandlerImpl) respondWithLoadError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.Error("Unexpected report load error", "error", err)
	}
	h.RespondWithError(w, code, messageFor(err))
}

func (h *HTTPHandlerImpl) summary(report *entities.Report) ReportSummary {
	return newReportSummary(report, h.dataStore.GetViews(), h.dataStore.GetDataQuality())
}

// ServeReportSummary describes the current report
func (h *HTTPHandlerImpl) ServeReportSummary(w http.ResponseWriter, r *http.Request) {
	report := h.dataStore.GetReport()
	if report == nil {
		h.RespondWithError(w, http.StatusNotFound, uploadPrompt)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, h.summary(report))
}

// UploadReport loads a report sent as the raw body or as the multipart field "file"
func (h *HTTPHandlerImpl) UploadReport(w http.ResponseWriter, r *http.Request) {
	body, err := h.readUpload(r)
	if err != nil {
		h.respondWithLoadError(w, err)
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "Missing report file")
		return
	}

	report, err := h.ingester.Ingest(entities.OriginUpload, body)
	if err != nil {
		h.respondWithLoadError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusCreated, h.summary(report))
}

func (h *HTTPHandlerImpl) readUpload(r *http.Request) ([]byte, error) {
	var src io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return nil, err
			}
			return nil, reportparser.ErrParse
		}
		file, _, err := r.FormFile(uploadField)
		if err != nil {
			return nil, nil
		}
		defer func() { _ = file.Close() }()
		src = file
	}

	return h.loader.ReadUpload(src)
}

// ResetReport clears the current report and its patient info
func (h *HTTPHandlerImpl) ResetReport(w http.ResponseWriter, r *http.Request) {
	if err := h.ingester.Reset(); err != nil {
		h.respondWithLoadError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Report cleared"})
}

// ReloadReport fetches the default report now
func (h *HTTPHandlerImpl) ReloadReport(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		h.RespondWithError(w, http.StatusNotFound, reportparser.UserMessage(reportparser.ErrFetchUnavailable))
		return
	}

	report, err := h.reloader.Reload(r.Context())
	if err != nil {
		code := statusFor(err)
		// A broken default document is a server-side problem
		if code == http.StatusBadRequest || code == http.StatusUnprocessableEntity {
			code = http.StatusBadGateway
		}
		h.RespondWithError(w, code, messageFor(err))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, h.summary(report))
}

// ServePatientInfo returns the patient block of the current report
func (h *HTTPHandlerImpl) ServePatientInfo(w http.ResponseWriter, r *http.Request) {
	info := h.dataStore.GetPatientInfo()
	if info == nil {
		h.RespondWithError(w, http.StatusNotFound, uploadPrompt)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, info)
}

// HealthCheck returns the service health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()
	h.RespondWithJSON(w, httpStatus, HealthResponse{Status: status, Data: data})
}
