package handlers

import (
	"net/http"
	"strings"

	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser/entities"
	"github.com/go-chi/chi/v5"
)

// ServeDrugs lists the drugs sorted by name.
// ?severity= keeps one bucket and ?search= filters names case-insensitively.
func (h *HTTPHandlerImpl) ServeDrugs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	drugs := h.dataStore.GetDrugs()

	if raw := query.Get("severity"); raw != "" {
		sev, err := h.validator.ValidateSeverity(raw)
		if err != nil {
			logging.Warn("Unusual user input", "severity", raw)
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		drugs = h.dataStore.GetViews().Bucket(sev)
	}

	if search := query.Get("search"); search != "" {
		if err := h.validator.ValidateInput(search); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		drugs = filterByName(drugs, search)
	}

	h.RespondWithJSON(w, http.StatusOK, newDrugResponses(drugs))
}

func filterByName(drugs []entities.DrugRecord, term string) []entities.DrugRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	var results []entities.DrugRecord
	for _, d := range drugs {
		if strings.Contains(strings.ToLower(d.Drug), term) {
			results = append(results, d)
		}
	}
	return results
}

// FindDrug returns the record of one drug
func (h *HTTPHandlerImpl) FindDrug(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing drug name")
		return
	}

	if err := h.validator.ValidateInput(name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	drug, ok := h.dataStore.GetDrug(name)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Drug not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, newDrugResponse(drug))
}

// ServeViews returns the major, moderate and minimal lists
func (h *HTTPHandlerImpl) ServeViews(w http.ResponseWriter, r *http.Request) {
	views := h.dataStore.GetViews()
	h.RespondWithJSON(w, http.StatusOK, ViewsResponse{
		Major:    newDrugResponses(views.Major),
		Moderate: newDrugResponses(views.Moderate),
		Minimal:  newDrugResponses(views.Minimal),
	})
}
