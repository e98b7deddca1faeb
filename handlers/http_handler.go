// Package handlers provides HTTP request handlers for the drug catalog API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/giygas/drugcatalog-api/catalog"
	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/interfaces"
	"github.com/giygas/drugcatalog-api/logging"
	"github.com/giygas/drugcatalog-api/metrics"
	"github.com/giygas/drugcatalog-api/validation"
	"github.com/go-chi/chi/v5"
)

const (
	pageSize = 10

	// maxInteractionDrugs bounds the pairwise check of check_interactions
	maxInteractionDrugs = 50

	// multipartMemory is kept in memory while parsing uploads, the rest spills to disk
	multipartMemory = 1 << 20

	defaultMaxUploadSize = 10 << 20
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store         interfaces.DrugStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	maxUploadSize int64
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// A non-positive maxUploadSize falls back to 10MB.
func NewHTTPHandler(store interfaces.DrugStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker, maxUploadSize int64) interfaces.HTTPHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &HTTPHandlerImpl{
		store:         store,
		validator:     validator,
		healthChecker: healthChecker,
		maxUploadSize: maxUploadSize,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// This is a placeholder - the actual routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// PagedDrugsResponse is one page of the catalog listing
type PagedDrugsResponse struct {
	Data       []entities.DrugRecord `json:"data"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalItems int                   `json:"totalItems"`
	MaxPage    int                   `json:"maxPage"`
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
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
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

// respondWithLookupError maps catalog errors to HTTP statuses
func (h *HTTPHandlerImpl) respondWithLookupError(w http.ResponseWriter, operation string, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		metrics.RecordLookup(operation, metrics.OutcomeNotFound)
		h.RespondWithError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, catalog.ErrInvalidRequest):
		metrics.RecordLookup(operation, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, "At least two valid known drugs are required")
	default:
		logging.Error("Catalog lookup failed", "operation", operation, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// queryParam reads and validates a required query parameter
func (h *HTTPHandlerImpl) queryParam(w http.ResponseWriter, r *http.Request, operation, key string) (string, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		metrics.RecordLookup(operation, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, "Missing '"+key+"' query parameter")
		return "", false
	}

	if err := h.validator.ValidateInput(value); err != nil {
		logging.Warn("Unusual user input", key, value, "error", err)
		metrics.RecordLookup(operation, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	return value, true
}

// Root answers liveness checks
func (h *HTTPHandlerImpl) Root(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, entities.MessageResponse{Message: "API is working!"})
}

// GetDrugInfo returns the full record of a drug found by name or alias
func (h *HTTPHandlerImpl) GetDrugInfo(w http.ResponseWriter, r *http.Request) {
	const op = "drug_info"

	name, ok := h.queryParam(w, r, op, "name")
	if !ok {
		return
	}

	rec, err := h.store.Resolve(name)
	if err != nil {
		h.respondWithLookupError(w, op, err, "Drug not found")
		return
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	// The record can only change with the dataset, so checksum and name identify it
	etag := GenerateETag([]byte(h.store.Checksum() + "\x00" + rec.Name))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if CheckETag(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, rec)
}

// CheckInteractions reports interacting pairs among the submitted drugs
func (h *HTTPHandlerImpl) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	const op = "check_interactions"

	var body entities.DrugList
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request body: expected {\"drugs\": [\"name\", ...]}")
		return
	}

	if len(body.Drugs) > maxInteractionDrugs {
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, "Too many drugs: maximum "+strconv.Itoa(maxInteractionDrugs)+" allowed")
		return
	}

	// Names failing validation cannot be in the catalog; they are dropped like unknown ones
	names := make([]string, 0, len(body.Drugs))
	for _, name := range body.Drugs {
		if err := h.validator.ValidateInput(name); err != nil {
			logging.Debug("Dropping invalid drug name", "name", name, "error", err)
			continue
		}
		names = append(names, name)
	}

	interactions, err := h.store.CheckInteractions(names)
	if err != nil {
		h.respondWithLookupError(w, op, err, "Drug not found")
		return
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	if len(interactions) == 0 {
		h.RespondWithJSON(w, http.StatusOK, entities.MessageResponse{Message: "No interactions found"})
		return
	}

	h.RespondWithJSON(w, http.StatusOK, entities.InteractionsResponse{Interactions: interactions})
}

// SuggestAlternatives returns the substitutes listed for a drug
func (h *HTTPHandlerImpl) SuggestAlternatives(w http.ResponseWriter, r *http.Request) {
	const op = "suggest_alternatives"

	name, ok := h.queryParam(w, r, op, "name")
	if !ok {
		return
	}

	alternatives, err := h.store.Alternatives(name)
	if err != nil {
		h.respondWithLookupError(w, op, err, "Drug not found")
		return
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	h.RespondWithJSON(w, http.StatusOK, entities.AlternativesResponse{SuggestedAlternatives: alternatives})
}

// DosageDuration returns the dosage and duration of a drug
func (h *HTTPHandlerImpl) DosageDuration(w http.ResponseWriter, r *http.Request) {
	const op = "dosage_duration"

	name, ok := h.queryParam(w, r, op, "name")
	if !ok {
		return
	}

	result, err := h.store.DosageDuration(name)
	if err != nil {
		h.respondWithLookupError(w, op, err, "Drug not found")
		return
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	h.RespondWithJSON(w, http.StatusOK, result)
}

// RecommendedByCondition lists the drugs whose condition text contains the query
func (h *HTTPHandlerImpl) RecommendedByCondition(w http.ResponseWriter, r *http.Request) {
	const op = "recommended_by_condition"

	condition, ok := h.queryParam(w, r, op, "condition")
	if !ok {
		return
	}

	drugs, err := h.store.RecommendByCondition(condition)
	if err != nil {
		h.respondWithLookupError(w, op, err, "No recommended drugs found for this condition")
		return
	}
	metrics.RecordLookup(op, metrics.OutcomeFound)

	h.RespondWithJSON(w, http.StatusOK, entities.RecommendationsResponse{RecommendedDrugs: drugs})
}

// IdentifyMedicineImage guesses a drug from the uploaded file's name. The file
// content is not inspected.
func (h *HTTPHandlerImpl) IdentifyMedicineImage(w http.ResponseWriter, r *http.Request) {
	const op = "identify_medicine_image"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Uploaded file too large")
			return
		}
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, "Expected a multipart/form-data body with a 'file' part")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("Failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, "No file uploaded in the 'file' part")
		return
	}
	defer file.Close()

	filename := validation.BaseFilename(header.Filename)
	if err := h.validator.ValidateFilename(filename); err != nil {
		metrics.RecordLookup(op, metrics.OutcomeInvalid)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	identified := h.store.IdentifyByFilename(filename)
	outcome := metrics.OutcomeFound
	if identified == catalog.UnknownDrug {
		outcome = metrics.OutcomeNotFound
	}
	metrics.RecordLookup(op, outcome)

	h.RespondWithJSON(w, http.StatusOK, entities.IdentificationResponse{IdentifiedDrug: identified})
}

// ServePagedDrugs returns paginated drug records
func (h *HTTPHandlerImpl) ServePagedDrugs(w http.ResponseWriter, r *http.Request) {
	pageNumber := chi.URLParam(r, "pageNumber")
	page, err := strconv.Atoi(pageNumber)
	if err != nil || page < 1 {
		logging.Warn("Unusual user input", "pageNumber", pageNumber)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	records := h.store.Records()
	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= len(records) {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}

	if end > len(records) {
		end = len(records)
	}

	totalItems := len(records)
	response := PagedDrugsResponse{
		Data:       records[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		MaxPage:    (totalItems + pageSize - 1) / pageSize,
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// HealthCheck returns the catalog health status
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()
	h.RespondWithJSON(w, httpStatus, HealthResponse{Status: status, Data: data})
}
