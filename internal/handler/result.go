package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/service"
)

// ResultHandler handles result ledger HTTP requests.
type ResultHandler struct {
	ledger *service.ResultLedger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(ledger *service.ResultLedger) *ResultHandler {
	return &ResultHandler{ledger: ledger}
}

// HandleList returns every result document.
func (h *ResultHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	results, err := h.ledger.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "list results")
		return
	}
	writeJSON(w, http.StatusOK, toResultDocuments(results))
}

// HandleGet returns a single result document.
func (h *ResultHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledger.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		writeServiceError(w, err, "get result")
		return
	}
	writeJSON(w, http.StatusOK, toResultDocument(*result))
}

// HandleCreate stores the posted document as a new result.
func (h *ResultHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	res, err := h.ledger.Create(r.Context(), body)
	if err != nil {
		writeServiceError(w, err, "create result")
		return
	}
	writeJSON(w, http.StatusOK, toInsertResponse(res))
}

// HandleUpdate replaces the fixed result fields of the document in the path.
func (h *ResultHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	res, err := h.ledger.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeServiceError(w, err, "update result")
		return
	}
	writeJSON(w, http.StatusOK, toUpdateResponse(res))
}
