package handler

import (
	"net/http"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/observability"
	"github.com/msomdec/result-processing/internal/service"
)

// TokenHandler issues bearer tokens.
type TokenHandler struct {
	tokens  *service.TokenService
	metrics *observability.Metrics
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokens *service.TokenService, metrics *observability.Metrics) *TokenHandler {
	return &TokenHandler{tokens: tokens, metrics: metrics}
}

// HandleIssue signs the posted claims object. The claims are not checked
// against any stored user.
func (h *TokenHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	token, err := h.tokens.Issue(domain.Claims(body))
	if err != nil {
		writeServiceError(w, err, "issue token")
		return
	}
	h.metrics.TokenIssued()

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
