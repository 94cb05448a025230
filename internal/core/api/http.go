package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solatis/docguard/internal/types"
)

// maxBodyBytes caps request bodies; extracted documents are small JSON.
const maxBodyBytes = 4 << 20

// Handlers serves the JSON HTTP API over a ValidationService.
type Handlers struct {
	service *ValidationService
	logger  *zap.Logger
}

// NewHandlers creates HTTP handlers for service.
func NewHandlers(service *ValidationService, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{service: service, logger: logger}
}

// Routes mounts the /v1 API on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/documents/{id}/validate", h.ValidateDocument)
		v1.Get("/documents/{id}/checks", h.ListChecks)
		v1.Get("/documents/{id}/issues", h.ListIssues)
		v1.Post("/documents/{id}/review", h.Review)
		v1.Get("/rules", h.ListRules)
	})
}

type validateRequest struct {
	DocumentType string          `json:"documentType"`
	Content      json.RawMessage `json:"content"`
}

type reviewRequest struct {
	Status types.DocumentStatus `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ValidateDocument handles POST /v1/documents/{id}/validate.
func (h *Handlers) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	content, err := types.DecodeContent(req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	outcome, err := h.service.ValidateDocument(r.Context(), documentID(r), req.DocumentType, content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// ListChecks handles GET /v1/documents/{id}/checks.
func (h *Handlers) ListChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := h.service.ListChecks(r.Context(), documentID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"checks": checks})
}

// ListIssues handles GET /v1/documents/{id}/issues.
func (h *Handlers) ListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.ListIssues(r.Context(), documentID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}

// Review handles POST /v1/documents/{id}/review.
func (h *Handlers) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.service.Review(r.Context(), documentID(r), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documentId": doc.ID,
		"status":     doc.Status,
		"flagged":    doc.Flagged,
	})
}

// ListRules handles GET /v1/rules?documentType=.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	ruleSet, err := h.service.ListRules(r.Context(), r.URL.Query().Get("documentType"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rules": ruleSet})
}

func documentID(r *http.Request) types.DocumentID {
	return types.DocumentID(chi.URLParam(r, "id"))
}

func decodeBody(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", types.ErrInvalidRequest, err)
	}
	return nil
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
