package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	NewHandlers(f.service, nil).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestHTTP_ValidateAndList(t *testing.T) {
	h := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/v1/documents/doc-1/validate",
		`{"documentType":"invoice","content":{"currency":"EUR","invoice_number":"INV-7"}}`)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "pending_verification", body["status"])
	assert.Equal(t, false, body["flagged"])
	assert.Len(t, body["checks"], 2)
	require.Len(t, body["issues"], 1)
	issue := body["issues"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "currency", issue["field"])
	assert.Equal(t, "medium", issue["severity"])

	rec, body = do(t, h, http.MethodGet, "/v1/documents/doc-1/checks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["checks"], 2)

	rec, body = do(t, h, http.MethodGet, "/v1/documents/doc-1/issues", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["issues"], 1)

	rec, body = do(t, h, http.MethodGet, "/v1/rules?documentType=invoice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["rules"], 2)
}

func TestHTTP_Review(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := do(t, h, http.MethodPost, "/v1/documents/doc-1/validate", `{"documentType":"invoice","content":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/v1/documents/doc-1/review", `{"status":"verified"}`)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "verified", body["status"])
	assert.Equal(t, true, body["flagged"])

	rec, body = do(t, h, http.MethodPost, "/v1/documents/doc-1/review", `{"status":"rejected"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, body["error"], "invalid document status transition")
}

func TestHTTP_Errors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"malformed body", http.MethodPost, "/v1/documents/doc-1/validate", `{"documentType":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/documents/doc-1/validate", `{"documentType":"invoice","extra":1}`, http.StatusBadRequest},
		{"content not an object", http.MethodPost, "/v1/documents/doc-1/validate", `{"documentType":"invoice","content":[1,2]}`, http.StatusBadRequest},
		{"missing document type", http.MethodPost, "/v1/documents/doc-1/validate", `{"content":{}}`, http.StatusBadRequest},
		{"checks of unknown document", http.MethodGet, "/v1/documents/nope/checks", "", http.StatusNotFound},
		{"issues of unknown document", http.MethodGet, "/v1/documents/nope/issues", "", http.StatusNotFound},
		{"review of unknown document", http.MethodPost, "/v1/documents/nope/review", `{"status":"verified"}`, http.StatusNotFound},
		{"bad review status", http.MethodPost, "/v1/documents/nope/review", `{"status":"pending"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, body)
			assert.NotEmpty(t, body["error"])
		})
	}
}
