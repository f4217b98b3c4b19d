package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docuforge/docuforge/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"https://app.example.fr"}
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.Sessions = config.BackendMemory
	cfg.JWT.Secret = "main-test-secret"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	cfg.Render.EscapeHTML = true
	return cfg
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := memoryConfig()
	b, err := openBackends(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	r, err := newRouter(ctx, cfg, b)
	require.NoError(t, err)
	return r
}

func call(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReadyAndCORS(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "", "").Code)
	w := call(r, http.MethodGet, "/ready", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "https://app.example.fr")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.fr", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/templates", "", "").Code)
}

func TestSignUpToDocumentFlow(t *testing.T) {
	r := newTestRouter(t)

	w := call(r, http.MethodPost, "/auth/signup", "", `{"email":"jeanne@example.fr","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = call(r, http.MethodPost, "/auth/signin", "", `{"email":"jeanne@example.fr","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	tok := pair.AccessToken

	w = call(r, http.MethodGet, "/api/templates", tok, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodPost, "/api/documents", tok, `{"template_id":"devis","data":{
		"numero":"D-2024-001","emetteur_nom":"Dupont SARL","client_nom":"Martin",
		"objet":"Refonte du site","montant_ht":"1234.5","date_emission":"2024-01-15"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Content, "DEVIS N° D-2024-001")
	assert.Contains(t, doc.Content, "1 234,50 €")

	w = call(r, http.MethodGet, "/api/documents/stats", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"devis":1`)

	require.Equal(t, http.StatusNoContent, call(r, http.MethodDelete, "/api/v1/me", tok, "").Code)

	// the account and its documents are gone
	w = call(r, http.MethodPost, "/auth/signup", "", `{"email":"jeanne@example.fr","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = call(r, http.MethodPost, "/auth/signin", "", `{"email":"jeanne@example.fr","password":"secret1"}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	w = call(r, http.MethodGet, "/api/documents", pair.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
