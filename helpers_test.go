package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse-battery"

func testConfig() Config {
	return Config{
		Port:             "0",
		JWTSecret:        "test-secret",
		AuthMode:         authModeToken,
		TokenTTL:         time.Hour,
		SessionTTL:       time.Hour,
		AllowedOrigins:   []string{"http://localhost:5173"},
		BcryptCost:       bcrypt.MinCost,
		AuthRateLimit:    1000,
		AuthRateWindow:   time.Minute,
		CreateRateLimit:  1000,
		CreateRateWindow: time.Minute,
	}
}

// newTestServer runs the real handler stack against a fresh SQLite file.
func newTestServer(t *testing.T, opts ...func(*Config)) (*server, http.Handler) {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "test.db")

	db, err := openDB(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	s, err := newServer(cfg, db)
	require.NoError(t, err)
	return s, s.routes()
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func registerUser(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"emailAddress": email, "password": testPassword})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[authResponse](t, rec).Token
}

type createResponse struct {
	Message       string         `json:"message"`
	ApplicationID string         `json:"applicationId"`
	NewApp        JobApplication `json:"newApp"`
}

func createApplication(t *testing.T, h http.Handler, token string, body map[string]any) JobApplication {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/v1/applications", body, withToken(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[createResponse](t, rec).NewApp
}

type listResponse struct {
	Applications []JobApplication `json:"applications"`
	Sort         string           `json:"sort"`
	Filter       string           `json:"filter"`
	Search       string           `json:"search"`
}

func listApplications(t *testing.T, h http.Handler, token, query string) listResponse {
	t.Helper()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/applications"+query, nil, withToken(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[listResponse](t, rec)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}
