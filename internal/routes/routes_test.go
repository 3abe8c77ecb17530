package routes

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/greenstash/greenstash/internal/app"
	"github.com/greenstash/greenstash/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		AppName:            "GreenStash",
		AppEnv:             "development",
		DBDriver:           "sqlite",
		DBConnection:       filepath.Join(t.TempDir(), "data", "test.db") + "?_pragma=foreign_keys(1)",
		AutoMigrate:        true,
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		CORSAllowedOrigins: []string{"https://app.example"},
		BackupImagePolicy:  "fail",
		BackupTimezone:     "UTC",
		DateStyle:          "dd/MM/yyyy",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t)
	h := SetupRoutes(a)

	token, err := a.TokenService.GenerateJWT("laptop")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   bool
		status int
	}{
		{"health is public", http.MethodGet, "/health", "", false, http.StatusOK},
		{"api needs token", http.MethodGet, "/api/goals", "", false, http.StatusUnauthorized},
		{"list goals", http.MethodGet, "/api/goals", "", true, http.StatusOK},
		{"create goal", http.MethodPost, "/api/goals", `{"title":"Boat","targetAmount":"20000"}`, true, http.StatusCreated},
		{"export", http.MethodGet, "/api/backup", "", true, http.StatusOK},
		{"snapshots disabled", http.MethodPost, "/api/snapshots", "", true, http.StatusServiceUnavailable},
		{"unknown goal", http.MethodGet, "/api/goals/nope", "", true, http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/goals", "", true, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := SetupRoutes(newTestApp(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/goals", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/goals", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allowed origin %q", got)
	}
}
