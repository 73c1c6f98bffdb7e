package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eddp/analizador_cfdi/internal/infrastructure/config"
	"eddp/analizador_cfdi/internal/testutil"
)

// With AUTH_ENABLED=false (the default) the middleware must be a pass-through
// for every route of the scan API.
func TestJWTAuthenticator_Disabled(t *testing.T) {
	auth, err := NewJWTAuthenticator(config.AuthSettings{Enabled: false}, testutil.NewNullLogger())
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}
	defer auth.Close()

	next := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/api/v1/scans", "/api/v1/scans/abc/kpis"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		next.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Code)
		}
	}
}

func TestNewJWTAuthenticator_InvalidJWKSetURI(t *testing.T) {
	cfg := config.AuthSettings{
		Enabled:   true,
		IssuerURI: "https://issuer.example.com",
		JWKSetURI: "not-a-uri",
	}
	if _, err := NewJWTAuthenticator(cfg, testutil.NewNullLogger()); err == nil {
		t.Fatal("expected an error for an unusable JWK set URI")
	}
}

func TestJWTAuthenticator_shouldBypass(t *testing.T) {
	auth, err := NewJWTAuthenticator(config.AuthSettings{
		BypassPaths: []string{"/health"},
	}, testutil.NewNullLogger())
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/api/v1/scans", false},
		{"/health/extra", false}, // exact match only
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := auth.shouldBypass(tt.path); got != tt.want {
				t.Errorf("shouldBypass(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"empty header", "", "", true},
		{"no scheme", "token123", "", true},
		{"glued scheme", "Bearertoken", "", true},
		{"trailing garbage", "Bearer token extra", "", true},
		{"well formed", "Bearer token123", "token123", false},
		{"scheme is case-insensitive", "bearer token123", "token123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractBearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
