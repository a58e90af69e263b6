package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskhub/internal/api"
	"taskhub/internal/auth"
	"taskhub/internal/invitation"
	"taskhub/internal/store/storetest"
)

func corsProbe(t *testing.T, cfg api.Config, origin string) http.Header {
	t.Helper()

	st := storetest.New()
	app, err := api.New(api.Options{
		Gate:      invitation.New(st),
		Users:     st,
		Validator: auth.HeaderValidator{},
		Sessions:  auth.NewJWTValidator("test-signing-key", "taskhub", time.Hour, false),
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	app.Routes().ServeHTTP(rec, req)
	return rec.Result().Header
}

func TestCORSWildcardFallbackDisablesCredentials(t *testing.T) {
	headers := corsProbe(t, api.Config{}, "http://anywhere.example.com")

	if got := headers.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q, want *", got)
	}
	// Wildcard plus credentials is rejected by browsers, so the fallback must
	// not advertise credential support.
	if got := headers.Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("allow-credentials = %q, want unset", got)
	}
}

func TestCORSExplicitOriginAllowsCredentials(t *testing.T) {
	const origin = "http://app.example.com"
	headers := corsProbe(t, api.Config{AllowedOrigins: []string{origin}}, origin)

	if got := headers.Get("Access-Control-Allow-Origin"); got != origin {
		t.Fatalf("allow-origin = %q, want %q", got, origin)
	}
	if got := headers.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow-credentials = %q, want true", got)
	}
}
