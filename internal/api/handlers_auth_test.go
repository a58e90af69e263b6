package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/api"
	"taskhub/internal/auth"
	"taskhub/internal/invitation"
	"taskhub/internal/models"
	"taskhub/internal/store/storetest"
)

type testEnv struct {
	handler http.Handler
	store   *storetest.MemStore
	gate    *invitation.Gate
	admin   models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := storetest.New()
	admin := models.User{
		ID:        uuid.New(),
		Email:     "admin@example.com",
		FirstName: "Ada",
		LastName:  "Admin",
		IsActive:  true,
	}
	st.SeedUser(admin)

	gate := invitation.New(st)
	app, err := api.New(api.Options{
		Gate:      gate,
		Users:     st,
		Validator: auth.HeaderValidator{},
		Sessions:  auth.NewJWTValidator("test-signing-key", "taskhub", time.Hour, false),
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}

	return &testEnv{handler: app.Routes(), store: st, gate: gate, admin: admin}
}

func (e *testEnv) do(t *testing.T, method, path, body string, identity map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range identity {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func asAdmin(e *testEnv) map[string]string {
	return map[string]string{
		auth.HeaderEmail:   e.admin.Email,
		auth.HeaderSubject: "ext-admin",
		auth.HeaderName:    "Ada Admin",
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLoginCallbackMissingAssertion(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/login-callback", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginCallbackMissingEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/login-callback", "", map[string]string{
		auth.HeaderEmail: "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginCallbackDenied(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/login-callback", "", map[string]string{
		auth.HeaderEmail:   "stranger@example.com",
		auth.HeaderSubject: "ext-777",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decodeBody(t, rec, &body)
	if body.Error != "access_denied" {
		t.Fatalf("error = %q, want access_denied", body.Error)
	}
	if body.Message == "" {
		t.Fatal("expected a human-readable message")
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected a session-clearing cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("cookie %+v does not clear the session", cookie)
	}

	// Denial must not create any account.
	if _, err := env.store.UserByEmail(context.Background(), "stranger@example.com"); err == nil {
		t.Fatal("denied login must not create a user")
	}
}

func TestLoginCallbackFirstLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.gate.Create(ctx, "new@example.com", env.admin.ID); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/auth/login-callback", "", map[string]string{
		auth.HeaderEmail:   "New@Example.com",
		auth.HeaderSubject: "g-123",
		auth.HeaderName:    "New Person",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		ExternalID   string `json:"external_id"`
		IsAuthorized bool   `json:"is_authorized"`
	}
	decodeBody(t, rec, &body)
	if !body.IsAuthorized {
		t.Fatal("expected is_authorized true")
	}
	if body.Email != "new@example.com" {
		t.Fatalf("email = %q, want normalized form", body.Email)
	}
	if body.ExternalID != "g-123" {
		t.Fatalf("external_id = %q, want g-123", body.ExternalID)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}

	// The invitation is consumed and the account exists.
	user, err := env.store.UserByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if user.ExternalID == nil || *user.ExternalID != "g-123" {
		t.Fatalf("external id = %v, want g-123", user.ExternalID)
	}

	pending, err := env.gate.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending count = %d, want 0", len(pending))
	}
}

func TestLoginCallbackAcceptFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.gate.Create(ctx, "new@example.com", env.admin.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	env.store.FailCreateUser = errors.New("disk full")
	rec := env.do(t, http.MethodGet, "/auth/login-callback", "", map[string]string{
		auth.HeaderEmail:   "new@example.com",
		auth.HeaderSubject: "g-123",
	})
	env.store.FailCreateUser = nil

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
	if c := sessionCookie(rec); c != nil && c.Value != "" {
		t.Fatal("failed login must not issue a session cookie")
	}

	// The transaction rolled back: no account, invitation still pending.
	if _, err := env.store.UserByEmail(ctx, "new@example.com"); err == nil {
		t.Fatal("failed accept must not leave a user row")
	}
	inv, ok := env.store.InvitationByID(created.ID)
	if !ok {
		t.Fatal("invitation row missing")
	}
	if inv.IsAccepted || inv.IsRevoked {
		t.Fatal("invitation must stay pending after a failed accept")
	}

	// The next login succeeds.
	rec = env.do(t, http.MethodGet, "/auth/login-callback", "", map[string]string{
		auth.HeaderEmail:   "new@example.com",
		auth.HeaderSubject: "g-123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if _, err := env.store.UserByEmail(ctx, "new@example.com"); err != nil {
		t.Fatalf("UserByEmail after retry: %v", err)
	}
}

func TestLoginCallbackReturningUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/login-callback", "", asAdmin(env))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := env.store.UserCount(); got != 1 {
		t.Fatalf("user count = %d, want 1", got)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	validator := auth.NewJWTValidator("test-signing-key", "taskhub", time.Hour, false)
	token, expires, err := validator.IssueSession(auth.Principal{
		Email:   env.admin.Email,
		Subject: "ext-admin",
		Name:    "Ada Admin",
	})
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.AddCookie(validator.SessionCookie(token, expires))

	p, err := validator.Principal(req)
	if err != nil {
		t.Fatalf("Principal: %v", err)
	}
	if p.Email != env.admin.Email || p.Subject != "ext-admin" {
		t.Fatalf("principal = %+v", p)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatal("expected session-clearing cookie")
	}
}

func TestAuthStatus(t *testing.T) {
	env := newTestEnv(t)

	var body struct {
		IsAuthenticated bool `json:"is_authenticated"`
	}

	rec := env.do(t, http.MethodGet, "/auth/status", "", nil)
	decodeBody(t, rec, &body)
	if body.IsAuthenticated {
		t.Fatal("anonymous request must not be authenticated")
	}

	rec = env.do(t, http.MethodGet, "/auth/status", "", asAdmin(env))
	decodeBody(t, rec, &body)
	if !body.IsAuthenticated {
		t.Fatal("identified request must be authenticated")
	}
}

func TestRequireUserRejectsUnknownPrincipal(t *testing.T) {
	env := newTestEnv(t)

	// Authenticated but without an accepted account.
	rec := env.do(t, http.MethodGet, "/v1/invitations/pending", "", map[string]string{
		auth.HeaderEmail: "stranger@example.com",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/v1/invitations/pending", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
