package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	v := NewJWTValidator("secret", "taskhub", time.Hour, false)

	token, expires, err := v.IssueSession(Principal{
		Email:   "user@example.com",
		Subject: "ext-42",
		Name:    "Test User",
	})
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatal("expiry must be in the future")
	}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		p, err := v.Principal(req)
		if err != nil {
			t.Fatalf("Principal: %v", err)
		}
		if p.Email != "user@example.com" || p.Subject != "ext-42" || p.Name != "Test User" {
			t.Fatalf("principal = %+v", p)
		}
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(v.SessionCookie(token, expires))

		p, err := v.Principal(req)
		if err != nil {
			t.Fatalf("Principal: %v", err)
		}
		if p.Email != "user@example.com" {
			t.Fatalf("email = %q", p.Email)
		}
	})
}

func TestJWTRejections(t *testing.T) {
	v := NewJWTValidator("secret", "taskhub", time.Hour, false)

	t.Run("no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := v.Principal(req); !errors.Is(err, ErrNoPrincipal) {
			t.Fatalf("err = %v, want ErrNoPrincipal", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTValidator("other-secret", "taskhub", time.Hour, false)
		token, _, err := other.IssueSession(Principal{Email: "user@example.com"})
		if err != nil {
			t.Fatalf("IssueSession: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := v.Principal(req); err == nil {
			t.Fatal("expected rejection for foreign signature")
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTValidator("secret", "someone-else", time.Hour, false)
		token, _, err := other.IssueSession(Principal{Email: "user@example.com"})
		if err != nil {
			t.Fatalf("IssueSession: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := v.Principal(req); err == nil {
			t.Fatal("expected rejection for wrong issuer")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		stale := NewJWTValidator("secret", "taskhub", -time.Minute, false)
		token, _, err := stale.IssueSession(Principal{Email: "user@example.com"})
		if err != nil {
			t.Fatalf("IssueSession: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := v.Principal(req); err == nil {
			t.Fatal("expected rejection for expired token")
		}
	})

	t.Run("malformed bearer value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		if _, err := v.Principal(req); !errors.Is(err, ErrNoPrincipal) {
			t.Fatalf("err = %v, want ErrNoPrincipal", err)
		}
	})
}

func TestClearSessionCookie(t *testing.T) {
	v := NewJWTValidator("secret", "taskhub", time.Hour, true)

	c := v.ClearSessionCookie()
	if c.Name != SessionCookieName {
		t.Fatalf("name = %q", c.Name)
	}
	if c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("cookie %+v does not expire the session", c)
	}
	if !c.Secure {
		t.Fatal("secure flag must carry through")
	}
}

func TestHeaderValidator(t *testing.T) {
	v := HeaderValidator{}

	t.Run("all headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderEmail, "user@example.com")
		req.Header.Set(HeaderSubject, "ext-9")
		req.Header.Set(HeaderName, "Test User")

		p, err := v.Principal(req)
		if err != nil {
			t.Fatalf("Principal: %v", err)
		}
		if p.Email != "user@example.com" || p.Subject != "ext-9" || p.Name != "Test User" {
			t.Fatalf("principal = %+v", p)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderSubject, "ext-9")
		if _, err := v.Principal(req); !errors.Is(err, ErrNoPrincipal) {
			t.Fatalf("err = %v, want ErrNoPrincipal", err)
		}
	})
}
