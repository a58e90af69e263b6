package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName carries the session token issued by the login callback.
const SessionCookieName = "taskhub_session"

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HMAC-signed tokens from either the Authorization
// header or the session cookie, and mints session tokens for the callback.
type JWTValidator struct {
	key    []byte
	issuer string
	ttl    time.Duration
	secure bool
}

// NewJWTValidator builds a validator for the given signing key. ttl bounds the
// session tokens it issues; secure controls the cookie's Secure flag.
func NewJWTValidator(key, issuer string, ttl time.Duration, secure bool) *JWTValidator {
	return &JWTValidator{key: []byte(key), issuer: issuer, ttl: ttl, secure: secure}
}

// Principal implements Validator. Bearer tokens win over the session cookie.
func (v *JWTValidator) Principal(r *http.Request) (Principal, error) {
	raw := bearerToken(r)
	if raw == "" {
		if c, err := r.Cookie(SessionCookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return Principal{}, ErrNoPrincipal
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return Principal{}, ErrNoPrincipal
	}

	return Principal{
		Email:   claims.Email,
		Subject: claims.Subject,
		Name:    claims.Name,
	}, nil
}

// IssueSession mints a signed session token for the principal.
func (v *JWTValidator) IssueSession(p Principal) (string, time.Time, error) {
	now := time.Now().UTC()
	expires := now.Add(v.ttl)

	claims := sessionClaims{
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// SessionCookie wraps a signed token in the session cookie.
func (v *JWTValidator) SessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie expires the session cookie immediately.
func (v *JWTValidator) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
