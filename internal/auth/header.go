package auth

import "net/http"

// Identity headers set by an authenticating reverse proxy.
const (
	HeaderEmail   = "X-Auth-Email"
	HeaderSubject = "X-Auth-Subject"
	HeaderName    = "X-Auth-Name"
)

// HeaderValidator trusts identity headers stamped by an upstream proxy that
// already terminated OAuth. Only deploy it behind such a proxy; the API does
// no verification of its own in this mode.
type HeaderValidator struct{}

// Principal implements Validator.
func (HeaderValidator) Principal(r *http.Request) (Principal, error) {
	email := r.Header.Get(HeaderEmail)
	if email == "" {
		return Principal{}, ErrNoPrincipal
	}
	return Principal{
		Email:   email,
		Subject: r.Header.Get(HeaderSubject),
		Name:    r.Header.Get(HeaderName),
	}, nil
}
