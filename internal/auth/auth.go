// Package auth abstracts how the API learns who is calling it. The hosting
// variants of the service differ only in which Validator they install: signed
// bearer/session tokens, or identity headers set by an authenticating proxy.
package auth

import (
	"errors"
	"net/http"
)

// Principal is the identity asserted by the external provider.
type Principal struct {
	Email   string
	Subject string // provider subject id, e.g. the OAuth "sub" claim
	Name    string
}

// ErrNoPrincipal indicates the request carries no usable identity assertion.
var ErrNoPrincipal = errors.New("no authenticated principal")

// Validator extracts the authenticated principal from a request.
type Validator interface {
	Principal(r *http.Request) (Principal, error)
}
