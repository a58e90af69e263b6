package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"taskhub/internal/bus"
	"taskhub/internal/invitation"
)

// handleLoginCallback is the entry point after the external identity provider
// has asserted who the caller is. The flow is: no email claim → 400; not
// authorized → clear session, 401; otherwise finalize any pending invitation
// and establish the session. Authorization denial is a business outcome, not
// an error.
func (a *API) handleLoginCallback(w http.ResponseWriter, r *http.Request) {
	p, err := a.validator.Principal(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("authentication assertion missing"))
		return
	}

	email := invitation.NormalizeEmail(p.Email)
	if email == "" {
		respondError(w, http.StatusBadRequest, errors.New("email claim is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	authorized, err := a.gate.IsAuthorized(ctx, email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if !authorized {
		a.clearSession(w)
		authDecisions.WithLabelValues("deny").Inc()
		log.Warn().Str("email", email).Msg("sign-in denied: not invited")
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"error":   "access_denied",
			"message": "this email is not invited to use the system",
		})
		return
	}

	// A no-op for returning users; first logins flip their pending invitation
	// to accepted and create the account. A store failure here means no user
	// row exists yet, so no session may be issued.
	if p.Subject != "" {
		accepted, err := a.gate.Accept(ctx, email, p.Subject)
		if err != nil {
			invitationOps.WithLabelValues("accept", "error").Inc()
			log.Error().Err(err).Str("email", email).Msg("accept invitation")
			respondError(w, http.StatusInternalServerError, errors.New("could not finalize invitation"))
			return
		}
		if accepted {
			invitationOps.WithLabelValues("accept", "ok").Inc()
			a.publishJSON(ctx, bus.SubjectInvitationAccepted, map[string]any{
				"email":       email,
				"external_id": p.Subject,
			})
			a.audit(ctx, nil, "invitation.accepted", "invitation", email, nil)
		}
	}

	if a.sessions != nil {
		token, expires, err := a.sessions.IssueSession(p)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		http.SetCookie(w, a.sessions.SessionCookie(token, expires))
	}

	authDecisions.WithLabelValues("allow").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"name":          p.Name,
		"email":         email,
		"external_id":   p.Subject,
		"is_authorized": true,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, _ *http.Request) {
	a.clearSession(w)
	respondJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	p, err := a.validator.Principal(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"name":        p.Name,
		"email":       invitation.NormalizeEmail(p.Email),
		"external_id": p.Subject,
	})
}

func (a *API) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	_, err := a.validator.Principal(r)
	respondJSON(w, http.StatusOK, map[string]any{
		"is_authenticated": err == nil,
	})
}

func (a *API) clearSession(w http.ResponseWriter) {
	if a.sessions == nil {
		return
	}
	http.SetCookie(w, a.sessions.ClearSessionCookie())
}
