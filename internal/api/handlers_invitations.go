package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/bus"
	"taskhub/internal/invitation"
)

type createInvitationRequest struct {
	Email string `json:"email"`
}

func (a *API) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	inviter, ok := currentUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	var req createInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	rec, err := a.gate.Create(ctx, req.Email, inviter.ID)
	switch {
	case errors.Is(err, invitation.ErrConflict), errors.Is(err, invitation.ErrInvalidEmail):
		invitationOps.WithLabelValues("create", "conflict").Inc()
		respondError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		invitationOps.WithLabelValues("create", "error").Inc()
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	invitationOps.WithLabelValues("create", "ok").Inc()
	a.publishJSON(ctx, bus.SubjectInvitationCreated, map[string]any{
		"email":      rec.Email,
		"invited_by": rec.InvitedByUserID,
	})
	a.audit(ctx, &inviter.ID, "invitation.created", "invitation", rec.Email, nil)

	respondJSON(w, http.StatusCreated, map[string]any{"invitation": rec})
}

func (a *API) handleListPendingInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	recs, err := a.gate.Pending(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"invitations": recs})
}

func (a *API) handleRevokeInvitation(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())
	email := chi.URLParam(r, "email")

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	revoked, err := a.gate.Revoke(ctx, email)
	if err != nil {
		invitationOps.WithLabelValues("revoke", "error").Inc()
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if !revoked {
		respondError(w, http.StatusNotFound, fmt.Errorf("no pending invitation for %s", invitation.NormalizeEmail(email)))
		return
	}

	invitationOps.WithLabelValues("revoke", "ok").Inc()
	a.publishJSON(ctx, bus.SubjectInvitationRevoked, map[string]any{
		"email": invitation.NormalizeEmail(email),
	})
	a.audit(ctx, &actor.ID, "invitation.revoked", "invitation", invitation.NormalizeEmail(email), nil)

	respondJSON(w, http.StatusOK, map[string]any{"message": "invitation revoked"})
}

func (a *API) handleInvitationStatus(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	authorized, err := a.gate.IsAuthorized(ctx, email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"email":         invitation.NormalizeEmail(email),
		"is_authorized": authorized,
	})
}
