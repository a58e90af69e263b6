package api

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"taskhub/internal/invitation"
	"taskhub/internal/models"
)

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	projectID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	email := invitation.NormalizeEmail(req.Email)
	if email == "" {
		respondError(w, http.StatusBadRequest, errors.New("email is required"))
		return
	}

	role := models.ProjectRoleMember
	if req.Role != "" {
		role = models.ProjectRole(req.Role)
		if !role.Valid() {
			respondError(w, http.StatusBadRequest, fmt.Errorf("unknown role %q", req.Role))
			return
		}
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if _, err := a.fetchProject(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, fmt.Errorf("project %s not found", projectID))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	user, err := a.users.UserByEmail(ctx, email)
	if errors.Is(err, invitation.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("no user with email %s", email))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	var existing models.ProjectMember
	err = a.store.ORM.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, user.ID).
		First(&existing).Error
	if err == nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("%s is already a member", email))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := a.store.ORM.WithContext(ctx).Create(&member).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	member.User = &user

	a.audit(ctx, &actor.ID, "member.added", "project", projectID.String(), map[string]any{
		"user_id": user.ID.String(),
		"role":    string(role),
	})

	respondJSON(w, http.StatusCreated, map[string]any{"member": toMemberDTO(member)})
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	projectID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result := a.store.ORM.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, errors.New("membership not found"))
		return
	}

	a.audit(ctx, &actor.ID, "member.removed", "project", projectID.String(), map[string]any{
		"user_id": userID.String(),
	})

	respondJSON(w, http.StatusNoContent, nil)
}
