package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/bus"
	"taskhub/internal/models"
)

const (
	maxProjectNameLen = 100
	maxProjectDescLen = 500
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (req *projectRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if len(req.Name) > maxProjectNameLen {
		return fmt.Errorf("name exceeds %d characters", maxProjectNameLen)
	}
	if len(req.Description) > maxProjectDescLen {
		return fmt.Errorf("description exceeds %d characters", maxProjectDescLen)
	}
	return nil
}

func (a *API) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var projects []models.Project
	err := a.store.ORM.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("Owner").
		Preload("Tasks").
		Preload("Tasks.AssignedTo").
		Preload("Members").
		Preload("Members.User").
		Order("created_at ASC").
		Find(&projects).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, toProjectDTO(p))
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": dtos})
}

func (a *API) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	project, err := a.fetchProject(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("project %s not found", id))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"project": toProjectDTO(project)})
}

func (a *API) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	project := models.Project{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     owner.ID,
		IsActive:    true,
	}
	if err := a.store.ORM.WithContext(ctx).Create(&project).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	project.Owner = &owner

	a.publishJSON(ctx, bus.SubjectProjectCreated, map[string]any{
		"project_id": project.ID,
		"owner_id":   owner.ID,
	})
	a.audit(ctx, &owner.ID, "project.created", "project", project.ID.String(), nil)

	respondJSON(w, http.StatusCreated, map[string]any{"project": toProjectDTO(project)})
}

func (a *API) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var project models.Project
	err = a.store.ORM.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("project %s not found", id))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	updates := map[string]any{
		"name":        req.Name,
		"description": req.Description,
	}
	if err := a.store.ORM.WithContext(ctx).Model(&project).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	project, err = a.fetchProject(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.publishJSON(ctx, bus.SubjectProjectUpdated, map[string]any{"project_id": id})
	a.audit(ctx, &actor.ID, "project.updated", "project", id.String(), nil)

	respondJSON(w, http.StatusOK, map[string]any{"project": toProjectDTO(project)})
}

// handleDeleteProject archives the project. Rows are retained; listings and
// lookups treat the project as gone.
func (a *API) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result := a.store.ORM.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, fmt.Errorf("project %s not found", id))
		return
	}

	a.publishJSON(ctx, bus.SubjectProjectArchived, map[string]any{"project_id": id})
	a.audit(ctx, &actor.ID, "project.archived", "project", id.String(), nil)

	respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) fetchProject(ctx context.Context, id uuid.UUID) (models.Project, error) {
	var project models.Project
	err := a.store.ORM.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		Preload("Owner").
		Preload("Tasks").
		Preload("Tasks.AssignedTo").
		Preload("Members").
		Preload("Members.User").
		First(&project).Error
	return project, err
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: must be a UUID", name)
	}
	return id, nil
}
