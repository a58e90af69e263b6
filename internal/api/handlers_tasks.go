package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/bus"
	"taskhub/internal/models"
)

const (
	maxTaskTitleLen = 200
	maxTaskDescLen  = 1000
)

type createTaskRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
}

func validateTaskTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("title is required")
	}
	if len(title) > maxTaskTitleLen {
		return "", fmt.Errorf("title exceeds %d characters", maxTaskTitleLen)
	}
	return title, nil
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	project, err := a.fetchProject(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("project %s not found", projectID))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	var tasks []models.Task
	err = a.store.ORM.WithContext(ctx).
		Where("project_id = ?", projectID).
		Preload("AssignedTo").
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, toTaskDTO(t, project.Name))
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": dtos})
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	projectID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	title, err := validateTaskTitle(req.Title)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Description) > maxTaskDescLen {
		respondError(w, http.StatusBadRequest, fmt.Errorf("description exceeds %d characters", maxTaskDescLen))
		return
	}

	priority := models.TaskPriorityMedium
	if req.Priority != "" {
		priority = models.TaskPriority(req.Priority)
		if !priority.Valid() {
			respondError(w, http.StatusBadRequest, fmt.Errorf("unknown priority %q", req.Priority))
			return
		}
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	project, err := a.fetchProject(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("project %s not found", projectID))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if req.AssignedToID != nil {
		if _, err := a.users.UserByID(ctx, *req.AssignedToID); err != nil {
			respondError(w, http.StatusBadRequest, errors.New("assignee not found"))
			return
		}
	}

	task := models.Task{
		ID:           uuid.New(),
		Title:        title,
		Description:  req.Description,
		ProjectID:    projectID,
		AssignedToID: req.AssignedToID,
		Status:       models.TaskStatusTodo,
		Priority:     priority,
		DueDate:      req.DueDate,
	}
	if err := a.store.ORM.WithContext(ctx).Create(&task).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.publishJSON(ctx, bus.SubjectTaskCreated, map[string]any{
		"task_id":    task.ID,
		"project_id": projectID,
	})
	a.audit(ctx, &actor.ID, "task.created", "task", task.ID.String(), nil)

	respondJSON(w, http.StatusCreated, map[string]any{"task": toTaskDTO(task, project.Name)})
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var task models.Task
	err = a.store.ORM.WithContext(ctx).
		Where("id = ?", id).
		Preload("Project").
		Preload("AssignedTo").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("task %s not found", id))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"task": toTaskDTO(task, "")})
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	title, err := validateTaskTitle(req.Title)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Description) > maxTaskDescLen {
		respondError(w, http.StatusBadRequest, fmt.Errorf("description exceeds %d characters", maxTaskDescLen))
		return
	}

	status := models.TaskStatus(req.Status)
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown status %q", req.Status))
		return
	}
	priority := models.TaskPriority(req.Priority)
	if !priority.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown priority %q", req.Priority))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var task models.Task
	err = a.store.ORM.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("task %s not found", id))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if req.AssignedToID != nil {
		if _, err := a.users.UserByID(ctx, *req.AssignedToID); err != nil {
			respondError(w, http.StatusBadRequest, errors.New("assignee not found"))
			return
		}
	}

	updates := map[string]any{
		"title":          title,
		"description":    req.Description,
		"assigned_to_id": req.AssignedToID,
		"status":         status,
		"priority":       priority,
		"due_date":       req.DueDate,
	}
	if err := a.store.ORM.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	err = a.store.ORM.WithContext(ctx).
		Where("id = ?", id).
		Preload("Project").
		Preload("AssignedTo").
		First(&task).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.publishJSON(ctx, bus.SubjectTaskUpdated, map[string]any{
		"task_id": id,
		"status":  status,
	})
	a.audit(ctx, &actor.ID, "task.updated", "task", id.String(), map[string]any{"status": string(status)})

	respondJSON(w, http.StatusOK, map[string]any{"task": toTaskDTO(task, "")})
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result := a.store.ORM.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, fmt.Errorf("task %s not found", id))
		return
	}

	a.publishJSON(ctx, bus.SubjectTaskDeleted, map[string]any{"task_id": id})
	a.audit(ctx, &actor.ID, "task.deleted", "task", id.String(), nil)

	respondJSON(w, http.StatusNoContent, nil)
}
