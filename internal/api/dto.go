package api

import (
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
)

// ProjectDTO is the wire shape of a project with its members and tasks.
type ProjectDTO struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description,omitempty"`
	OwnerID            uuid.UUID   `json:"owner_id"`
	OwnerName          string      `json:"owner_name"`
	IsActive           bool        `json:"is_active"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	Members            []MemberDTO `json:"members"`
	Tasks              []TaskDTO   `json:"tasks"`
	TaskCount          int         `json:"task_count"`
	CompletedTaskCount int         `json:"completed_task_count"`
}

// TaskDTO is the wire shape of a task with denormalized names.
type TaskDTO struct {
	ID             uuid.UUID           `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	ProjectID      uuid.UUID           `json:"project_id"`
	ProjectName    string              `json:"project_name,omitempty"`
	AssignedToID   *uuid.UUID          `json:"assigned_to_id,omitempty"`
	AssignedToName string              `json:"assigned_to_name,omitempty"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// MemberDTO is the wire shape of a project membership.
type MemberDTO struct {
	ProjectID uuid.UUID          `json:"project_id"`
	UserID    uuid.UUID          `json:"user_id"`
	UserName  string             `json:"user_name"`
	UserEmail string             `json:"user_email"`
	Role      models.ProjectRole `json:"role"`
	JoinedAt  time.Time          `json:"joined_at"`
}

func toProjectDTO(p models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Members:     make([]MemberDTO, 0, len(p.Members)),
		Tasks:       make([]TaskDTO, 0, len(p.Tasks)),
	}
	if p.Owner != nil {
		dto.OwnerName = p.Owner.DisplayName()
	}
	for _, m := range p.Members {
		dto.Members = append(dto.Members, toMemberDTO(m))
	}
	for _, t := range p.Tasks {
		dto.Tasks = append(dto.Tasks, toTaskDTO(t, p.Name))
		if t.Status == models.TaskStatusDone {
			dto.CompletedTaskCount++
		}
	}
	dto.TaskCount = len(dto.Tasks)
	return dto
}

func toTaskDTO(t models.Task, projectName string) TaskDTO {
	dto := TaskDTO{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		ProjectID:    t.ProjectID,
		ProjectName:  projectName,
		AssignedToID: t.AssignedToID,
		Status:       t.Status,
		Priority:     t.Priority,
		DueDate:      t.DueDate,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.AssignedTo != nil {
		dto.AssignedToName = t.AssignedTo.DisplayName()
	}
	if projectName == "" && t.Project != nil {
		dto.ProjectName = t.Project.Name
	}
	return dto
}

func toMemberDTO(m models.ProjectMember) MemberDTO {
	dto := MemberDTO{
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      m.Role,
		JoinedAt:  m.JoinedAt,
	}
	if m.User != nil {
		dto.UserName = m.User.DisplayName()
		dto.UserEmail = m.User.Email
	}
	return dto
}
