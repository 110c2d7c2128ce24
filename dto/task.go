package dto

import "taskmanager/model"

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,notblank,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"required,oneof=todo done"`
	Priority    *int    `json:"priority" binding:"required,oneof=1 2 3 4 5"`
	ParentID    *uint   `json:"parent_id"`
}

// UpdateTaskRequest accepts any subset of fields; a field that is present
// must still satisfy its full rule.
type UpdateTaskRequest struct {
	Title       *string        `json:"title" binding:"omitempty,notblank,max=255"`
	Description NullableString `json:"description"`
	Status      *string        `json:"status" binding:"omitempty,oneof=todo done"`
	Priority    *int           `json:"priority" binding:"omitempty,oneof=1 2 3 4 5"`
	ParentID    NullableUint   `json:"parent_id"`
}

type TaskIndexQuery struct {
	Status   *string `form:"status" binding:"omitempty,oneof=todo done"`
	Priority *int    `form:"priority" binding:"omitempty,min=1,max=5"`
	Search   string  `form:"search"`
	Sort     string  `form:"sort"`
	Page     *int    `form:"page" binding:"omitempty,min=1"`
	PerPage  *int    `form:"per_page" binding:"omitempty,min=1"`
}

// TaskDetailResponse is a task with its direct subtasks attached.
type TaskDetailResponse struct {
	model.Task
	Subtasks []model.Task `json:"subtasks"`
}

func NewTaskDetailResponse(task *model.Task) TaskDetailResponse {
	subtasks := task.Subtasks
	if subtasks == nil {
		subtasks = []model.Task{}
	}
	return TaskDetailResponse{Task: *task, Subtasks: subtasks}
}
