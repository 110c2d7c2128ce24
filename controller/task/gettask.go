package task

import (
	"net/http"

	"taskmanager/apperror"
	"taskmanager/controller/respond"
	"taskmanager/dto"
	"taskmanager/middleware"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

// GetTask returns the task with its direct subtasks. Another user's task is
// reported as missing.
func GetTask(c *gin.Context, tasks *services.TaskService) {
	task, ok := loadTask(c, tasks, true)
	if !ok {
		return
	}
	if task.UserID != middleware.CurrentUser(c).ID {
		respond.Error(c, apperror.NotFound("Task not found"))
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskDetailResponse(task))
}
