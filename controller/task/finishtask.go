package task

import (
	"net/http"

	"taskmanager/controller/respond"
	"taskmanager/middleware"
	"taskmanager/policy"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

// FinishTask serves PATCH /tasks/:taskid/complete. The policy looks at the
// subtasks loaded here and the service checks them again before writing.
func FinishTask(c *gin.Context, tasks *services.TaskService) {
	task, ok := loadTask(c, tasks, true)
	if !ok {
		return
	}
	if err := policy.AuthorizeComplete(middleware.CurrentUser(c), task); err != nil {
		respond.Error(c, err)
		return
	}

	completed, err := tasks.CompleteTask(c.Request.Context(), task)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, completed)
}
