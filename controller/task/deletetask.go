package task

import (
	"net/http"

	"taskmanager/controller/respond"
	"taskmanager/middleware"
	"taskmanager/policy"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

func DeleteTask(c *gin.Context, tasks *services.TaskService) {
	task, ok := loadTask(c, tasks, false)
	if !ok {
		return
	}
	if err := policy.AuthorizeDelete(middleware.CurrentUser(c), task); err != nil {
		respond.Error(c, err)
		return
	}
	if err := tasks.DeleteTask(c.Request.Context(), task); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
