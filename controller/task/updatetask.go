package task

import (
	"net/http"

	"taskmanager/controller/respond"
	"taskmanager/dto"
	"taskmanager/middleware"
	"taskmanager/policy"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

func UpdateTask(c *gin.Context, tasks *services.TaskService) {
	task, ok := loadTask(c, tasks, false)
	if !ok {
		return
	}
	if err := policy.AuthorizeUpdate(middleware.CurrentUser(c), task); err != nil {
		respond.Error(c, err)
		return
	}
	var req dto.UpdateTaskRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	updated, err := tasks.UpdateTask(c.Request.Context(), task, toUpdateInput(&req))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
