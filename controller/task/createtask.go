package task

import (
	"net/http"

	"taskmanager/controller/respond"
	"taskmanager/dto"
	"taskmanager/middleware"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

func CreateTask(c *gin.Context, tasks *services.TaskService) {
	var req dto.CreateTaskRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	task, err := tasks.CreateTask(c.Request.Context(), toCreateInput(&req), middleware.CurrentUser(c).ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}
