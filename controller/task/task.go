package task

import (
	"strconv"
	"strings"

	"taskmanager/apperror"
	"taskmanager/controller/respond"
	"taskmanager/dto"
	"taskmanager/model"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

func TaskController(router *gin.RouterGroup, tasks *services.TaskService, auth gin.HandlerFunc, defaultPerPage int) {
	routes := router.Group("/tasks", auth)
	{
		routes.GET("", func(c *gin.Context) {
			ListTasks(c, tasks, defaultPerPage)
		})
		routes.POST("", func(c *gin.Context) {
			CreateTask(c, tasks)
		})
		routes.GET("/:taskid", func(c *gin.Context) {
			GetTask(c, tasks)
		})
		routes.PUT("/:taskid", func(c *gin.Context) {
			UpdateTask(c, tasks)
		})
		routes.DELETE("/:taskid", func(c *gin.Context) {
			DeleteTask(c, tasks)
		})
		routes.PATCH("/:taskid/complete", func(c *gin.Context) {
			FinishTask(c, tasks)
		})
	}
}

// loadTask resolves the :taskid path parameter. An id that is not a number
// is treated like a missing task.
func loadTask(c *gin.Context, tasks *services.TaskService, withSubtasks bool) (*model.Task, bool) {
	id, err := strconv.ParseUint(c.Param("taskid"), 10, 64)
	if err != nil || id == 0 {
		respond.Error(c, apperror.NotFound("Task not found"))
		return nil, false
	}
	var task *model.Task
	if withSubtasks {
		task, err = tasks.GetTaskWithSubtasks(c.Request.Context(), uint(id))
	} else {
		task, err = tasks.GetTask(c.Request.Context(), uint(id))
	}
	if err != nil {
		respond.Error(c, err)
		return nil, false
	}
	return task, true
}

// toCreateInput converts a request that already passed binding validation.
func toCreateInput(req *dto.CreateTaskRequest) services.CreateTaskInput {
	status, _ := model.ParseTaskStatus(*req.Status)
	priority, _ := model.ParseTaskPriority(*req.Priority)
	return services.CreateTaskInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		ParentID:    req.ParentID,
	}
}

func toUpdateInput(req *dto.UpdateTaskRequest) services.UpdateTaskInput {
	var in services.UpdateTaskInput
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		in.Title = &title
	}
	if req.Status != nil {
		status, _ := model.ParseTaskStatus(*req.Status)
		in.Status = &status
	}
	if req.Priority != nil {
		priority, _ := model.ParseTaskPriority(*req.Priority)
		in.Priority = &priority
	}
	in.Description, in.DescriptionSet = req.Description.Value, req.Description.Set
	in.ParentID, in.ParentIDSet = req.ParentID.Value, req.ParentID.Set
	return in
}
