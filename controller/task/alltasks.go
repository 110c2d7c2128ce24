package task

import (
	"net/http"
	"strings"

	"taskmanager/controller/respond"
	"taskmanager/dto"
	"taskmanager/middleware"
	"taskmanager/model"
	"taskmanager/services"

	"github.com/gin-gonic/gin"
)

// ListTasks serves GET /tasks. A non-blank search switches to the search
// index, which uses the field:direction sort grammar instead of -field.
func ListTasks(c *gin.Context, tasks *services.TaskService, defaultPerPage int) {
	var query dto.TaskIndexQuery
	if !respond.BindQuery(c, &query) {
		return
	}
	user := middleware.CurrentUser(c)

	var filters services.TaskFilters
	if query.Status != nil {
		status, _ := model.ParseTaskStatus(*query.Status)
		filters.Status = &status
	}
	if query.Priority != nil {
		priority, _ := model.ParseTaskPriority(*query.Priority)
		filters.Priority = &priority
	}
	page, perPage := 1, defaultPerPage
	if query.Page != nil {
		page = *query.Page
	}
	if query.PerPage != nil {
		perPage = *query.PerPage
	}

	var (
		result *services.Page
		err    error
	)
	if text := strings.TrimSpace(query.Search); text != "" {
		sort, sortErr := services.ParseSearchSort(query.Sort)
		if sortErr != nil {
			respond.Error(c, sortErr)
			return
		}
		result, err = tasks.SearchTasks(c.Request.Context(), user.ID, text, filters, sort, page, perPage)
	} else {
		sort, sortErr := services.ParseListSort(query.Sort)
		if sortErr != nil {
			respond.Error(c, sortErr)
			return
		}
		result, err = tasks.ListTopLevelTasks(c.Request.Context(), user.ID, filters, sort, page, perPage)
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
