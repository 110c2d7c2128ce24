package services

import (
	"fmt"
	"strings"

	"taskmanager/apperror"
	"taskmanager/model"
)

// TaskFilters are optional equality filters; nil means not applied.
type TaskFilters struct {
	Status   *model.TaskStatus
	Priority *model.TaskPriority
}

// Page is the paginated listing envelope.
type Page struct {
	Data        []model.Task `json:"data"`
	CurrentPage int          `json:"current_page"`
	LastPage    int          `json:"last_page"`
	PerPage     int          `json:"per_page"`
	Total       int64        `json:"total"`
}

func newPage(tasks []model.Task, page, perPage int, total int64) *Page {
	if tasks == nil {
		tasks = []model.Task{}
	}
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return &Page{Data: tasks, CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total}
}

func invalidSort(format string, args ...any) error {
	return apperror.FieldError("sort", fmt.Sprintf(format, args...))
}

// ParseListSort reads the listing grammar: comma-separated columns, each
// optionally prefixed with "-" for descending order ("-created_at,title").
func ParseListSort(raw string) ([]model.SortField, error) {
	var fields []model.SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := model.SortField{Column: part}
		if strings.HasPrefix(part, "-") {
			f = model.SortField{Column: part[1:], Desc: true}
		}
		if !model.IsTaskColumn(f.Column) {
			return nil, invalidSort("The sort field %q is not sortable.", part)
		}
		fields = append(fields, f)
	}
	return withTieBreak(fields), nil
}

// ParseSearchSort reads the search grammar: comma-separated columns, each
// optionally suffixed with ":asc" or ":desc" ("priority:asc,created_at:desc").
func ParseSearchSort(raw string) ([]model.SortField, error) {
	var fields []model.SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		column, direction, hasDirection := strings.Cut(part, ":")
		column = strings.TrimSpace(column)
		f := model.SortField{Column: column}
		if hasDirection {
			switch strings.ToLower(strings.TrimSpace(direction)) {
			case "asc":
			case "desc":
				f.Desc = true
			default:
				return nil, invalidSort("The sort direction %q is invalid.", direction)
			}
		}
		if !model.IsTaskColumn(f.Column) {
			return nil, invalidSort("The sort field %q is not sortable.", column)
		}
		fields = append(fields, f)
	}
	return withTieBreak(fields), nil
}

// withTieBreak appends id ascending so equal keys come back in insertion order.
func withTieBreak(fields []model.SortField) []model.SortField {
	for _, f := range fields {
		if f.Column == "id" {
			return fields
		}
	}
	return append(fields, model.SortField{Column: "id"})
}
