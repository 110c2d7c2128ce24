package model

// SortField is one ORDER BY term over a task column.
type SortField struct {
	Column string
	Desc   bool
}
