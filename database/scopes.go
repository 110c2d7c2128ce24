package database

import (
	"math"

	"taskmanager/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderBy applies the sort fields in order. Column names must already be
// validated against model.TaskColumns.
func OrderBy(fields []model.SortField) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range fields {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: f.Column}, Desc: f.Desc})
		}
		return db
	}
}

// MaxOffset is the largest row offset Paginate will ask for.
const MaxOffset = math.MaxInt32

// PageOffset returns the row offset of a 1-based page, and false when that
// offset would exceed MaxOffset.
func PageOffset(page, perPage int) (int, bool) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if page-1 > MaxOffset/perPage {
		return 0, false
	}
	return (page - 1) * perPage, true
}

// Paginate selects one 1-based page. A page past MaxOffset matches nothing.
func Paginate(page, perPage int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset, ok := PageOffset(page, perPage)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Offset(offset).Limit(perPage)
	}
}
