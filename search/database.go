package search

import (
	"context"
	"strings"

	"taskmanager/database"
	"taskmanager/model"

	"gorm.io/gorm"
)

// DatabaseIndex searches the tasks table directly with LIKE, so there is no
// separate projection to maintain.
type DatabaseIndex struct {
	db *gorm.DB
}

func NewDatabaseIndex(db *gorm.DB) *DatabaseIndex {
	return &DatabaseIndex{db: db}
}

func (i *DatabaseIndex) Upsert(ctx context.Context, tasks ...model.Task) error { return nil }

func (i *DatabaseIndex) Remove(ctx context.Context, ids ...uint) error { return nil }

func (i *DatabaseIndex) Search(ctx context.Context, q Query) (Result, error) {
	tx := i.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", q.UserID)
	if text := strings.TrimSpace(q.Text); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.Priority != nil {
		tx = tx.Where("priority = ?", *q.Priority)
	}
	tx = tx.Session(&gorm.Session{})

	var res Result
	if err := tx.Count(&res.Total).Error; err != nil {
		return Result{}, err
	}
	if err := tx.Scopes(database.OrderBy(q.Sort), database.Paginate(q.Page, q.PerPage)).Pluck("id", &res.IDs).Error; err != nil {
		return Result{}, err
	}
	return res, nil
}
