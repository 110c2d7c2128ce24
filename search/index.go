// Package search keeps a denormalized projection of tasks that can be
// queried by free text plus equality filters. Writes to the projection are
// eventually consistent with the tasks table.
package search

import (
	"context"
	"strings"
	"time"
	"unicode"

	"taskmanager/model"
)

// Query is a free-text lookup scoped to one owner.
type Query struct {
	Text     string
	UserID   uint
	Status   *model.TaskStatus
	Priority *model.TaskPriority
	Sort     []model.SortField
	Page     int
	PerPage  int
}

// Result holds the ids of one page of matches, in rank order, and the total match count.
type Result struct {
	IDs   []uint
	Total int64
}

type Index interface {
	Upsert(ctx context.Context, tasks ...model.Task) error
	Remove(ctx context.Context, ids ...uint) error
	Search(ctx context.Context, q Query) (Result, error)
}

// Document is the projection pushed for each task.
type Document struct {
	ID          int64      `firestore:"id"`
	Title       string     `firestore:"title"`
	Description *string    `firestore:"description"`
	Status      string     `firestore:"status"`
	Priority    int64      `firestore:"priority"`
	CompletedAt *time.Time `firestore:"completed_at"`
	UserID      int64      `firestore:"user_id"`
	ParentID    *int64     `firestore:"parent_id"`
	CreatedAt   time.Time  `firestore:"created_at"`
	UpdatedAt   time.Time  `firestore:"updated_at"`
	Keywords    []string   `firestore:"keywords"`
}

func NewDocument(task *model.Task) Document {
	doc := Document{
		ID:          int64(task.ID),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    int64(task.Priority),
		CompletedAt: task.CompletedAt,
		UserID:      int64(task.UserID),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.ParentID != nil {
		parent := int64(*task.ParentID)
		doc.ParentID = &parent
	}
	text := task.Title
	if task.Description != nil {
		text += " " + *task.Description
	}
	doc.Keywords = Tokenize(text)
	return doc
}

// Tokenize lower-cases text and splits it into unique words, keeping first-seen order.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
