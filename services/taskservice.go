package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taskmanager/apperror"
	"taskmanager/database"
	"taskmanager/model"
	"taskmanager/policy"
	"taskmanager/search"

	"gorm.io/gorm"
)

const messageTaskNotFound = "Task not found"

// CreateTaskInput is a validated creation request. Status and Priority are
// already parsed, so the service never re-validates them.
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	ParentID    *uint
}

// UpdateTaskInput carries only the fields present in a partial update.
// Description and ParentID are nullable, so presence is tracked separately
// from the value.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	ParentID       *uint
	ParentIDSet    bool
}

type TaskService struct {
	db    *gorm.DB
	index search.Index
	now   func() time.Time
}

func NewTaskService(db *gorm.DB, index search.Index) *TaskService {
	return &TaskService{db: db, index: index, now: time.Now}
}

// ListTopLevelTasks pages through the owner's tasks that have no parent.
func (s *TaskService) ListTopLevelTasks(ctx context.Context, userID uint, filters TaskFilters, sort []model.SortField, page, perPage int) (*Page, error) {
	tx := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ?", userID).
		Where("parent_id IS NULL")
	tx = applyFilters(tx, filters).Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var tasks []model.Task
	if err := tx.Scopes(database.OrderBy(sort), database.Paginate(page, perPage)).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return newPage(tasks, page, perPage, total), nil
}

// SearchTasks runs a free-text query through the search index and hydrates
// the matching rows in the order the index ranked them. Rows deleted since
// the index was written are skipped.
func (s *TaskService) SearchTasks(ctx context.Context, userID uint, text string, filters TaskFilters, sort []model.SortField, page, perPage int) (*Page, error) {
	res, err := s.index.Search(ctx, search.Query{
		Text:     text,
		UserID:   userID,
		Status:   filters.Status,
		Priority: filters.Priority,
		Sort:     sort,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	if len(res.IDs) == 0 {
		return newPage(nil, page, perPage, res.Total), nil
	}

	var rows []model.Task
	if err := s.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, res.IDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Task, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	tasks := make([]model.Task, 0, len(res.IDs))
	for _, id := range res.IDs {
		if task, ok := byID[id]; ok {
			tasks = append(tasks, task)
		}
	}
	return newPage(tasks, page, perPage, res.Total), nil
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(messageTaskNotFound)
		}
		return nil, err
	}
	return &task, nil
}

// GetTaskWithSubtasks loads the task and its direct children ordered by id.
func (s *TaskService) GetTaskWithSubtasks(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(messageTaskNotFound)
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput, ownerID uint) (*model.Task, error) {
	if in.ParentID != nil {
		if err := s.checkParent(ctx, ownerID, 0, *in.ParentID); err != nil {
			return nil, err
		}
	}
	task := model.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		ParentID:    in.ParentID,
	}
	if task.Status == model.StatusDone {
		now := s.now()
		task.CompletedAt = &now
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}
	s.pushToIndex(ctx, &task)
	return &task, nil
}

// UpdateTask writes only the fields present in the input. Moving a task to
// done applies the same subtask rule as CompleteTask; moving it back to todo
// clears completed_at.
func (s *TaskService) UpdateTask(ctx context.Context, task *model.Task, in UpdateTaskInput) (*model.Task, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.DescriptionSet {
		if in.Description == nil {
			updates["description"] = nil
		} else {
			updates["description"] = *in.Description
		}
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.ParentIDSet {
		if in.ParentID == nil {
			updates["parent_id"] = nil
		} else {
			if err := s.checkParent(ctx, task.UserID, task.ID, *in.ParentID); err != nil {
				return nil, err
			}
			updates["parent_id"] = *in.ParentID
		}
	}
	if in.Status != nil && *in.Status != task.Status {
		switch *in.Status {
		case model.StatusDone:
			open, err := s.countOpenSubtasks(ctx, task.ID)
			if err != nil {
				return nil, err
			}
			if open > 0 {
				return nil, apperror.InvalidState(policy.MessageIncompleteSubtask)
			}
			updates["completed_at"] = s.now()
		case model.StatusTodo:
			updates["completed_at"] = nil
		}
		updates["status"] = *in.Status
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	updated, err := s.GetTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	s.pushToIndex(ctx, updated)
	return updated, nil
}

// DeleteTask removes the task and its whole subtree.
func (s *TaskService) DeleteTask(ctx context.Context, task *model.Task) error {
	current, err := s.GetTask(ctx, task.ID)
	if err != nil {
		return err
	}
	if current.IsDone() {
		return apperror.InvalidState(policy.MessageDeleteCompleted)
	}

	ids, err := s.subtreeIDs(ctx, current.ID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Task{}).Error; err != nil {
		return err
	}
	if err := s.index.Remove(ctx, ids...); err != nil {
		log.Printf("[search] remove tasks %v: %v", ids, err)
	}
	return nil
}

// CompleteTask marks the task done. It re-reads the subtasks from the
// database rather than trusting whatever the caller loaded.
func (s *TaskService) CompleteTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	open, err := s.countOpenSubtasks(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, apperror.InvalidState(policy.MessageIncompleteSubtask)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
		"status":       model.StatusDone,
		"completed_at": now,
		"updated_at":   now,
	}).Error
	if err != nil {
		return nil, err
	}
	completed, err := s.GetTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	s.pushToIndex(ctx, completed)
	return completed, nil
}

// SyncIndex pushes every task updated at or after since into the search
// index and returns how many were sent.
func (s *TaskService) SyncIndex(ctx context.Context, since time.Time) (int, error) {
	var (
		batch []model.Task
		sent  int
	)
	tx := s.db.WithContext(ctx).Model(&model.Task{})
	if !since.IsZero() {
		tx = tx.Where("updated_at >= ?", since)
	}
	result := tx.FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
		if err := s.index.Upsert(ctx, batch...); err != nil {
			return err
		}
		sent += len(batch)
		return nil
	})
	if result.Error != nil {
		return sent, fmt.Errorf("sync index: %w", result.Error)
	}
	return sent, nil
}

func applyFilters(tx *gorm.DB, filters TaskFilters) *gorm.DB {
	if filters.Status != nil {
		tx = tx.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		tx = tx.Where("priority = ?", *filters.Priority)
	}
	return tx
}

func (s *TaskService) countOpenSubtasks(ctx context.Context, taskID uint) (int64, error) {
	var open int64
	err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("parent_id = ? AND status <> ?", taskID, model.StatusDone).
		Count(&open).Error
	return open, err
}

// checkParent accepts parentID only if it is one of the owner's tasks and is
// neither taskID itself nor one of its descendants. taskID is 0 on create.
func (s *TaskService) checkParent(ctx context.Context, ownerID, taskID, parentID uint) error {
	invalid := apperror.FieldError("parent_id", "The selected parent id is invalid.")
	if taskID != 0 && parentID == taskID {
		return invalid
	}

	var parent model.Task
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", parentID, ownerID).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if taskID == 0 {
		return nil
	}

	seen := map[uint]bool{parent.ID: true}
	next := parent.ParentID
	for next != nil {
		if *next == taskID || seen[*next] {
			return invalid
		}
		seen[*next] = true
		var ancestor model.Task
		if err := s.db.WithContext(ctx).Select("id", "parent_id").First(&ancestor, *next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		next = ancestor.ParentID
	}
	return nil
}

// subtreeIDs returns rootID followed by every descendant, breadth first.
func (s *TaskService) subtreeIDs(ctx context.Context, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		var children []uint
		err := s.db.WithContext(ctx).Model(&model.Task{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

// pushToIndex is best effort; the scheduler's sync job repairs any gap.
func (s *TaskService) pushToIndex(ctx context.Context, task *model.Task) {
	if err := s.index.Upsert(ctx, *task); err != nil {
		log.Printf("[search] upsert task %d: %v", task.ID, err)
	}
}
