package services

import (
	"context"
	"testing"
	"time"

	"taskmanager/apperror"
	"taskmanager/database"
	"taskmanager/model"
	"taskmanager/search"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	users := NewUserService(db, bcrypt.MinCost)
	user, err := users.Register(context.Background(), RegisterInput{Name: email, Email: email, Password: "password"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

func newTaskService(t *testing.T) (*TaskService, *gorm.DB) {
	db := openTestDB(t)
	return NewTaskService(db, search.NewDatabaseIndex(db)), db
}

func mustCreate(t *testing.T, s *TaskService, owner uint, title string, parent *uint) *model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), CreateTaskInput{
		Title:    title,
		Status:   model.StatusTodo,
		Priority: model.PriorityMedium,
		ParentID: parent,
	}, owner)
	if err != nil {
		t.Fatalf("CreateTask(%q) failed: %v", title, err)
	}
	return task
}

func statusPtr(s model.TaskStatus) *model.TaskStatus       { return &s }
func priorityPtr(p model.TaskPriority) *model.TaskPriority { return &p }
func stringPtr(s string) *string                           { return &s }

func TestCreateTask_RoundTrip(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()

	created, err := s.CreateTask(ctx, CreateTaskInput{Title: "T", Status: model.StatusTodo, Priority: model.PriorityMedium}, user.ID)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	got, err := s.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "T" || got.Priority != model.PriorityMedium || got.Status != model.StatusTodo {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.UserID != user.ID {
		t.Errorf("owner = %d, want %d", got.UserID, user.ID)
	}
	if got.CompletedAt != nil {
		t.Error("a todo task must not have completed_at")
	}
}

func TestCreateTask_DoneStampsCompletedAt(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")

	task, err := s.CreateTask(context.Background(), CreateTaskInput{Title: "done already", Status: model.StatusDone, Priority: model.PriorityLow}, user.ID)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.CompletedAt == nil {
		t.Error("expected completed_at for a task created as done")
	}
}

func TestCreateTask_RejectsForeignOrMissingParent(t *testing.T) {
	s, db := newTaskService(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	bobsTask := mustCreate(t, s, bob.ID, "bob's", nil)

	for _, parent := range []uint{bobsTask.ID, 9999} {
		p := parent
		_, err := s.CreateTask(context.Background(), CreateTaskInput{Title: "x", Status: model.StatusTodo, Priority: model.PriorityLow, ParentID: &p}, alice.ID)
		appErr, ok := err.(*apperror.Error)
		if !ok || appErr.Kind != apperror.KindValidation || len(appErr.Fields["parent_id"]) == 0 {
			t.Errorf("parent %d: expected parent_id validation error, got %v", parent, err)
		}
	}
}

func TestGetTask_NotFound(t *testing.T) {
	s, _ := newTaskService(t)
	if _, err := s.GetTask(context.Background(), 42); !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGetTaskWithSubtasks_LoadsDirectChildrenOnly(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	parent := mustCreate(t, s, user.ID, "parent", nil)
	child := mustCreate(t, s, user.ID, "child", &parent.ID)
	mustCreate(t, s, user.ID, "grandchild", &child.ID)
	mustCreate(t, s, user.ID, "child 2", &parent.ID)

	got, err := s.GetTaskWithSubtasks(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("GetTaskWithSubtasks failed: %v", err)
	}
	if len(got.Subtasks) != 2 {
		t.Fatalf("subtasks = %d, want 2", len(got.Subtasks))
	}
	if got.Subtasks[0].Title != "child" || got.Subtasks[1].Title != "child 2" {
		t.Errorf("unexpected subtask order: %q, %q", got.Subtasks[0].Title, got.Subtasks[1].Title)
	}
}

func TestListTopLevelTasks_ExcludesSubtasksAndOtherOwners(t *testing.T) {
	s, db := newTaskService(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	a1 := mustCreate(t, s, alice.ID, "a1", nil)
	mustCreate(t, s, alice.ID, "a1 child", &a1.ID)
	mustCreate(t, s, alice.ID, "a2", nil)
	mustCreate(t, s, bob.ID, "b1", nil)

	page, err := s.ListTopLevelTasks(context.Background(), alice.ID, TaskFilters{}, withTieBreak(nil), 1, 15)
	if err != nil {
		t.Fatalf("ListTopLevelTasks failed: %v", err)
	}
	if page.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("got total=%d len=%d, want 2", page.Total, len(page.Data))
	}
	for _, task := range page.Data {
		if task.ParentID != nil {
			t.Errorf("task %q has a parent but was listed", task.Title)
		}
		if task.UserID != alice.ID {
			t.Errorf("task %q belongs to someone else", task.Title)
		}
	}
}

func TestListTopLevelTasks_FiltersSortsAndPaginates(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	inputs := []CreateTaskInput{
		{Title: "b", Status: model.StatusTodo, Priority: model.PriorityHigh},
		{Title: "a", Status: model.StatusTodo, Priority: model.PriorityHigh},
		{Title: "c", Status: model.StatusDone, Priority: model.PriorityHigh},
		{Title: "d", Status: model.StatusTodo, Priority: model.PriorityLow},
	}
	for _, in := range inputs {
		if _, err := s.CreateTask(ctx, in, user.ID); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	sort, err := ParseListSort("-title")
	if err != nil {
		t.Fatalf("ParseListSort failed: %v", err)
	}
	filters := TaskFilters{Status: statusPtr(model.StatusTodo), Priority: priorityPtr(model.PriorityHigh)}
	page, err := s.ListTopLevelTasks(ctx, user.ID, filters, sort, 1, 1)
	if err != nil {
		t.Fatalf("ListTopLevelTasks failed: %v", err)
	}
	if page.Total != 2 || page.LastPage != 2 || page.PerPage != 1 || page.CurrentPage != 1 {
		t.Errorf("unexpected envelope: %+v", page)
	}
	if len(page.Data) != 1 || page.Data[0].Title != "b" {
		t.Errorf("first page = %+v, want [b]", page.Data)
	}

	page, err = s.ListTopLevelTasks(ctx, user.ID, filters, sort, 2, 1)
	if err != nil {
		t.Fatalf("ListTopLevelTasks page 2 failed: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Title != "a" {
		t.Errorf("second page = %+v, want [a]", page.Data)
	}

	page, err = s.ListTopLevelTasks(ctx, user.ID, filters, sort, 3, 1)
	if err != nil {
		t.Fatalf("ListTopLevelTasks page 3 failed: %v", err)
	}
	if len(page.Data) != 0 || page.Total != 2 {
		t.Errorf("page past the end should be empty with the full total: %+v", page)
	}
}

func TestSearchTasks_IncludesSubtasksAndKeepsIndexOrder(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	ctx := context.Background()

	parent, _ := s.CreateTask(ctx, CreateTaskInput{Title: "Groceries", Status: model.StatusTodo, Priority: model.PriorityLow}, user.ID)
	s.CreateTask(ctx, CreateTaskInput{Title: "buy milk", Description: stringPtr("and GROCERIES"), Status: model.StatusTodo, Priority: model.PriorityUrgent, ParentID: &parent.ID}, user.ID)
	s.CreateTask(ctx, CreateTaskInput{Title: "walk dog", Status: model.StatusTodo, Priority: model.PriorityHigh}, user.ID)
	s.CreateTask(ctx, CreateTaskInput{Title: "groceries", Status: model.StatusTodo, Priority: model.PriorityHigh}, other.ID)

	sort, err := ParseSearchSort("priority:desc")
	if err != nil {
		t.Fatalf("ParseSearchSort failed: %v", err)
	}
	page, err := s.SearchTasks(ctx, user.ID, "groceries", TaskFilters{}, sort, 1, 15)
	if err != nil {
		t.Fatalf("SearchTasks failed: %v", err)
	}
	if page.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("got total=%d len=%d, want 2", page.Total, len(page.Data))
	}
	if page.Data[0].Title != "buy milk" || page.Data[1].Title != "Groceries" {
		t.Errorf("unexpected order: %q, %q", page.Data[0].Title, page.Data[1].Title)
	}
}

func TestUpdateTask_AppliesOnlyPresentFields(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	task, err := s.CreateTask(ctx, CreateTaskInput{Title: "before", Description: stringPtr("keep me"), Status: model.StatusTodo, Priority: model.PriorityLow}, user.ID)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	updated, err := s.UpdateTask(ctx, task, UpdateTaskInput{Title: stringPtr("after")})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != "after" {
		t.Errorf("title = %q, want after", updated.Title)
	}
	if updated.Description == nil || *updated.Description != "keep me" {
		t.Errorf("description should be untouched, got %v", updated.Description)
	}
	if updated.Priority != model.PriorityLow {
		t.Errorf("priority should be untouched, got %d", updated.Priority)
	}

	cleared, err := s.UpdateTask(ctx, updated, UpdateTaskInput{DescriptionSet: true})
	if err != nil {
		t.Fatalf("UpdateTask clearing description failed: %v", err)
	}
	if cleared.Description != nil {
		t.Errorf("description should be null, got %q", *cleared.Description)
	}
}

func TestUpdateTask_StatusTransitions(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	parent := mustCreate(t, s, user.ID, "parent", nil)
	mustCreate(t, s, user.ID, "child", &parent.ID)

	_, err := s.UpdateTask(ctx, parent, UpdateTaskInput{Status: statusPtr(model.StatusDone)})
	if !apperror.Is(err, apperror.KindInvalidState) {
		t.Fatalf("expected InvalidState with an open subtask, got %v", err)
	}

	lone := mustCreate(t, s, user.ID, "lone", nil)
	done, err := s.UpdateTask(ctx, lone, UpdateTaskInput{Status: statusPtr(model.StatusDone)})
	if err != nil {
		t.Fatalf("UpdateTask to done failed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at should be set when moving to done")
	}
	reopened, err := s.UpdateTask(ctx, done, UpdateTaskInput{Status: statusPtr(model.StatusTodo)})
	if err != nil {
		t.Fatalf("UpdateTask to todo failed: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Error("completed_at should be cleared when moving back to todo")
	}
}

func TestUpdateTask_RejectsParentCycles(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	a := mustCreate(t, s, user.ID, "a", nil)
	b := mustCreate(t, s, user.ID, "b", &a.ID)
	c := mustCreate(t, s, user.ID, "c", &b.ID)

	for name, parent := range map[string]uint{"self": a.ID, "grandchild": c.ID} {
		p := parent
		_, err := s.UpdateTask(ctx, a, UpdateTaskInput{ParentID: &p, ParentIDSet: true})
		if !apperror.Is(err, apperror.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	moved, err := s.UpdateTask(ctx, c, UpdateTaskInput{ParentID: &a.ID, ParentIDSet: true})
	if err != nil {
		t.Fatalf("moving c under a failed: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != a.ID {
		t.Errorf("parent = %v, want %d", moved.ParentID, a.ID)
	}
	detached, err := s.UpdateTask(ctx, moved, UpdateTaskInput{ParentIDSet: true})
	if err != nil {
		t.Fatalf("detaching c failed: %v", err)
	}
	if detached.ParentID != nil {
		t.Error("parent_id should be null after detaching")
	}
}

func TestDeleteTask_CompletedTaskIsInvalidState(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	task := mustCreate(t, s, user.ID, "finish me", nil)
	if _, err := s.CompleteTask(ctx, task); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	err := s.DeleteTask(ctx, task)
	if !apperror.Is(err, apperror.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if _, err := s.GetTask(ctx, task.ID); err != nil {
		t.Errorf("task should still exist: %v", err)
	}
}

func TestDeleteTask_CascadesToSubtree(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	parent := mustCreate(t, s, user.ID, "parent", nil)
	child := mustCreate(t, s, user.ID, "child", &parent.ID)
	grandchild := mustCreate(t, s, user.ID, "grandchild", &child.ID)
	keep := mustCreate(t, s, user.ID, "unrelated", nil)

	if err := s.DeleteTask(ctx, parent); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	for _, id := range []uint{parent.ID, child.ID, grandchild.ID} {
		if _, err := s.GetTask(ctx, id); !apperror.Is(err, apperror.KindNotFound) {
			t.Errorf("task %d should be gone, got %v", id, err)
		}
	}
	if _, err := s.GetTask(ctx, keep.ID); err != nil {
		t.Errorf("unrelated task should survive: %v", err)
	}
}

func TestCompleteTask_WithOpenSubtaskLeavesStatus(t *testing.T) {
	s, db := newTaskService(t)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	parent := mustCreate(t, s, user.ID, "A", nil)
	mustCreate(t, s, user.ID, "B", &parent.ID)

	_, err := s.CompleteTask(ctx, parent)
	if !apperror.Is(err, apperror.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	got, _ := s.GetTask(ctx, parent.ID)
	if got.Status != model.StatusTodo || got.CompletedAt != nil {
		t.Errorf("status changed despite the open subtask: %+v", got)
	}
}

func TestCompleteTask_SetsDoneAndCompletedAt(t *testing.T) {
	s, db := newTaskService(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()
	parent := mustCreate(t, s, user.ID, "A", nil)
	child := mustCreate(t, s, user.ID, "B", &parent.ID)

	if _, err := s.CompleteTask(ctx, child); err != nil {
		t.Fatalf("completing the subtask failed: %v", err)
	}
	done, err := s.CompleteTask(ctx, parent)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if done.Status != model.StatusDone {
		t.Errorf("status = %q, want done", done.Status)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(fixed) {
		t.Errorf("completed_at = %v, want %v", done.CompletedAt, fixed)
	}
}

type recordingIndex struct {
	search.Index
	upserted []uint
	removed  []uint
}

func (r *recordingIndex) Upsert(ctx context.Context, tasks ...model.Task) error {
	for _, task := range tasks {
		r.upserted = append(r.upserted, task.ID)
	}
	return nil
}

func (r *recordingIndex) Remove(ctx context.Context, ids ...uint) error {
	r.removed = append(r.removed, ids...)
	return nil
}

func TestTaskService_PushesProjection(t *testing.T) {
	db := openTestDB(t)
	index := &recordingIndex{Index: search.NewDatabaseIndex(db)}
	s := NewTaskService(db, index)
	user := createUser(t, db, "owner@example.com")
	ctx := context.Background()

	parent := mustCreate(t, s, user.ID, "parent", nil)
	child := mustCreate(t, s, user.ID, "child", &parent.ID)
	if len(index.upserted) != 2 {
		t.Fatalf("upserts = %v, want 2", index.upserted)
	}
	if err := s.DeleteTask(ctx, parent); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if len(index.removed) != 2 || index.removed[0] != parent.ID || index.removed[1] != child.ID {
		t.Errorf("removed = %v, want [%d %d]", index.removed, parent.ID, child.ID)
	}

	index.upserted = nil
	mustCreate(t, s, user.ID, "again", nil)
	index.upserted = nil
	sent, err := s.SyncIndex(ctx, time.Time{})
	if err != nil {
		t.Fatalf("SyncIndex failed: %v", err)
	}
	if sent != 1 || len(index.upserted) != 1 {
		t.Errorf("sent = %d upserted = %v, want 1", sent, index.upserted)
	}
}
