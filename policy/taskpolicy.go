// Package policy decides whether a principal may mutate a task. The
// predicates are pure: callers must load the task's subtasks before asking
// about completion.
package policy

import (
	"taskmanager/apperror"
	"taskmanager/model"
)

const (
	MessageUnauthorized      = "This action is unauthorized."
	MessageDeleteCompleted   = "Cannot delete a completed task"
	MessageIncompleteSubtask = "Cannot complete a task with incomplete subtasks"
)

func isOwner(user *model.User, task *model.Task) bool {
	return user != nil && task != nil && user.ID == task.UserID
}

func CanUpdate(user *model.User, task *model.Task) bool {
	return isOwner(user, task)
}

func CanDelete(user *model.User, task *model.Task) bool {
	return isOwner(user, task) && task.Status != model.StatusDone
}

func CanComplete(user *model.User, task *model.Task) bool {
	return isOwner(user, task) && !task.HasOpenSubtasks()
}

// AuthorizeUpdate returns a Forbidden error unless CanUpdate holds.
func AuthorizeUpdate(user *model.User, task *model.Task) error {
	if !CanUpdate(user, task) {
		return apperror.Forbidden(MessageUnauthorized)
	}
	return nil
}

// AuthorizeDelete distinguishes a foreign task (Forbidden) from a completed
// one (InvalidState) so the caller can report the business rule.
func AuthorizeDelete(user *model.User, task *model.Task) error {
	if !isOwner(user, task) {
		return apperror.Forbidden(MessageUnauthorized)
	}
	if !CanDelete(user, task) {
		return apperror.InvalidState(MessageDeleteCompleted)
	}
	return nil
}

func AuthorizeComplete(user *model.User, task *model.Task) error {
	if !isOwner(user, task) {
		return apperror.Forbidden(MessageUnauthorized)
	}
	if !CanComplete(user, task) {
		return apperror.InvalidState(MessageIncompleteSubtask)
	}
	return nil
}
