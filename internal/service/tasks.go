package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/lifecycle"
	"github.com/Leganyst/mci-platform/internal/model"
)

type CreateTaskInput struct {
	AssigneeID  uuid.UUID
	Description string
	Priority    model.Priority
	DueDate     *time.Time
}

func parsePriority(p model.Priority) (model.Priority, error) {
	v, err := model.ParsePriority(string(p))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindConstraintViolation, err.Error(), err)
	}
	return v, nil
}

func checkDueDate(due *time.Time, now time.Time) error {
	if due != nil && due.Before(now) {
		return apperrors.ConstraintViolation("task due_date must not be in the past")
	}
	return nil
}

func (s *Service) CreateTask(ctx context.Context, p authz.Principal, eventID uuid.UUID, in CreateTaskInput) (model.Task, error) {
	var out model.Task
	err := s.run(ctx, "CreateTask", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.TaskCreate, eventTarget(e.ID)); err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}
		description := strings.TrimSpace(in.Description)
		if description == "" {
			return apperrors.ConstraintViolation("task description must not be empty")
		}
		priority, err := parsePriority(in.Priority)
		if err != nil {
			return err
		}
		if err := checkDueDate(in.DueDate, u.now); err != nil {
			return err
		}
		if _, err := u.repos.Professionals.GetByID(u.ctx, in.AssigneeID); err != nil {
			return err
		}

		t := model.Task{
			ID:          uuid.New(),
			EventID:     e.ID,
			CreatedBy:   u.actor.ID,
			AssignedTo:  in.AssigneeID,
			Description: description,
			Status:      model.TaskStatusPending,
			Priority:    priority,
			DueDate:     utcPtr(in.DueDate),
		}
		if err := u.repos.Tasks.Create(u.ctx, &t); err != nil {
			return err
		}
		u.record(model.EntityTask, t.ID, model.AuditCreated, model.Created(t.Snapshot()))
		out = t
		return nil
	})
	return out, err
}

func taskTarget(t *model.Task) authz.Target {
	return authz.Target{EventID: &t.EventID, CreatorID: &t.CreatedBy, AssigneeID: &t.AssignedTo}
}

// UpdateTask применяет патч задачи. Статус проверяется по таблице переходов;
// статус, равный текущему, переходом не считается. Закрытую задачу
// (completed, cancelled) меняют только автор и командир.
func (s *Service) UpdateTask(ctx context.Context, p authz.Principal, taskID uuid.UUID, patch model.TaskPatch) (model.Task, []string, error) {
	var (
		out     model.Task
		changed []string
	)
	err := s.run(ctx, "UpdateTask", p, func(u *unit) error {
		t, err := u.repos.Tasks.GetByIDForUpdate(u.ctx, taskID)
		if err != nil {
			return err
		}
		target := taskTarget(t)
		if err := u.authorize(authz.TaskUpdate, target); err != nil {
			return err
		}
		if t.Status.IsLocked() && !u.isCommander() && t.CreatedBy != u.actor.ID {
			return apperrors.WithMetadata(apperrors.KindTaskLocked,
				"task is "+string(t.Status)+"; only its creator or a commander may change it",
				map[string]string{"task_id": t.ID.String(), "status": string(t.Status)},
			)
		}

		if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
			return apperrors.ConstraintViolation("task description must not be empty")
		}
		if patch.Priority != nil {
			priority, err := parsePriority(*patch.Priority)
			if err != nil {
				return err
			}
			patch.Priority = &priority
		}

		changes := patch.Apply(*t)
		if _, ok := changes["assigned_to"]; ok {
			if err := u.authorize(authz.TaskReassign, target); err != nil {
				return err
			}
			if _, err := u.repos.Professionals.GetByID(u.ctx, *patch.AssignedTo); err != nil {
				return err
			}
		}

		transition := patch.Status != nil && *patch.Status != t.Status
		if transition {
			if err := u.authorizeTaskTransition(t, *patch.Status, target); err != nil {
				return err
			}
			if err := lifecycle.ApplyTaskTransition(changes, *t, *patch.Status, u.now); err != nil {
				return err
			}
		}

		completing := transition && *patch.Status == model.TaskStatusCompleted
		if _, ok := changes["due_date"]; ok && !completing {
			if err := checkDueDate(patch.DueDate.Value, u.now); err != nil {
				return err
			}
		}
		if changes.Empty() {
			return apperrors.NoChange("task")
		}

		if err := u.repos.Tasks.Update(u.ctx, t.ID, changes); err != nil {
			return err
		}
		action := model.AuditUpdated
		if transition {
			action = model.AuditTransitioned
		}
		u.record(model.EntityTask, t.ID, action, changes)

		fresh, err := u.repos.Tasks.GetByID(u.ctx, t.ID)
		if err != nil {
			return err
		}
		out, changed = *fresh, changes.Fields()
		return nil
	})
	return out, changed, err
}

// authorizeTaskTransition: отмену и повторное открытие делает только автор.
func (u *unit) authorizeTaskTransition(t *model.Task, to model.TaskStatus, target authz.Target) error {
	switch {
	case to == model.TaskStatusCancelled:
		return u.authorize(authz.TaskCancel, target)
	case t.Status.IsLocked():
		return u.authorize(authz.TaskReopen, target)
	}
	return nil
}

// CancelTask — единственный способ «удалить» задачу: переход в cancelled.
func (s *Service) CancelTask(ctx context.Context, p authz.Principal, taskID uuid.UUID) (model.Task, error) {
	var out model.Task
	err := s.run(ctx, "CancelTask", p, func(u *unit) error {
		t, err := u.repos.Tasks.GetByIDForUpdate(u.ctx, taskID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.TaskCancel, taskTarget(t)); err != nil {
			return err
		}
		if t.Status == model.TaskStatusCancelled {
			return apperrors.NoChange("task")
		}
		changes := model.Changes{}
		if err := lifecycle.ApplyTaskTransition(changes, *t, model.TaskStatusCancelled, u.now); err != nil {
			return err
		}
		if err := u.repos.Tasks.Update(u.ctx, t.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityTask, t.ID, model.AuditTransitioned, changes)

		fresh, err := u.repos.Tasks.GetByID(u.ctx, t.ID)
		if err != nil {
			return err
		}
		out = *fresh
		return nil
	})
	return out, err
}
