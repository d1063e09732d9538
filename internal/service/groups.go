package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
)

type CreateGroupInput struct {
	Name       string
	LeadID     uuid.UUID
	MaxMembers int
}

func groupTarget(g *model.Group) authz.Target {
	return authz.Target{LeadID: &g.LeadID}
}

func (u *unit) checkGroupName(name string, excluding *uuid.UUID) error {
	if name == "" {
		return apperrors.ConstraintViolation("group name must not be empty")
	}
	taken, err := u.repos.Groups.NameTaken(u.ctx, name, excluding)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.WithMetadata(apperrors.KindConstraintViolation,
			"group name is already taken",
			map[string]string{"name": name},
		)
	}
	return nil
}

// ensureNotLeadingOther — руководителя одной группы нельзя перевести в другую.
func (u *unit) ensureNotLeadingOther(p *model.Professional, group uuid.UUID) error {
	led, err := u.repos.Groups.LedBy(u.ctx, p.ID)
	if err != nil {
		return err
	}
	if led != nil && led.ID != group {
		return apperrors.WithMetadata(apperrors.KindConstraintViolation,
			"professional leads another group",
			map[string]string{"professional_id": p.ID.String(), "group_id": led.ID.String()},
		)
	}
	return nil
}

// moveMember переводит специалиста в группу; уход из прежней группы пишется в её журнал.
func (u *unit) moveMember(p *model.Professional, to *uuid.UUID) error {
	changes := model.Changes{}
	changes.Track("group_id", p.GroupID, to)
	if changes.Empty() {
		return nil
	}
	if err := u.repos.Professionals.Update(u.ctx, p.ID, changes); err != nil {
		return err
	}
	if p.GroupID != nil {
		left := model.Changes{}
		left.Track("member_id", p.ID, nil)
		u.record(model.EntityGroup, *p.GroupID, model.AuditMemberRemoved, left)
	}
	p.GroupID = to
	return nil
}

// CreateGroup создаёт группу; руководитель сразу становится её участником.
func (s *Service) CreateGroup(ctx context.Context, p authz.Principal, in CreateGroupInput) (model.Group, error) {
	var out model.Group
	err := s.run(ctx, "CreateGroup", p, func(u *unit) error {
		if err := u.authorize(authz.GroupCreate, authz.Target{}); err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		if err := u.checkGroupName(name, nil); err != nil {
			return err
		}
		if in.MaxMembers < 1 {
			return apperrors.ConstraintViolation("group max_members must be at least 1")
		}
		lead, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, in.LeadID)
		if err != nil {
			return err
		}
		if err := u.ensureNotLeadingOther(lead, uuid.Nil); err != nil {
			return err
		}

		g := model.Group{
			ID:         uuid.New(),
			Name:       name,
			LeadID:     lead.ID,
			MaxMembers: in.MaxMembers,
			CreatedBy:  u.actor.ID,
		}
		if err := u.repos.Groups.Create(u.ctx, &g); err != nil {
			return err
		}
		u.record(model.EntityGroup, g.ID, model.AuditCreated, model.Created(g.Snapshot()))
		if err := u.moveMember(lead, &g.ID); err != nil {
			return err
		}
		out = g
		return nil
	})
	return out, err
}

// UpdateGroup меняет имя, лимит и руководителя. Новый руководитель должен
// уже состоять в группе, лимит не опускается ниже численности.
func (s *Service) UpdateGroup(ctx context.Context, p authz.Principal, groupID uuid.UUID, patch model.GroupPatch) (model.Group, []string, error) {
	var (
		out     model.Group
		changed []string
	)
	err := s.run(ctx, "UpdateGroup", p, func(u *unit) error {
		g, err := u.repos.Groups.GetByIDForUpdate(u.ctx, groupID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.GroupUpdate, groupTarget(g)); err != nil {
			return err
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			patch.Name = &name
		}
		changes := patch.Apply(*g)
		if changes.Empty() {
			return apperrors.NoChange("group")
		}
		if _, ok := changes["name"]; ok {
			if err := u.checkGroupName(*patch.Name, &g.ID); err != nil {
				return err
			}
		}
		if _, ok := changes["max_members"]; ok {
			if err := u.svc.admission.CheckGroupLimit(u.ctx, u.counter(), *g, *patch.MaxMembers); err != nil {
				return err
			}
		}
		if _, ok := changes["lead_id"]; ok {
			lead, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, *patch.LeadID)
			if err != nil {
				return err
			}
			if lead.GroupID == nil || *lead.GroupID != g.ID {
				return apperrors.ConstraintViolation("new group lead must already be a member of the group")
			}
		}

		if err := u.repos.Groups.Update(u.ctx, g.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityGroup, g.ID, model.AuditUpdated, changes)

		fresh, err := u.repos.Groups.GetByIDForUpdate(u.ctx, g.ID)
		if err != nil {
			return err
		}
		out, changed = *fresh, changes.Fields()
		return nil
	})
	return out, changed, err
}

// AddMember добавляет специалиста в группу (с переводом из прежней).
func (s *Service) AddMember(ctx context.Context, p authz.Principal, groupID, professionalID uuid.UUID) (model.Professional, error) {
	var out model.Professional
	err := s.run(ctx, "AddMember", p, func(u *unit) error {
		g, err := u.repos.Groups.GetByIDForUpdate(u.ctx, groupID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.GroupAddMember, groupTarget(g)); err != nil {
			return err
		}
		member, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, professionalID)
		if err != nil {
			return err
		}
		if member.GroupID != nil && *member.GroupID == g.ID {
			return apperrors.NoChange("group membership")
		}
		if err := u.ensureNotLeadingOther(member, g.ID); err != nil {
			return err
		}
		if err := u.svc.admission.AdmitGroupMember(u.ctx, u.counter(), *g, *member); err != nil {
			return err
		}
		if err := u.moveMember(member, &g.ID); err != nil {
			return err
		}
		changes := model.Changes{}
		changes.Track("member_id", nil, member.ID)
		u.record(model.EntityGroup, g.ID, model.AuditMemberAdded, changes)
		out = *member
		return nil
	})
	return out, err
}

// RemoveMember исключает участника; руководителя исключить нельзя.
// Исключение всегда допустимо по вместимости.
func (s *Service) RemoveMember(ctx context.Context, p authz.Principal, groupID, professionalID uuid.UUID) error {
	return s.run(ctx, "RemoveMember", p, func(u *unit) error {
		g, err := u.repos.Groups.GetByIDForUpdate(u.ctx, groupID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.GroupRemoveMember, groupTarget(g)); err != nil {
			return err
		}
		member, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, professionalID)
		if err != nil {
			return err
		}
		if member.GroupID == nil || *member.GroupID != g.ID {
			return apperrors.NoChange("group membership")
		}
		if member.ID == g.LeadID {
			return apperrors.ConstraintViolation("the group lead cannot be removed; assign another lead first")
		}
		return u.moveMember(member, nil)
	})
}

// DeleteGroup распускает группу: участники остаются без группы.
func (s *Service) DeleteGroup(ctx context.Context, p authz.Principal, groupID uuid.UUID) error {
	return s.run(ctx, "DeleteGroup", p, func(u *unit) error {
		g, err := u.repos.Groups.GetByIDForUpdate(u.ctx, groupID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.GroupDelete, groupTarget(g)); err != nil {
			return err
		}
		if _, err := u.repos.Professionals.DetachFromGroup(u.ctx, g.ID); err != nil {
			return err
		}
		if err := u.repos.Groups.Delete(u.ctx, g.ID); err != nil {
			return err
		}
		u.record(model.EntityGroup, g.ID, model.AuditDeleted, model.Deleted(g.Snapshot()))
		return nil
	})
}
