package service

import (
	"testing"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

func TestCreateGroup_LeadBecomesMember(t *testing.T) {
	f := newFixture(t)
	lead := f.professional("Lead", model.RoleMERTMember)

	g, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: lead.ID, MaxMembers: 3})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	if got := f.load(lead); got.GroupID == nil || *got.GroupID != g.ID {
		t.Fatalf("lead group_id = %v, want %s", got.GroupID, g.ID)
	}

	_, err = f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: f.commander.ID, MaxMembers: 3})
	wantKind(t, err, apperrors.KindConstraintViolation)
	_, err = f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Bravo", LeadID: lead.ID, MaxMembers: 3})
	wantKind(t, err, apperrors.KindConstraintViolation)
	_, err = f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Charlie", LeadID: f.commander.ID, MaxMembers: 0})
	wantKind(t, err, apperrors.KindConstraintViolation)
	_, err = f.svc.CreateGroup(f.ctx, lead, CreateGroupInput{Name: "Delta", LeadID: lead.ID, MaxMembers: 3})
	wantKind(t, err, apperrors.KindForbidden)
}

func TestGroupMembershipRules(t *testing.T) {
	f := newFixture(t)
	lead := f.professional("Lead", model.RoleMERTMember)
	g, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: lead.ID, MaxMembers: 2})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	first := f.professional("First", model.RoleVolunteer)
	second := f.professional("Second", model.RoleVolunteer)

	if _, err := f.svc.AddMember(f.ctx, lead, g.ID, first.ID); err != nil {
		t.Fatalf("AddMember error = %v", err)
	}
	_, err = f.svc.AddMember(f.ctx, lead, g.ID, first.ID)
	wantKind(t, err, apperrors.KindNoChange)
	_, err = f.svc.AddMember(f.ctx, lead, g.ID, second.ID)
	wantKind(t, err, apperrors.KindCapacityExceeded)
	_, err = f.svc.AddMember(f.ctx, first, g.ID, second.ID)
	wantKind(t, err, apperrors.KindForbidden)

	wantKind(t, f.svc.RemoveMember(f.ctx, lead, g.ID, lead.ID), apperrors.KindConstraintViolation)
	wantKind(t, f.svc.RemoveMember(f.ctx, lead, g.ID, second.ID), apperrors.KindNoChange)

	max := 1
	_, _, err = f.svc.UpdateGroup(f.ctx, lead, g.ID, model.GroupPatch{MaxMembers: &max})
	wantKind(t, err, apperrors.KindCapacityExceeded)

	if err := f.svc.RemoveMember(f.ctx, lead, g.ID, first.ID); err != nil {
		t.Fatalf("RemoveMember error = %v", err)
	}
	updated, fields, err := f.svc.UpdateGroup(f.ctx, lead, g.ID, model.GroupPatch{MaxMembers: &max})
	if err != nil {
		t.Fatalf("UpdateGroup error = %v", err)
	}
	if updated.MaxMembers != 1 || len(fields) != 1 {
		t.Fatalf("UpdateGroup = (%d, %v), want max 1", updated.MaxMembers, fields)
	}

	want := []model.AuditAction{model.AuditCreated, model.AuditMemberAdded, model.AuditMemberRemoved, model.AuditUpdated}
	got := f.auditActions(model.EntityGroup, g.ID)
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("audit actions = %v, want %v", got, want)
		}
	}
}

func TestAddMember_LeadOfAnotherGroup(t *testing.T) {
	f := newFixture(t)
	alphaLead := f.professional("Alpha lead", model.RoleMERTMember)
	bravoLead := f.professional("Bravo lead", model.RoleMERTMember)
	alpha, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: alphaLead.ID, MaxMembers: 5})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	if _, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Bravo", LeadID: bravoLead.ID, MaxMembers: 5}); err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}

	_, err = f.svc.AddMember(f.ctx, f.commander, alpha.ID, bravoLead.ID)
	wantKind(t, err, apperrors.KindConstraintViolation)
}

func TestAddMember_MovesFromPreviousGroup(t *testing.T) {
	f := newFixture(t)
	alpha, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: f.professional("A", model.RoleMERTMember).ID, MaxMembers: 5})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	bravo, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Bravo", LeadID: f.professional("B", model.RoleMERTMember).ID, MaxMembers: 5})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	member := f.professional("Member", model.RoleVolunteer)

	if _, err := f.svc.AddMember(f.ctx, f.commander, alpha.ID, member.ID); err != nil {
		t.Fatalf("AddMember(alpha) error = %v", err)
	}
	got, err := f.svc.AddMember(f.ctx, f.commander, bravo.ID, member.ID)
	if err != nil {
		t.Fatalf("AddMember(bravo) error = %v", err)
	}
	if got.GroupID == nil || *got.GroupID != bravo.ID {
		t.Fatalf("group_id = %v, want %s", got.GroupID, bravo.ID)
	}
	actions := f.auditActions(model.EntityGroup, alpha.ID)
	if last := actions[len(actions)-1]; last != model.AuditMemberRemoved {
		t.Fatalf("alpha last action = %s, want %s", last, model.AuditMemberRemoved)
	}
}

func TestUpdateGroup_LeadMustBeMember(t *testing.T) {
	f := newFixture(t)
	lead := f.professional("Lead", model.RoleMERTMember)
	g, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: lead.ID, MaxMembers: 5})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	candidate := f.professional("Candidate", model.RoleMERTMember)

	_, _, err = f.svc.UpdateGroup(f.ctx, lead, g.ID, model.GroupPatch{LeadID: &candidate.ID})
	wantKind(t, err, apperrors.KindConstraintViolation)

	if _, err := f.svc.AddMember(f.ctx, lead, g.ID, candidate.ID); err != nil {
		t.Fatalf("AddMember error = %v", err)
	}
	updated, _, err := f.svc.UpdateGroup(f.ctx, lead, g.ID, model.GroupPatch{LeadID: &candidate.ID})
	if err != nil {
		t.Fatalf("UpdateGroup(lead) error = %v", err)
	}
	if updated.LeadID != candidate.ID {
		t.Fatalf("lead_id = %s, want %s", updated.LeadID, candidate.ID)
	}
	// прежний руководитель остался участником и теперь может быть исключён
	if err := f.svc.RemoveMember(f.ctx, candidate, g.ID, lead.ID); err != nil {
		t.Fatalf("RemoveMember(old lead) error = %v", err)
	}
}

func TestDeleteGroup_DetachesMembers(t *testing.T) {
	f := newFixture(t)
	lead := f.professional("Lead", model.RoleMERTMember)
	g, err := f.svc.CreateGroup(f.ctx, f.commander, CreateGroupInput{Name: "Alpha", LeadID: lead.ID, MaxMembers: 5})
	if err != nil {
		t.Fatalf("CreateGroup error = %v", err)
	}
	if err := f.svc.DeleteGroup(f.ctx, lead, g.ID); err != nil {
		t.Fatalf("DeleteGroup error = %v", err)
	}
	if got := f.load(lead); got.GroupID != nil {
		t.Fatalf("group_id = %v, want nil", got.GroupID)
	}
	actions := f.auditActions(model.EntityGroup, g.ID)
	if last := actions[len(actions)-1]; last != model.AuditDeleted {
		t.Fatalf("last action = %s, want deleted", last)
	}
}
