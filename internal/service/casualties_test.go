package service

import (
	"sync"
	"testing"
	"time"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/audit"
	"github.com/Leganyst/mci-platform/internal/model"
)

func TestAddCasualty_OutsiderForbidden(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	outsider := f.professional("Outsider", model.RoleMERTMember)

	_, err := f.svc.AddCasualty(f.ctx, outsider, e.ID, AddCasualtyInput{Color: model.TriageRed})
	wantKind(t, err, apperrors.KindForbidden)

	var n int64
	f.db.Model(&model.Casualty{}).Where("event_id = ?", e.ID).Count(&n)
	if n != 0 {
		t.Fatalf("casualties = %d, want 0", n)
	}
}

func TestAddCasualty_RejectsUnknownColor(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")

	_, err := f.svc.AddCasualty(f.ctx, f.commander, e.ID, AddCasualtyInput{Color: "purple"})
	wantKind(t, err, apperrors.KindConstraintViolation)
}

func TestAddCasualty_NormalizesColor(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")

	cas, err := f.svc.AddCasualty(f.ctx, f.commander, e.ID, AddCasualtyInput{Color: " RED "})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}
	var stored model.Casualty
	if err := f.db.First(&stored, "id = ?", cas.ID).Error; err != nil {
		t.Fatalf("load casualty: %v", err)
	}
	if stored.Color != model.TriageRed || stored.Color.Rank() != model.TriageRed.Rank() {
		t.Fatalf("stored color = %q, want %q", stored.Color, model.TriageRed)
	}

	_, _, err = f.svc.UpdateCasualtyStatus(f.ctx, f.commander, cas.ID, model.CasualtyPatch{Color: ptr(model.TriageColor("Red"))})
	wantKind(t, err, apperrors.KindNoChange)

	got, fields, err := f.svc.UpdateCasualtyStatus(f.ctx, f.commander, cas.ID, model.CasualtyPatch{Color: ptr(model.TriageColor("BLACK"))})
	if err != nil {
		t.Fatalf("UpdateCasualtyStatus error = %v", err)
	}
	if got.Color != model.TriageBlack || len(fields) != 1 || fields[0] != "color" {
		t.Fatalf("casualty color = %q fields = %v, want black [color]", got.Color, fields)
	}
}

func TestUpdateCasualtyStatus_RecordsFieldDiff(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	medic := f.member("Medic", model.RoleMedicalOfficer, e)
	cas, err := f.svc.AddCasualty(f.ctx, medic, e.ID, AddCasualtyInput{Color: model.TriageGreen, Breathing: true})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}

	got, fields, err := f.svc.UpdateCasualtyStatus(f.ctx, medic, cas.ID, model.CasualtyPatch{
		Color:     ptr(model.TriageRed),
		Breathing: ptr(true),
		Bleeding:  ptr(true),
	})
	if err != nil {
		t.Fatalf("UpdateCasualtyStatus error = %v", err)
	}
	if got.Color != model.TriageRed || !got.Bleeding {
		t.Fatalf("casualty = %+v, want red and bleeding", got)
	}
	if len(fields) != 2 || fields[0] != "bleeding" || fields[1] != "color" {
		t.Fatalf("changed fields = %v, want [bleeding color]", fields)
	}

	trail, err := f.svc.AuditTrail(f.ctx, f.commander, model.EntityCasualty, cas.ID)
	if err != nil {
		t.Fatalf("AuditTrail error = %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(trail))
	}
	last := trail[1]
	if last.Action != model.AuditUpdated || last.ActorID != medic.ID {
		t.Fatalf("last entry = %s by %s, want updated by %s", last.Action, last.ActorID, medic.ID)
	}
	color := last.Changes["color"]
	if color.From != string(model.TriageGreen) || color.To != string(model.TriageRed) {
		t.Fatalf("color diff = %+v, want green -> red", color)
	}
	if _, ok := last.Changes["breathing"]; ok {
		t.Fatalf("unchanged field breathing recorded in diff")
	}
}

func TestUpdateCasualtyStatus_IdenticalPatchIsNoChange(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	cas, err := f.svc.AddCasualty(f.ctx, f.commander, e.ID, AddCasualtyInput{Color: model.TriageYellow, Notes: "leg"})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}
	before := f.auditCount(model.EntityCasualty, cas.ID)
	published := len(f.feed.snapshot())

	_, _, err = f.svc.UpdateCasualtyStatus(f.ctx, f.commander, cas.ID, model.CasualtyPatch{
		Color: ptr(model.TriageYellow),
		Notes: ptr("leg"),
	})
	wantKind(t, err, apperrors.KindNoChange)

	if after := f.auditCount(model.EntityCasualty, cas.ID); after != before {
		t.Fatalf("audit entries = %d, want %d", after, before)
	}
	if got := len(f.feed.snapshot()); got != published {
		t.Fatalf("published changes = %d, want %d", got, published)
	}
}

func TestUpdateCasualtyStatus_CreatorOutsideEvent(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	medic := f.member("Medic", model.RoleMedicalOfficer, e)
	cas, err := f.svc.AddCasualty(f.ctx, medic, e.ID, AddCasualtyInput{Color: model.TriageGreen})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}
	if err := f.svc.LeaveEvent(f.ctx, medic); err != nil {
		t.Fatalf("LeaveEvent error = %v", err)
	}

	// автор записи может её править и вне события
	if _, _, err := f.svc.UpdateCasualtyStatus(f.ctx, medic, cas.ID, model.CasualtyPatch{Notes: ptr("moved")}); err != nil {
		t.Fatalf("UpdateCasualtyStatus by creator error = %v", err)
	}
	stranger := f.professional("Stranger", model.RoleVolunteer)
	_, _, err = f.svc.UpdateCasualtyStatus(f.ctx, stranger, cas.ID, model.CasualtyPatch{Notes: ptr("x")})
	wantKind(t, err, apperrors.KindForbidden)
}

func TestDeleteCamp_ForceUnassignsOccupants(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	camp := f.camp(e, nil)
	medic := f.professional("Medic", model.RoleMedicalOfficer)
	f.join(medic, e, &camp.ID)
	cas, err := f.svc.AddCasualty(f.ctx, f.commander, e.ID, AddCasualtyInput{CampID: &camp.ID, Color: model.TriageRed})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}

	_, err = f.svc.DeleteCamp(f.ctx, f.commander, camp.ID, false)
	wantKind(t, err, apperrors.KindConstraintViolation)

	if _, err := f.svc.DeleteCamp(f.ctx, f.commander, camp.ID, true); err != nil {
		t.Fatalf("DeleteCamp(force) error = %v", err)
	}
	if got := f.load(medic); !got.InEvent(e.ID) || got.CurrentCampID != nil {
		t.Fatalf("medic assignment = (%v, %v), want event only", got.CurrentEventID, got.CurrentCampID)
	}
	var stored model.Casualty
	if err := f.db.First(&stored, "id = ?", cas.ID).Error; err != nil {
		t.Fatalf("load casualty: %v", err)
	}
	if stored.CampID != nil {
		t.Fatalf("casualty camp_id = %v, want nil", stored.CampID)
	}
	if got := f.auditActions(model.EntityCamp, camp.ID); got[len(got)-1] != model.AuditDeleted {
		t.Fatalf("camp audit actions = %v, want trailing deleted", got)
	}
}

func TestDeleteCasualty(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	cas, err := f.svc.AddCasualty(f.ctx, f.commander, e.ID, AddCasualtyInput{Color: model.TriageBlack})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}
	if err := f.svc.DeleteCasualty(f.ctx, f.commander, cas.ID); err != nil {
		t.Fatalf("DeleteCasualty error = %v", err)
	}
	wantKind(t, f.svc.DeleteCasualty(f.ctx, f.commander, cas.ID), apperrors.KindNotFound)

	trail, err := f.svc.AuditTrail(f.ctx, f.commander, model.EntityCasualty, cas.ID)
	if err != nil {
		t.Fatalf("AuditTrail error = %v", err)
	}
	deleted := trail[len(trail)-1]
	if color := deleted.Changes["color"]; color.From != string(model.TriageBlack) || color.To != nil {
		t.Fatalf("deleted diff color = %+v, want black -> null", color)
	}
}

func TestUpdateCasualtyStatus_CommitsWhenAuditWriteFails(t *testing.T) {
	var (
		mu       sync.Mutex
		failures []model.AuditAction
	)
	recorder := audit.NewRecorder(
		audit.WithClock(func() time.Time { return testNow }),
		audit.WithFailureHook(func(kind model.EntityKind, action model.AuditAction, _ error) {
			mu.Lock()
			defer mu.Unlock()
			if kind == model.EntityCasualty {
				failures = append(failures, action)
			}
		}),
	)
	f := newFixture(t, WithRecorder(recorder))
	e := f.event("E1")
	cas, err := f.svc.AddCasualty(f.ctx, f.commander, e.ID, AddCasualtyInput{Color: model.TriageGreen})
	if err != nil {
		t.Fatalf("AddCasualty error = %v", err)
	}

	if err := f.db.Exec("DROP TABLE casualty_audit_logs").Error; err != nil {
		t.Fatalf("drop audit table: %v", err)
	}

	_, fields, err := f.svc.UpdateCasualtyStatus(f.ctx, f.commander, cas.ID, model.CasualtyPatch{
		Color:          ptr(model.TriageYellow),
		HospitalStatus: ptr("transported"),
	})
	if err != nil {
		t.Fatalf("UpdateCasualtyStatus error = %v, want nil", err)
	}
	if len(fields) != 2 {
		t.Fatalf("changed fields = %v, want 2", fields)
	}

	var stored model.Casualty
	if err := f.db.First(&stored, "id = ?", cas.ID).Error; err != nil {
		t.Fatalf("load casualty: %v", err)
	}
	if stored.Color != model.TriageYellow || stored.HospitalStatus != "transported" {
		t.Fatalf("stored casualty = %+v, want yellow and transported", stored)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 || failures[0] != model.AuditUpdated {
		t.Fatalf("failure hook calls = %v, want [%s]", failures, model.AuditUpdated)
	}
}
