package service

import (
	"context"
	"errors"
	"testing"

	"docboard/internal/dto"
	"docboard/internal/model"
	pkgerrors "docboard/pkg/errors"
)

func newRecordReq(patientID string) *dto.CreateMedicalRecordRequest {
	return &dto.CreateMedicalRecordRequest{PatientID: patientID, Title: "Follow-up", Diagnosis: "mild hypertension"}
}

func TestMedicalRecord_CreateRequiresCareRelationship(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, err := e.medical.Create(ctx, newRecordReq(testPatientID), testDoctorUser, model.RoleDoctor); !errors.Is(err, ErrNoCareRelationship) {
		t.Fatalf("no appointment yet: expected ErrNoCareRelationship, got %v", err)
	}

	e.addAppointment(t, testDoctorID, testPatientID, testDate, "09:00", model.AppointmentCompleted)
	rec, err := e.medical.Create(ctx, newRecordReq(testPatientID), testDoctorUser, model.RoleDoctor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.DoctorID != testDoctorID || rec.DoctorName != "Alice Grey" || rec.Version != 1 {
		t.Errorf("unexpected record %+v", rec)
	}

	if _, err := e.medical.Create(ctx, newRecordReq(testPatientID), testPatient, model.RolePatient); !errors.Is(err, ErrNoPermission) {
		t.Errorf("patient: expected ErrNoPermission, got %v", err)
	}
	if _, err := e.medical.Create(ctx, newRecordReq("missing"), testDoctorUser, model.RoleDoctor); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestMedicalRecord_CreateWithAppointment(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	appt := e.addAppointment(t, testDoctorID, testPatientID, testDate, "09:00", model.AppointmentCompleted)
	foreign := e.addAppointment(t, otherDoctorID, testPatientID, testDate, "10:00", model.AppointmentCompleted)

	req := newRecordReq(testPatientID)
	req.AppointmentID = &appt.AppointmentID
	if _, err := e.medical.Create(ctx, req, testDoctorUser, model.RoleDoctor); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req.AppointmentID = &foreign.AppointmentID
	if _, err := e.medical.Create(ctx, req, testDoctorUser, model.RoleDoctor); !errors.Is(err, ErrNoCareRelationship) {
		t.Errorf("another doctor's appointment: expected ErrNoCareRelationship, got %v", err)
	}

	req.AppointmentID = strPtr("missing")
	if _, err := e.medical.Create(ctx, req, testDoctorUser, model.RoleDoctor); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestMedicalRecord_ReadAccess(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addAppointment(t, testDoctorID, testPatientID, testDate, "09:00", model.AppointmentCompleted)
	rec, err := e.medical.Create(ctx, newRecordReq(testPatientID), testDoctorUser, model.RoleDoctor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	allowed := []struct{ caller, role string }{
		{testDoctorUser, model.RoleDoctor},
		{testPatient, model.RolePatient},
		{testAdmin, model.RoleAdmin},
	}
	for _, c := range allowed {
		if _, err := e.medical.Get(ctx, rec.ID, c.caller, c.role); err != nil {
			t.Errorf("%s should read the record: %v", c.caller, err)
		}
	}

	denied := []struct{ caller, role string }{
		{otherPatient, model.RolePatient},
		{otherDoctor, model.RoleDoctor},
	}
	for _, c := range denied {
		if _, err := e.medical.Get(ctx, rec.ID, c.caller, c.role); !errors.Is(err, ErrNoPermission) {
			t.Errorf("%s: expected ErrNoPermission, got %v", c.caller, err)
		}
	}

	// a doctor the patient later books with may read the history
	e.addAppointment(t, otherDoctorID, testPatientID, "2026-03-03", "09:00", model.AppointmentPending)
	if _, err := e.medical.Get(ctx, rec.ID, otherDoctor, model.RoleDoctor); err != nil {
		t.Errorf("treating doctor: %v", err)
	}

	if _, err := e.medical.Get(ctx, "missing", testAdmin, model.RoleAdmin); !errors.Is(err, ErrMedicalRecordNotFound) {
		t.Errorf("expected ErrMedicalRecordNotFound, got %v", err)
	}
}

func TestMedicalRecord_List(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addAppointment(t, testDoctorID, testPatientID, testDate, "09:00", model.AppointmentCompleted)
	e.addAppointment(t, testDoctorID, otherPatientID, testDate, "09:30", model.AppointmentCompleted)
	for _, p := range []string{testPatientID, otherPatientID} {
		if _, err := e.medical.Create(ctx, newRecordReq(p), testDoctorUser, model.RoleDoctor); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	_, total, err := e.medical.List(ctx, &dto.MedicalRecordListRequest{}, testPatient, model.RolePatient)
	if err != nil || total != 1 {
		t.Errorf("patient list: total=%d err=%v", total, err)
	}
	_, total, err = e.medical.List(ctx, &dto.MedicalRecordListRequest{}, testDoctorUser, model.RoleDoctor)
	if err != nil || total != 2 {
		t.Errorf("doctor list: total=%d err=%v", total, err)
	}
	_, total, err = e.medical.List(ctx, &dto.MedicalRecordListRequest{PatientID: otherPatientID}, testDoctorUser, model.RoleDoctor)
	if err != nil || total != 1 {
		t.Errorf("doctor list by patient: total=%d err=%v", total, err)
	}
	if _, _, err := e.medical.List(ctx, &dto.MedicalRecordListRequest{PatientID: testPatientID}, otherDoctor, model.RoleDoctor); !errors.Is(err, ErrNoPermission) {
		t.Errorf("untreated patient: expected ErrNoPermission, got %v", err)
	}
}

func TestMedicalRecord_UpdateAndDelete(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addAppointment(t, testDoctorID, testPatientID, testDate, "09:00", model.AppointmentCompleted)
	rec, _ := e.medical.Create(ctx, newRecordReq(testPatientID), testDoctorUser, model.RoleDoctor)

	upd := &dto.UpdateMedicalRecordRequest{Notes: strPtr("recheck in 2 weeks"), Version: 1}
	if _, err := e.medical.Update(ctx, rec.ID, upd, testAdmin, model.RoleAdmin); !errors.Is(err, ErrNoPermission) {
		t.Errorf("admin write: expected ErrNoPermission, got %v", err)
	}

	got, err := e.medical.Update(ctx, rec.ID, upd, testDoctorUser, model.RoleDoctor)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Notes != "recheck in 2 weeks" || got.Version != 2 || got.Diagnosis != "mild hypertension" {
		t.Errorf("unexpected update %+v", got)
	}
	if _, err := e.medical.Update(ctx, rec.ID, upd, testDoctorUser, model.RoleDoctor); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("stale version: expected ErrOptimisticLock, got %v", err)
	}

	if err := e.medical.Delete(ctx, rec.ID, otherDoctor, model.RoleDoctor); !errors.Is(err, ErrNoPermission) {
		t.Errorf("foreign doctor delete: expected ErrNoPermission, got %v", err)
	}
	if err := e.medical.Delete(ctx, rec.ID, testDoctorUser, model.RoleDoctor); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.medical.Get(ctx, rec.ID, testDoctorUser, model.RoleDoctor); !errors.Is(err, ErrMedicalRecordNotFound) {
		t.Errorf("expected ErrMedicalRecordNotFound after delete, got %v", err)
	}
}
