package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"docboard/internal/dto"
	"docboard/internal/model"
	pkgerrors "docboard/pkg/errors"
)

// ── Doctor ──

func TestDoctorService_GetAndList(t *testing.T) {
	e := newTestEnv(t)
	svc := NewDoctorService(e.repo, zap.NewNop())
	ctx := context.Background()

	me, err := svc.Get(ctx, MeAlias, testDoctorUser)
	if err != nil {
		t.Fatalf("Get me: %v", err)
	}
	if me.ID != testDoctorID || me.Name != "Alice Grey" {
		t.Errorf("unexpected doctor %+v", me)
	}
	if _, err := svc.Get(ctx, MeAlias, testPatient); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("patient asking for me: expected ErrDoctorNotFound, got %v", err)
	}

	list, total, err := svc.List(ctx, &dto.DoctorListRequest{Specialty: "dermatology"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || list[0].ID != otherDoctorID {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestDoctorService_Update(t *testing.T) {
	e := newTestEnv(t)
	svc := NewDoctorService(e.repo, zap.NewNop())
	ctx := context.Background()
	minutes := 45
	accepting := false

	req := &dto.UpdateDoctorRequest{ConsultationMinutes: &minutes, AcceptingPatients: &accepting, Version: 1}
	if _, err := svc.Update(ctx, testDoctorID, req, otherDoctor, model.RoleDoctor); !errors.Is(err, ErrNoPermission) {
		t.Errorf("foreign doctor: expected ErrNoPermission, got %v", err)
	}

	got, err := svc.Update(ctx, MeAlias, req, testDoctorUser, model.RoleDoctor)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ConsultationMinutes != 45 || got.AcceptingPatients || got.Version != 2 {
		t.Errorf("unexpected update %+v", got)
	}

	if _, err := svc.Update(ctx, MeAlias, req, testDoctorUser, model.RoleDoctor); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("stale version: expected ErrOptimisticLock, got %v", err)
	}
}

// ── Patient ──

func TestPatientService_UpdateMine(t *testing.T) {
	e := newTestEnv(t)
	svc := NewPatientService(e.repo, zap.NewNop())
	ctx := context.Background()

	got, err := svc.UpdateMine(ctx, testPatient, &dto.UpdatePatientRequest{
		DateOfBirth: strPtr("1990-05-17"), BloodType: strPtr("A+"), Version: 1,
	})
	if err != nil {
		t.Fatalf("UpdateMine: %v", err)
	}
	if got.DateOfBirth != "1990-05-17" || got.BloodType != "A+" || got.Version != 2 {
		t.Errorf("unexpected profile %+v", got)
	}

	if _, err := svc.UpdateMine(ctx, testPatient, &dto.UpdatePatientRequest{Version: 1}); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("stale version: expected ErrOptimisticLock, got %v", err)
	}
	if _, err := svc.GetMine(ctx, testDoctorUser); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("doctor GetMine: expected ErrPatientNotFound, got %v", err)
	}
}

func TestPatientService_GetAccess(t *testing.T) {
	e := newTestEnv(t)
	svc := NewPatientService(e.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Get(ctx, testPatientID, testDoctorUser, model.RoleDoctor); !errors.Is(err, ErrNoPermission) {
		t.Errorf("untreated: expected ErrNoPermission, got %v", err)
	}
	e.addAppointment(t, testDoctorID, testPatientID, testDate, "09:00", model.AppointmentPending)
	if _, err := svc.Get(ctx, testPatientID, testDoctorUser, model.RoleDoctor); err != nil {
		t.Errorf("treating doctor: %v", err)
	}
	if _, err := svc.Get(ctx, testPatientID, otherPatient, model.RolePatient); !errors.Is(err, ErrNoPermission) {
		t.Errorf("other patient: expected ErrNoPermission, got %v", err)
	}
	if _, err := svc.Get(ctx, testPatientID, testAdmin, model.RoleAdmin); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := svc.Get(ctx, "missing", testAdmin, model.RoleAdmin); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

// ── User ──

func TestUserService(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.repo, zap.NewNop())
	ctx := context.Background()

	_, total, err := svc.List(ctx, &dto.UserListRequest{Role: model.RoleDoctor})
	if err != nil || total != 2 {
		t.Errorf("doctor users: total=%d err=%v", total, err)
	}

	if err := svc.Delete(ctx, testAdmin, testAdmin); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("expected ErrUserSelfDelete, got %v", err)
	}
	if err := svc.Delete(ctx, otherPatient, testAdmin); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, otherPatient); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, otherPatient, testAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: expected ErrUserNotFound, got %v", err)
	}
}

// ── Notification ──

func TestNotificationService(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.notification.Notify(ctx, testPatient, "appointment.booked", "Booked", "see you", "appt-1")
	e.notification.Notify(ctx, testPatient, "appointment.cancelled", "Cancelled", "sorry", "")
	e.notification.Notify(ctx, "", "ignored", "x", "y", "")

	count, err := e.notification.UnreadCount(ctx, testPatient)
	if err != nil || count.Count != 2 {
		t.Fatalf("UnreadCount: %+v %v", count, err)
	}

	list, _, err := e.notification.List(ctx, testPatient, &dto.NotificationListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list[0].AppointmentID == nil || *list[0].AppointmentID != "appt-1" || list[1].AppointmentID != nil {
		t.Errorf("unexpected related ids %+v", list)
	}

	if err := e.notification.MarkRead(ctx, list[0].ID, otherPatient); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("foreign mark read: expected ErrNotificationNotFound, got %v", err)
	}
	if err := e.notification.MarkRead(ctx, list[0].ID, testPatient); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, total, _ := e.notification.List(ctx, testPatient, &dto.NotificationListRequest{UnreadOnly: true})
	if total != 1 || unread[0].ID != list[1].ID {
		t.Errorf("expected one unread, got %+v", unread)
	}

	if err := e.notification.MarkAllRead(ctx, testPatient); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count, _ := e.notification.UnreadCount(ctx, testPatient); count.Count != 0 {
		t.Errorf("expected 0 unread, got %d", count.Count)
	}
}
