package handler

import (
	"docboard/config"
	"docboard/internal/service"
)

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth          *AuthHandler
	User          *UserHandler
	Doctor        *DoctorHandler
	Patient       *PatientHandler
	Schedule      *ScheduleHandler
	Appointment   *AppointmentHandler
	MedicalRecord *MedicalRecordHandler
	Notification  *NotificationHandler
	Export        *ExportHandler
}

// NewHandler builds the Handler aggregate.
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth, &cfg.Server),
		User:          NewUserHandler(svc.User),
		Doctor:        NewDoctorHandler(svc.Doctor),
		Patient:       NewPatientHandler(svc.Patient),
		Schedule:      NewScheduleHandler(svc.Schedule),
		Appointment:   NewAppointmentHandler(svc.Appointment),
		MedicalRecord: NewMedicalRecordHandler(svc.MedicalRecord),
		Notification:  NewNotificationHandler(svc.Notification),
		Export:        NewExportHandler(svc.Export),
	}
}
