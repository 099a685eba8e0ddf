package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"docboard/internal/model"
	pkgerrors "docboard/pkg/errors"
)

// AppointmentListFilters appointment list filters.
type AppointmentListFilters struct {
	DoctorID  string
	PatientID string
	Status    string
	From      *time.Time // start_at >= From
	To        *time.Time // start_at < To
}

// AppointmentRepository appointment data access.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	// ListOverlapping returns every appointment, any status, whose
	// [start_at, start_at+duration) intersects [from, to), ascending by start.
	ListOverlapping(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error)
	List(ctx context.Context, filters *AppointmentListFilters, offset, limit int) ([]model.Appointment, int64, error)
	ListAll(ctx context.Context, filters *AppointmentListFilters) ([]model.Appointment, error)
	UpdateStatus(ctx context.Context, appt *model.Appointment) error
	ExistsForDoctorAndPatient(ctx context.Context, doctorID, patientID string) (bool, error)
}

type appointmentRepo struct {
	db *gorm.DB
}

// NewAppointmentRepo creates an AppointmentRepository.
func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Doctor.User").
		Preload("Patient.User").
		Where("appointment_id = ?", id).
		First(&appt).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// maxAppointmentSpan bounds how far before from an overlapping appointment can start.
// consultation_minutes is capped at 240, so a day keeps the start_at index usable.
const maxAppointmentSpan = 24 * time.Hour

func (r *appointmentRepo) ListOverlapping(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND start_at < ? AND start_at >= ?", doctorID, to, from.Add(-maxAppointmentSpan)).
		Where("start_at + duration_minutes * INTERVAL '1 minute' > ?", from).
		Order("start_at ASC").
		Find(&appts).Error
	return appts, err
}

func (r *appointmentRepo) applyFilters(db *gorm.DB, filters *AppointmentListFilters) *gorm.DB {
	if filters == nil {
		return db
	}
	if filters.DoctorID != "" {
		db = db.Where("doctor_id = ?", filters.DoctorID)
	}
	if filters.PatientID != "" {
		db = db.Where("patient_id = ?", filters.PatientID)
	}
	if filters.Status != "" {
		db = db.Where("status = ?", filters.Status)
	}
	if filters.From != nil {
		db = db.Where("start_at >= ?", *filters.From)
	}
	if filters.To != nil {
		db = db.Where("start_at < ?", *filters.To)
	}
	return db
}

func (r *appointmentRepo) List(ctx context.Context, filters *AppointmentListFilters, offset, limit int) ([]model.Appointment, int64, error) {
	var appts []model.Appointment
	var total int64

	db := r.applyFilters(r.db.WithContext(ctx).Model(&model.Appointment{}), filters)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Doctor.User").
		Preload("Patient.User").
		Offset(offset).Limit(limit).
		Order("start_at DESC").
		Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

// ListAll unpaginated, ascending by start; used by exports.
func (r *appointmentRepo) ListAll(ctx context.Context, filters *AppointmentListFilters) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.applyFilters(r.db.WithContext(ctx).Model(&model.Appointment{}), filters).
		Preload("Doctor.User").
		Preload("Patient.User").
		Order("start_at ASC").
		Find(&appts).Error
	return appts, err
}

// UpdateStatus persists status and cancellation fields guarded by version.
func (r *appointmentRepo) UpdateStatus(ctx context.Context, appt *model.Appointment) error {
	oldVersion := appt.Version
	result := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("appointment_id = ? AND version = ?", appt.AppointmentID, oldVersion).
		Updates(map[string]interface{}{
			"status":        appt.Status,
			"cancel_reason": appt.CancelReason,
			"cancelled_at":  appt.CancelledAt,
			"cancelled_by":  appt.CancelledBy,
			"updated_by":    appt.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	appt.Version = oldVersion + 1
	return nil
}

func (r *appointmentRepo) ExistsForDoctorAndPatient(ctx context.Context, doctorID, patientID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		Count(&count).Error
	return count > 0, err
}
