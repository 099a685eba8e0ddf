package repository

import (
	"context"

	"gorm.io/gorm"

	"docboard/internal/model"
	pkgerrors "docboard/pkg/errors"
)

// MedicalRecordListFilters record list filters.
type MedicalRecordListFilters struct {
	PatientID string
	DoctorID  string
}

// MedicalRecordRepository medical record data access.
type MedicalRecordRepository interface {
	Create(ctx context.Context, record *model.MedicalRecord) error
	GetByID(ctx context.Context, id string) (*model.MedicalRecord, error)
	List(ctx context.Context, filters *MedicalRecordListFilters, offset, limit int) ([]model.MedicalRecord, int64, error)
	Update(ctx context.Context, record *model.MedicalRecord) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type medicalRecordRepo struct {
	db *gorm.DB
}

// NewMedicalRecordRepo creates a MedicalRecordRepository.
func NewMedicalRecordRepo(db *gorm.DB) MedicalRecordRepository {
	return &medicalRecordRepo{db: db}
}

func (r *medicalRecordRepo) Create(ctx context.Context, record *model.MedicalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *medicalRecordRepo) GetByID(ctx context.Context, id string) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	err := r.db.WithContext(ctx).
		Preload("Doctor.User").
		Preload("Patient.User").
		Where("record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepo) List(ctx context.Context, filters *MedicalRecordListFilters, offset, limit int) ([]model.MedicalRecord, int64, error) {
	var records []model.MedicalRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&model.MedicalRecord{})
	if filters != nil {
		if filters.PatientID != "" {
			db = db.Where("patient_id = ?", filters.PatientID)
		}
		if filters.DoctorID != "" {
			db = db.Where("doctor_id = ?", filters.DoctorID)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Doctor.User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *medicalRecordRepo) Update(ctx context.Context, record *model.MedicalRecord) error {
	oldVersion := record.Version
	result := r.db.WithContext(ctx).
		Model(&model.MedicalRecord{}).
		Where("record_id = ? AND version = ?", record.RecordID, oldVersion).
		Updates(map[string]interface{}{
			"title":        record.Title,
			"diagnosis":    record.Diagnosis,
			"notes":        record.Notes,
			"prescription": record.Prescription,
			"updated_by":   record.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	record.Version = oldVersion + 1
	return nil
}

func (r *medicalRecordRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.MedicalRecord{}).
		Where("record_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
