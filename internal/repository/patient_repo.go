package repository

import (
	"context"

	"gorm.io/gorm"

	"docboard/internal/model"
	pkgerrors "docboard/pkg/errors"
)

// PatientRepository patient profile data access.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.PatientProfile) error
	GetByID(ctx context.Context, id string) (*model.PatientProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.PatientProfile, error)
	Update(ctx context.Context, patient *model.PatientProfile) error
}

type patientRepo struct {
	db *gorm.DB
}

// NewPatientRepo creates a PatientRepository.
func NewPatientRepo(db *gorm.DB) PatientRepository {
	return &patientRepo{db: db}
}

func (r *patientRepo) Create(ctx context.Context, patient *model.PatientProfile) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *patientRepo) GetByID(ctx context.Context, id string) (*model.PatientProfile, error) {
	var patient model.PatientProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("patient_id = ?", id).
		First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepo) GetByUserID(ctx context.Context, userID string) (*model.PatientProfile, error) {
	var patient model.PatientProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepo) Update(ctx context.Context, patient *model.PatientProfile) error {
	oldVersion := patient.Version
	result := r.db.WithContext(ctx).
		Model(&model.PatientProfile{}).
		Where("patient_id = ? AND version = ?", patient.PatientID, oldVersion).
		Updates(map[string]interface{}{
			"date_of_birth":     patient.DateOfBirth,
			"gender":            patient.Gender,
			"blood_type":        patient.BloodType,
			"allergies":         patient.Allergies,
			"emergency_contact": patient.EmergencyContact,
			"updated_by":        patient.UpdatedBy,
			"updated_at":        gorm.Expr("NOW()"),
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	patient.Version = oldVersion + 1
	return nil
}
