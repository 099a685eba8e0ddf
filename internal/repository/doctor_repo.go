package repository

import (
	"context"

	"gorm.io/gorm"

	"docboard/internal/model"
	pkgerrors "docboard/pkg/errors"
)

// DoctorListFilters doctor directory filters.
type DoctorListFilters struct {
	Specialty     string
	Keyword       string // doctor name or specialty
	AcceptingOnly bool
}

// DoctorRepository doctor profile data access.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.DoctorProfile) error
	GetByID(ctx context.Context, id string) (*model.DoctorProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.DoctorProfile, error)
	Update(ctx context.Context, doctor *model.DoctorProfile) error
	List(ctx context.Context, filters *DoctorListFilters, offset, limit int) ([]model.DoctorProfile, int64, error)
}

type doctorRepo struct {
	db *gorm.DB
}

// NewDoctorRepo creates a DoctorRepository.
func NewDoctorRepo(db *gorm.DB) DoctorRepository {
	return &doctorRepo{db: db}
}

func (r *doctorRepo) Create(ctx context.Context, doctor *model.DoctorProfile) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *doctorRepo) GetByID(ctx context.Context, id string) (*model.DoctorProfile, error) {
	var doctor model.DoctorProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("doctor_id = ?", id).
		First(&doctor).Error
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepo) GetByUserID(ctx context.Context, userID string) (*model.DoctorProfile, error) {
	var doctor model.DoctorProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&doctor).Error
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

// Update writes profile fields guarded by the version column.
func (r *doctorRepo) Update(ctx context.Context, doctor *model.DoctorProfile) error {
	oldVersion := doctor.Version
	result := r.db.WithContext(ctx).
		Model(&model.DoctorProfile{}).
		Where("doctor_id = ? AND version = ?", doctor.DoctorID, oldVersion).
		Updates(map[string]interface{}{
			"specialty":            doctor.Specialty,
			"license_number":       doctor.LicenseNumber,
			"bio":                  doctor.Bio,
			"consultation_minutes": doctor.ConsultationMinutes,
			"accepting_patients":   doctor.AcceptingPatients,
			"updated_by":           doctor.UpdatedBy,
			"updated_at":           gorm.Expr("NOW()"),
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	doctor.Version = oldVersion + 1
	return nil
}

func (r *doctorRepo) List(ctx context.Context, filters *DoctorListFilters, offset, limit int) ([]model.DoctorProfile, int64, error) {
	var doctors []model.DoctorProfile
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.DoctorProfile{}).
		Joins("JOIN users ON users.user_id = doctor_profiles.user_id AND users.deleted_at IS NULL")
	if filters != nil {
		if filters.Specialty != "" {
			db = db.Where("doctor_profiles.specialty ILIKE ?", filters.Specialty)
		}
		if filters.Keyword != "" {
			kw := "%" + filters.Keyword + "%"
			db = db.Where("users.name ILIKE ? OR doctor_profiles.specialty ILIKE ?", kw, kw)
		}
		if filters.AcceptingOnly {
			db = db.Where("doctor_profiles.accepting_patients = ?", true)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("users.name ASC").
		Find(&doctors).Error; err != nil {
		return nil, 0, err
	}

	return doctors, total, nil
}
