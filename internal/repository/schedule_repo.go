package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docboard/internal/model"
)

// ScheduleRepository weekly availability windows and special dates.
type ScheduleRepository interface {
	// ── weekly windows ──
	ListWindows(ctx context.Context, doctorID string) ([]model.AvailabilityWindow, error)
	ListWindowsByDay(ctx context.Context, doctorID string, dayOfWeek int) ([]model.AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, doctorID string, windows []model.AvailabilityWindow) error

	// ── special dates ──
	GetSpecialDate(ctx context.Context, doctorID string, date time.Time) (*model.SpecialDate, error)
	ListSpecialDates(ctx context.Context, doctorID string, from, to time.Time) ([]model.SpecialDate, error)
	UpsertSpecialDate(ctx context.Context, sd *model.SpecialDate) error
	DeleteSpecialDate(ctx context.Context, doctorID string, date time.Time) error

	// ImportSchedule applies a calendar import in one transaction. Non-nil windows
	// replace the weekly schedule; every date is upserted.
	ImportSchedule(ctx context.Context, doctorID string, windows []model.AvailabilityWindow, dates []model.SpecialDate) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo creates a ScheduleRepository.
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) ListWindows(ctx context.Context, doctorID string) ([]model.AvailabilityWindow, error) {
	var windows []model.AvailabilityWindow
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("day_of_week ASC, start_time ASC").
		Find(&windows).Error
	return windows, err
}

func (r *scheduleRepo) ListWindowsByDay(ctx context.Context, doctorID string, dayOfWeek int) ([]model.AvailabilityWindow, error) {
	var windows []model.AvailabilityWindow
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND day_of_week = ?", doctorID, dayOfWeek).
		Order("start_time ASC").
		Find(&windows).Error
	return windows, err
}

// ReplaceWindows swaps the doctor's whole weekly schedule in one transaction.
func (r *scheduleRepo) ReplaceWindows(ctx context.Context, doctorID string, windows []model.AvailabilityWindow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).
			Delete(&model.AvailabilityWindow{}).Error; err != nil {
			return err
		}
		if len(windows) == 0 {
			return nil
		}
		for i := range windows {
			windows[i].DoctorID = doctorID
		}
		return tx.Create(&windows).Error
	})
}

func (r *scheduleRepo) GetSpecialDate(ctx context.Context, doctorID string, date time.Time) (*model.SpecialDate, error) {
	var sd model.SpecialDate
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date.Format("2006-01-02")).
		First(&sd).Error
	if err != nil {
		return nil, err
	}
	return &sd, nil
}

// ListSpecialDates returns overrides with from <= date <= to.
func (r *scheduleRepo) ListSpecialDates(ctx context.Context, doctorID string, from, to time.Time) ([]model.SpecialDate, error) {
	var dates []model.SpecialDate
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date BETWEEN ? AND ?", doctorID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&dates).Error
	return dates, err
}

// UpsertSpecialDate inserts or overwrites the override for (doctor_id, date).
func (r *scheduleRepo) UpsertSpecialDate(ctx context.Context, sd *model.SpecialDate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "doctor_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_day_off": sd.IsDayOff,
				"start_time": sd.StartTime,
				"end_time":   sd.EndTime,
				"reason":     sd.Reason,
				"updated_by": sd.UpdatedBy,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(sd).Error
}

func (r *scheduleRepo) DeleteSpecialDate(ctx context.Context, doctorID string, date time.Time) error {
	result := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date.Format("2006-01-02")).
		Delete(&model.SpecialDate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepo) ImportSchedule(ctx context.Context, doctorID string, windows []model.AvailabilityWindow, dates []model.SpecialDate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &scheduleRepo{db: tx}
		if windows != nil {
			if err := txRepo.ReplaceWindows(ctx, doctorID, windows); err != nil {
				return err
			}
		}
		for i := range dates {
			dates[i].DoctorID = doctorID
			if err := txRepo.UpsertSpecialDate(ctx, &dates[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
