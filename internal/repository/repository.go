package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every data-access interface.
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Doctor        DoctorRepository
	Patient       PatientRepository
	Schedule      ScheduleRepository
	Appointment   AppointmentRepository
	MedicalRecord MedicalRecordRepository
	Notification  NotificationRepository
}

// NewRepository builds the aggregate on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Doctor:        NewDoctorRepo(db),
		Patient:       NewPatientRepo(db),
		Schedule:      NewScheduleRepo(db),
		Appointment:   NewAppointmentRepo(db),
		MedicalRecord: NewMedicalRecordRepo(db),
		Notification:  NewNotificationRepo(db),
	}
}

// WithTx rebinds every repository to tx. A nil tx returns r unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// BeginTx starts a transaction. Aggregates built without a db return a nil tx;
// callers guard Rollback/Commit with tx != nil.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// Ping checks database reachability.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
