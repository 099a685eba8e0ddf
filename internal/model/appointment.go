package model

import "time"

// Appointment statuses
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

// Appointment: appointments
type Appointment struct {
	AppointmentID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	DoctorID        string     `gorm:"type:uuid;not null"                             json:"doctor_id"`
	PatientID       string     `gorm:"type:uuid;not null"                             json:"patient_id"`
	StartAt         time.Time  `gorm:"type:timestamptz;not null"                      json:"start_at"`
	DurationMinutes int        `gorm:"not null"                                       json:"duration_minutes"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Reason          string     `gorm:"type:text"                                      json:"reason,omitempty"`
	CancelReason    string     `gorm:"type:text"                                      json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time `gorm:"type:timestamptz"                               json:"cancelled_at,omitempty"`
	CancelledBy     *string    `gorm:"type:uuid"                                      json:"cancelled_by,omitempty"`
	VersionedModel

	Doctor  *DoctorProfile  `gorm:"foreignKey:DoctorID;references:DoctorID"   json:"doctor,omitempty"`
	Patient *PatientProfile `gorm:"foreignKey:PatientID;references:PatientID" json:"patient,omitempty"`
}

// TableName table name
func (Appointment) TableName() string { return "appointments" }

// EndAt start plus duration.
func (a *Appointment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsActive reports whether the appointment still occupies the doctor's time.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentCancelled
}
