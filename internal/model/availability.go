package model

import "time"

// AvailabilityWindow: availability_windows, one weekly bookable interval
type AvailabilityWindow struct {
	WindowID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"window_id"`
	DoctorID  string `gorm:"type:uuid;not null;index"                       json:"doctor_id"`
	DayOfWeek int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1=Mon to 7=Sun
	StartTime string `gorm:"type:varchar(5);not null"                       json:"start_time"`  // HH:MM
	EndTime   string `gorm:"type:varchar(5);not null"                       json:"end_time"`    // HH:MM
	BaseModel
}

// TableName table name
func (AvailabilityWindow) TableName() string { return "availability_windows" }

// SpecialDate: special_dates, a per-date override of the weekly schedule
type SpecialDate struct {
	SpecialDateID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"special_date_id"`
	DoctorID      string    `gorm:"type:uuid;not null"                             json:"doctor_id"`
	Date          time.Time `gorm:"type:date;not null"                             json:"date"`
	IsDayOff      bool      `gorm:"not null;default:false"                         json:"is_day_off"`
	StartTime     *string   `gorm:"type:varchar(5)"                                json:"start_time,omitempty"` // custom hours
	EndTime       *string   `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	Reason        string    `gorm:"type:varchar(200)"                              json:"reason,omitempty"`
	BaseModel
}

// TableName table name
func (SpecialDate) TableName() string { return "special_dates" }
