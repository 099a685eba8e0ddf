package model

import "time"

// Notification is one inbox entry; Kind uses the appointment event types.
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Kind           string     `gorm:"column:type;type:varchar(50);not null"          json:"type"`
	Title          string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string     `gorm:"type:text;not null"                             json:"content"`
	AppointmentID  *string    `gorm:"type:uuid"                                      json:"appointment_id,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	SoftDeleteModel
}

// IsRead reports whether the entry was opened.
func (n *Notification) IsRead() bool { return n.ReadAt != nil }

// TableName table name
func (Notification) TableName() string { return "notifications" }
