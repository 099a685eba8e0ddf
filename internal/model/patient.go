package model

import "time"

// PatientProfile: patient_profiles, 1:1 with a patient user
type PatientProfile struct {
	PatientID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"patient_id"`
	UserID           string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	DateOfBirth      *time.Time `gorm:"type:date"                                      json:"date_of_birth,omitempty"`
	Gender           string     `gorm:"type:varchar(20)"                               json:"gender,omitempty"`
	BloodType        string     `gorm:"type:varchar(5)"                                json:"blood_type,omitempty"`
	Allergies        string     `gorm:"type:text"                                      json:"allergies,omitempty"`
	EmergencyContact string     `gorm:"type:varchar(200)"                              json:"emergency_contact,omitempty"`
	VersionedModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName table name
func (PatientProfile) TableName() string { return "patient_profiles" }
