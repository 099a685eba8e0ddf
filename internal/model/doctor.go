package model

// DoctorProfile: doctor_profiles, 1:1 with a doctor user
type DoctorProfile struct {
	DoctorID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"doctor_id"`
	UserID              string `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Specialty           string `gorm:"type:varchar(100);not null;default:''"          json:"specialty"`
	LicenseNumber       string `gorm:"type:varchar(50)"                               json:"license_number,omitempty"`
	Bio                 string `gorm:"type:text"                                      json:"bio,omitempty"`
	ConsultationMinutes int    `gorm:"not null;default:30"                            json:"consultation_minutes"`
	AcceptingPatients   bool   `gorm:"not null;default:true"                          json:"accepting_patients"`
	VersionedModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName table name
func (DoctorProfile) TableName() string { return "doctor_profiles" }
