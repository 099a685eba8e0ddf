package model

// MedicalRecord: medical_records, a doctor's note about a patient
type MedicalRecord struct {
	RecordID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	PatientID     string  `gorm:"type:uuid;not null"                             json:"patient_id"`
	DoctorID      string  `gorm:"type:uuid;not null"                             json:"doctor_id"`
	AppointmentID *string `gorm:"type:uuid"                                      json:"appointment_id,omitempty"`
	Title         string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Diagnosis     string  `gorm:"type:text"                                      json:"diagnosis,omitempty"`
	Notes         string  `gorm:"type:text"                                      json:"notes,omitempty"`
	Prescription  string  `gorm:"type:text"                                      json:"prescription,omitempty"`
	VersionedModel

	Doctor  *DoctorProfile  `gorm:"foreignKey:DoctorID;references:DoctorID"   json:"doctor,omitempty"`
	Patient *PatientProfile `gorm:"foreignKey:PatientID;references:PatientID" json:"patient,omitempty"`
}

// TableName table name
func (MedicalRecord) TableName() string { return "medical_records" }
