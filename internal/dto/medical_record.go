package dto

// CreateMedicalRecordRequest new note about a patient.
type CreateMedicalRecordRequest struct {
	PatientID     string  `json:"patient_id"     binding:"required,uuid"`
	AppointmentID *string `json:"appointment_id" binding:"omitempty,uuid"`
	Title         string  `json:"title"          binding:"required,max=200"`
	Diagnosis     string  `json:"diagnosis"      binding:"omitempty,max=5000"`
	Notes         string  `json:"notes"          binding:"omitempty,max=10000"`
	Prescription  string  `json:"prescription"   binding:"omitempty,max=5000"`
}

// UpdateMedicalRecordRequest partial update.
type UpdateMedicalRecordRequest struct {
	Title        *string `json:"title"        binding:"omitempty,min=1,max=200"`
	Diagnosis    *string `json:"diagnosis"    binding:"omitempty,max=5000"`
	Notes        *string `json:"notes"        binding:"omitempty,max=10000"`
	Prescription *string `json:"prescription" binding:"omitempty,max=5000"`
	Version      int     `json:"version"      binding:"required,min=1"`
}

// MedicalRecordListRequest list query.
type MedicalRecordListRequest struct {
	PaginationRequest
	PatientID string `form:"patient_id" binding:"omitempty,uuid"`
}

// MedicalRecordResponse record view.
type MedicalRecordResponse struct {
	ID            string  `json:"id"`
	PatientID     string  `json:"patient_id"`
	DoctorID      string  `json:"doctor_id"`
	DoctorName    string  `json:"doctor_name,omitempty"`
	AppointmentID *string `json:"appointment_id,omitempty"`
	Title         string  `json:"title"`
	Diagnosis     string  `json:"diagnosis,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Prescription  string  `json:"prescription,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	Version       int     `json:"version"`
}
