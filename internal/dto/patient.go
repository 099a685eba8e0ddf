package dto

// UpdatePatientRequest partial profile update.
type UpdatePatientRequest struct {
	DateOfBirth      *string `json:"date_of_birth"     binding:"omitempty,datetime=2006-01-02"`
	Gender           *string `json:"gender"            binding:"omitempty,max=20"`
	BloodType        *string `json:"blood_type"        binding:"omitempty,max=5"`
	Allergies        *string `json:"allergies"         binding:"omitempty,max=2000"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=200"`
	Version          int     `json:"version"           binding:"required,min=1"`
}

// PatientResponse patient profile.
type PatientResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Gender           string `json:"gender,omitempty"`
	BloodType        string `json:"blood_type,omitempty"`
	Allergies        string `json:"allergies,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	Version          int    `json:"version"`
}
