package dto

// DoctorListRequest doctor directory query.
type DoctorListRequest struct {
	PaginationRequest
	Specialty     string `form:"specialty"      binding:"omitempty,max=100"`
	Keyword       string `form:"keyword"        binding:"omitempty,max=50"`
	AcceptingOnly bool   `form:"accepting_only"`
}

// UpdateDoctorRequest partial profile update; Version guards concurrent edits.
type UpdateDoctorRequest struct {
	Specialty           *string `json:"specialty"            binding:"omitempty,max=100"`
	LicenseNumber       *string `json:"license_number"       binding:"omitempty,max=50"`
	Bio                 *string `json:"bio"                  binding:"omitempty,max=2000"`
	ConsultationMinutes *int    `json:"consultation_minutes" binding:"omitempty,min=5,max=240"`
	AcceptingPatients   *bool   `json:"accepting_patients"`
	Version             int     `json:"version"              binding:"required,min=1"`
}

// DoctorResponse doctor profile.
type DoctorResponse struct {
	ID                  string `json:"id"`
	UserID              string `json:"user_id"`
	Name                string `json:"name"`
	Email               string `json:"email,omitempty"`
	Specialty           string `json:"specialty"`
	LicenseNumber       string `json:"license_number,omitempty"`
	Bio                 string `json:"bio,omitempty"`
	ConsultationMinutes int    `json:"consultation_minutes"`
	AcceptingPatients   bool   `json:"accepting_patients"`
	Version             int    `json:"version"`
}
