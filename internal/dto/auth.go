package dto

// ── auth ──

// LoginRequest login body.
type LoginRequest struct {
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest self-service registration. Doctor fields are ignored for patients.
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"     binding:"omitempty,oneof=patient doctor"`
	Phone    string `json:"phone"    binding:"omitempty,max=30"`

	Specialty     string `json:"specialty"      binding:"omitempty,max=100"`
	LicenseNumber string `json:"license_number" binding:"omitempty,max=50"`
}

// RefreshTokenRequest refresh body.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest password change body.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}
