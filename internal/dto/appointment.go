package dto

// BookAppointmentRequest books date+time with a doctor.
type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required,uuid"`
	Date     string `json:"date"      binding:"required,datetime=2006-01-02"`
	Time     string `json:"time"      binding:"required"` // HH:MM, one of available_slots
	Reason   string `json:"reason"    binding:"omitempty,max=500"`
}

// AppointmentListRequest list query; from/to filter the start date, to inclusive.
type AppointmentListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled no_show"`
	From   string `form:"from"   binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to"     binding:"omitempty,datetime=2006-01-02"`
}

// UpdateAppointmentStatusRequest status transition.
type UpdateAppointmentStatusRequest struct {
	Status  string `json:"status"  binding:"required,oneof=confirmed completed cancelled no_show"`
	Reason  string `json:"reason"  binding:"omitempty,max=500"`
	Version int    `json:"version" binding:"required,min=1"`
}

// CancelAppointmentRequest cancellation body.
type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ExportAppointmentsQuery export range; to inclusive.
type ExportAppointmentsQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

// AppointmentResponse appointment view.
type AppointmentResponse struct {
	ID              string `json:"id"`
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name,omitempty"`
	PatientID       string `json:"patient_id"`
	PatientName     string `json:"patient_name,omitempty"`
	Date            string `json:"date"` // YYYY-MM-DD in the clinic timezone
	Time            string `json:"time"` // HH:MM in the clinic timezone
	StartAt         string `json:"start_at"`
	EndAt           string `json:"end_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	CancelReason    string `json:"cancel_reason,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	Version         int    `json:"version"`
}
