package dto

// ── weekly schedule ──

// WindowRequest one weekly interval; day_of_week 1=Monday to 7=Sunday.
type WindowRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime string `json:"start_time"  binding:"required"`
	EndTime   string `json:"end_time"    binding:"required"`
}

// ReplaceScheduleRequest replaces the whole weekly schedule.
type ReplaceScheduleRequest struct {
	Windows []WindowRequest `json:"windows" binding:"dive"`
}

// WindowResponse weekly interval.
type WindowResponse struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ScheduleResponse weekly windows plus upcoming overrides.
type ScheduleResponse struct {
	DoctorID     string                `json:"doctor_id"`
	Windows      []WindowResponse      `json:"windows"`
	SpecialDates []SpecialDateResponse `json:"special_dates"`
}

// ── special dates ──

// SpecialDateRequest day off, or custom hours when is_day_off is false.
type SpecialDateRequest struct {
	Date      string  `json:"date"       binding:"required,datetime=2006-01-02"`
	IsDayOff  bool    `json:"is_day_off"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Reason    string  `json:"reason"     binding:"omitempty,max=200"`
}

// SpecialDateQuery date-range query; both bounds inclusive.
type SpecialDateQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// DeleteSpecialDateQuery delete target.
type DeleteSpecialDateQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// SpecialDateResponse override.
type SpecialDateResponse struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	IsDayOff  bool    `json:"is_day_off"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// ── slots ──

// SlotsQuery availability query.
type SlotsQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// SlotsResponse availability of one doctor on one date.
type SlotsResponse struct {
	DoctorID       string   `json:"doctor_id"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
}

// ── ICS import ──

// ImportScheduleResponse result of importing a calendar into the weekly schedule.
type ImportScheduleResponse struct {
	WindowsImported      int      `json:"windows_imported"`
	SpecialDatesImported int      `json:"special_dates_imported"`
	Skipped              int      `json:"skipped"`
	Warnings             []string `json:"warnings,omitempty"`
}
