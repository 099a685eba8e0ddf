package service

import "errors"

// ── shared ──

var (
	ErrNoPermission = errors.New("permission denied")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("invalid date range")
	ErrDateInPast   = errors.New("date is in the past")
	ErrDateTooFar   = errors.New("date is beyond the booking horizon")
)

// ── auth / users ──

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already registered")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserSelfDelete      = errors.New("cannot delete yourself")
)

// ── profiles ──

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// ── schedule ──

var (
	ErrInvalidWindow       = errors.New("invalid availability window")
	ErrWindowOverlap       = errors.New("availability windows overlap")
	ErrInvalidSpecialDate  = errors.New("special date needs is_day_off or a valid start_time/end_time")
	ErrSpecialDateNotFound = errors.New("special date not found")
	ErrICSParseFailed      = errors.New("calendar file could not be parsed")
	ErrICSEmpty            = errors.New("calendar file contains no usable events")
)

// ── appointments ──

var (
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrInvalidSlotTime       = errors.New("invalid time, expected HH:MM")
	ErrSlotUnavailable       = errors.New("slot is not available")
	ErrDoctorNotAccepting    = errors.New("doctor is not accepting new patients")
	ErrBookingBusy           = errors.New("another booking for this doctor and date is in progress, retry")
	ErrInvalidTransition     = errors.New("appointment status transition not allowed")
	ErrAppointmentNotStarted = errors.New("appointment has not started yet")
)

// ── medical records / notifications / export ──

var (
	ErrMedicalRecordNotFound = errors.New("medical record not found")
	ErrNoCareRelationship    = errors.New("doctor has no appointment with this patient")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrExportGenerateFail    = errors.New("failed to generate export file")
)
