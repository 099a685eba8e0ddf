package service

import (
	"time"

	"docboard/internal/availability"
	"docboard/internal/dto"
	"docboard/internal/model"
)

const dateLayout = "2006-01-02"

// parseDate reads YYYY-MM-DD as local midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toDoctorResponse(d *model.DoctorProfile) dto.DoctorResponse {
	resp := dto.DoctorResponse{
		ID:                  d.DoctorID,
		UserID:              d.UserID,
		Specialty:           d.Specialty,
		LicenseNumber:       d.LicenseNumber,
		Bio:                 d.Bio,
		ConsultationMinutes: d.ConsultationMinutes,
		AcceptingPatients:   d.AcceptingPatients,
		Version:             d.Version,
	}
	if d.User != nil {
		resp.Name = d.User.Name
		resp.Email = d.User.Email
	}
	return resp
}

func toPatientResponse(p *model.PatientProfile) dto.PatientResponse {
	resp := dto.PatientResponse{
		ID:               p.PatientID,
		UserID:           p.UserID,
		Gender:           p.Gender,
		BloodType:        p.BloodType,
		Allergies:        p.Allergies,
		EmergencyContact: p.EmergencyContact,
		Version:          p.Version,
	}
	if p.DateOfBirth != nil {
		resp.DateOfBirth = p.DateOfBirth.Format(dateLayout)
	}
	if p.User != nil {
		resp.Name = p.User.Name
		resp.Email = p.User.Email
		resp.Phone = p.User.Phone
	}
	return resp
}

func toWindowResponse(w *model.AvailabilityWindow) dto.WindowResponse {
	return dto.WindowResponse{
		ID:        w.WindowID,
		DayOfWeek: w.DayOfWeek,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
	}
}

func toSpecialDateResponse(sd *model.SpecialDate) dto.SpecialDateResponse {
	return dto.SpecialDateResponse{
		ID:        sd.SpecialDateID,
		Date:      sd.Date.Format(dateLayout),
		IsDayOff:  sd.IsDayOff,
		StartTime: sd.StartTime,
		EndTime:   sd.EndTime,
		Reason:    sd.Reason,
	}
}

// toAppointmentResponse renders wall-clock fields in loc.
func toAppointmentResponse(a *model.Appointment, loc *time.Location) dto.AppointmentResponse {
	start := a.StartAt.In(loc)
	resp := dto.AppointmentResponse{
		ID:              a.AppointmentID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		Date:            start.Format(dateLayout),
		Time:            start.Format("15:04"),
		StartAt:         formatTime(start),
		EndAt:           formatTime(a.EndAt().In(loc)),
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		Reason:          a.Reason,
		CancelReason:    a.CancelReason,
		Version:         a.Version,
	}
	if a.CancelledAt != nil {
		resp.CancelledAt = formatTime(a.CancelledAt.In(loc))
	}
	if a.Doctor != nil && a.Doctor.User != nil {
		resp.DoctorName = a.Doctor.User.Name
	}
	if a.Patient != nil && a.Patient.User != nil {
		resp.PatientName = a.Patient.User.Name
	}
	return resp
}

func toMedicalRecordResponse(r *model.MedicalRecord) dto.MedicalRecordResponse {
	resp := dto.MedicalRecordResponse{
		ID:            r.RecordID,
		PatientID:     r.PatientID,
		DoctorID:      r.DoctorID,
		AppointmentID: r.AppointmentID,
		Title:         r.Title,
		Diagnosis:     r.Diagnosis,
		Notes:         r.Notes,
		Prescription:  r.Prescription,
		CreatedAt:     formatTime(r.CreatedAt),
		UpdatedAt:     formatTime(r.UpdatedAt),
		Version:       r.Version,
	}
	if r.Doctor != nil && r.Doctor.User != nil {
		resp.DoctorName = r.Doctor.User.Name
	}
	return resp
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            n.NotificationID,
		Type:          n.Kind,
		Title:         n.Title,
		Content:       n.Content,
		IsRead:        n.IsRead(),
		AppointmentID: n.AppointmentID,
		CreatedAt:     formatTime(n.CreatedAt),
	}
}

// commitmentsOf maps stored appointments onto calculator commitments.
func commitmentsOf(appts []model.Appointment) []availability.Commitment {
	out := make([]availability.Commitment, 0, len(appts))
	for i := range appts {
		out = append(out, availability.Commitment{
			StartAt:         appts[i].StartAt,
			DurationMinutes: appts[i].DurationMinutes,
			Status:          availability.Status(appts[i].Status),
		})
	}
	return out
}
