package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
)

// feedLookback is how far back the calendar feed reaches.
const feedLookback = 30 * 24 * time.Hour

// ExportService appointment exports: an Excel workbook for a date range
// and an iCalendar feed that calendar apps can subscribe to.
type ExportService interface {
	// ExportAppointments renders the caller's appointments in [from, to] as .xlsx.
	ExportAppointments(ctx context.Context, req *dto.ExportAppointmentsQuery, callerID, callerRole string) (*bytes.Buffer, string, error)
	// CalendarFeed renders the caller's recent and upcoming appointments as text/calendar.
	CalendarFeed(ctx context.Context, callerID, callerRole string) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService; loc is the clinic timezone.
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// ExportAppointments
// ════════════════════════════════════════════════════════════
//
// Sheet "Appointments": title row, header row, one row per appointment.
// Sheet "Summary": count per status.

var exportHeaders = []string{"Date", "Time", "Duration (min)", "Doctor", "Patient", "Status", "Reason", "Cancel reason"}

var exportStatuses = []string{
	model.AppointmentPending,
	model.AppointmentConfirmed,
	model.AppointmentCompleted,
	model.AppointmentCancelled,
	model.AppointmentNoShow,
}

func (s *exportService) ExportAppointments(ctx context.Context, req *dto.ExportAppointmentsQuery, callerID, callerRole string) (*bytes.Buffer, string, error) {
	filters, err := appointmentScope(ctx, s.repo, callerID, callerRole)
	if err != nil {
		return nil, "", err
	}
	from, err := parseDate(req.From, s.loc)
	if err != nil {
		return nil, "", err
	}
	to, err := parseDate(req.To, s.loc)
	if err != nil {
		return nil, "", err
	}
	if to.Before(from) {
		return nil, "", ErrInvalidRange
	}
	end := to.AddDate(0, 0, 1)
	filters.From, filters.To = &from, &end

	appts, err := s.repo.Appointment.ListAll(ctx, filters)
	if err != nil {
		s.logger.Error("list appointments for export failed", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Appointments"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cancelledStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#999999", Strike: true},
	})

	lastCol := colName(len(exportHeaders) - 1)
	title := fmt.Sprintf("Appointments %s to %s", req.From, req.To)
	_ = f.SetCellValue(sheet, "A1", title)
	_ = f.MergeCell(sheet, "A1", lastCol+"1")
	_ = f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)
	_ = f.SetRowHeight(sheet, 1, 28)

	for i, h := range exportHeaders {
		_ = f.SetCellValue(sheet, cell(i, 2), h)
	}
	_ = f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle)

	_ = f.SetColWidth(sheet, "A", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 14)
	_ = f.SetColWidth(sheet, "D", "E", 22)
	_ = f.SetColWidth(sheet, "F", "F", 12)
	_ = f.SetColWidth(sheet, "G", "H", 36)

	counts := make(map[string]int, len(exportStatuses))
	for i := range appts {
		a := &appts[i]
		row := i + 3
		start := a.StartAt.In(s.loc)
		values := []interface{}{
			start.Format(dateLayout),
			start.Format("15:04"),
			a.DurationMinutes,
			doctorName(a.Doctor),
			patientName(a.Patient),
			a.Status,
			a.Reason,
			a.CancelReason,
		}
		for col, v := range values {
			_ = f.SetCellValue(sheet, cell(col, row), v)
		}
		if a.Status == model.AppointmentCancelled {
			_ = f.SetCellStyle(sheet, cell(0, row), cell(len(values)-1, row), cancelledStyle)
		}
		counts[a.Status]++
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err == nil {
		_ = f.SetCellValue(summary, "A1", "Status")
		_ = f.SetCellValue(summary, "B1", "Count")
		_ = f.SetCellStyle(summary, "A1", "B1", headerStyle)
		_ = f.SetColWidth(summary, "A", "B", 14)
		for i, st := range exportStatuses {
			_ = f.SetCellValue(summary, cell(0, i+2), st)
			_ = f.SetCellValue(summary, cell(1, i+2), counts[st])
		}
		totalRow := len(exportStatuses) + 2
		_ = f.SetCellValue(summary, cell(0, totalRow), "total")
		_ = f.SetCellValue(summary, cell(1, totalRow), len(appts))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write export workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("appointments_%s_%s.xlsx", req.From, req.To)
	s.logger.Info("appointments exported",
		zap.String("caller_id", callerID),
		zap.Int("rows", len(appts)),
	)
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// CalendarFeed
// ════════════════════════════════════════════════════════════

func (s *exportService) CalendarFeed(ctx context.Context, callerID, callerRole string) (string, error) {
	filters, err := appointmentScope(ctx, s.repo, callerID, callerRole)
	if err != nil {
		return "", err
	}
	now := s.now()
	from := now.Add(-feedLookback)
	filters.From = &from

	appts, err := s.repo.Appointment.ListAll(ctx, filters)
	if err != nil {
		s.logger.Error("list appointments for calendar feed failed", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//DocBoard//Appointments//EN")
	cal.SetXWRCalName("DocBoard appointments")

	for i := range appts {
		a := &appts[i]
		evt := cal.AddEvent(a.AppointmentID + "@docboard")
		evt.SetDtStampTime(now.UTC())
		evt.SetStartAt(a.StartAt.UTC())
		evt.SetEndAt(a.EndAt().UTC())
		evt.SetStatus(icsStatus(a.Status))
		evt.SetSequence(a.Version)

		if callerRole == model.RoleDoctor {
			evt.SetSummary("Appointment: " + patientName(a.Patient))
		} else {
			evt.SetSummary("Appointment with " + doctorName(a.Doctor))
		}
		if a.Reason != "" {
			evt.SetDescription(a.Reason)
		}
	}

	return cal.Serialize(), nil
}

// icsStatus maps appointment statuses onto VEVENT STATUS values.
func icsStatus(status string) ics.ObjectStatus {
	switch status {
	case model.AppointmentPending:
		return ics.ObjectStatusTentative
	case model.AppointmentCancelled, model.AppointmentNoShow:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusConfirmed
	}
}

func doctorName(d *model.DoctorProfile) string {
	if d != nil && d.User != nil && d.User.Name != "" {
		return "Dr. " + d.User.Name
	}
	return "your doctor"
}

// colName 0 -> A, 25 -> Z, 26 -> AA.
func colName(idx int) string {
	name := ""
	for idx >= 0 {
		name = string(rune('A'+idx%26)) + name
		idx = idx/26 - 1
	}
	return name
}

func cell(col, row int) string {
	return fmt.Sprintf("%s%d", colName(col), row)
}
