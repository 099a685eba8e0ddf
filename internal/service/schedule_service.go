package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/config"
	"docboard/internal/availability"
	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
	pkgredis "docboard/pkg/redis"
)

// specialDateHorizon bounds the overrides returned with a schedule.
const specialDateHorizon = 365

// ScheduleService weekly schedule, date overrides and slot availability.
type ScheduleService interface {
	GetSchedule(ctx context.Context, idOrMe, callerID string) (*dto.ScheduleResponse, error)
	ReplaceWeeklySchedule(ctx context.Context, idOrMe string, req *dto.ReplaceScheduleRequest, callerID, callerRole string) (*dto.ScheduleResponse, error)
	ListSpecialDates(ctx context.Context, idOrMe string, q *dto.SpecialDateQuery, callerID string) ([]dto.SpecialDateResponse, error)
	UpsertSpecialDate(ctx context.Context, idOrMe string, req *dto.SpecialDateRequest, callerID, callerRole string) (*dto.SpecialDateResponse, error)
	DeleteSpecialDate(ctx context.Context, idOrMe, date, callerID, callerRole string) error
	ImportICS(ctx context.Context, idOrMe string, r io.Reader, callerID, callerRole string) (*dto.ImportScheduleResponse, error)

	// GetAvailableSlots is the availability query; results are cached per doctor-day.
	GetAvailableSlots(ctx context.Context, idOrMe, date, callerID string) (*dto.SlotsResponse, error)
	// InvalidateSlots drops every cached day of doctorID.
	InvalidateSlots(ctx context.Context, doctorID string)
}

type scheduleService struct {
	repo   *repository.Repository
	slots  *slotResolver
	cache  SlotCache
	cfg    *config.SchedulingConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduleService creates a ScheduleService. cache may be nil.
func NewScheduleService(
	repo *repository.Repository,
	slots *slotResolver,
	cache SlotCache,
	cfg *config.SchedulingConfig,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		repo:   repo,
		slots:  slots,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *scheduleService) loc() *time.Location { return s.slots.calc.Location() }

// ════════════════════════════════════════════════════════════
// Weekly schedule
// ════════════════════════════════════════════════════════════

func (s *scheduleService) GetSchedule(ctx context.Context, idOrMe, callerID string) (*dto.ScheduleResponse, error) {
	doctor, err := findDoctor(ctx, s.repo, idOrMe, callerID)
	if err != nil {
		return nil, err
	}
	return s.buildSchedule(ctx, doctor.DoctorID)
}

func (s *scheduleService) buildSchedule(ctx context.Context, doctorID string) (*dto.ScheduleResponse, error) {
	windows, err := s.repo.Schedule.ListWindows(ctx, doctorID)
	if err != nil {
		s.logger.Error("list windows failed", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	today := s.slots.calc.DayStart(s.now())
	dates, err := s.repo.Schedule.ListSpecialDates(ctx, doctorID, today, today.AddDate(0, 0, specialDateHorizon))
	if err != nil {
		s.logger.Error("list special dates failed", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	resp := &dto.ScheduleResponse{
		DoctorID:     doctorID,
		Windows:      make([]dto.WindowResponse, 0, len(windows)),
		SpecialDates: make([]dto.SpecialDateResponse, 0, len(dates)),
	}
	for i := range windows {
		resp.Windows = append(resp.Windows, toWindowResponse(&windows[i]))
	}
	for i := range dates {
		resp.SpecialDates = append(resp.SpecialDates, toSpecialDateResponse(&dates[i]))
	}
	return resp, nil
}

// ReplaceWeeklySchedule validates every window and swaps the schedule atomically.
func (s *scheduleService) ReplaceWeeklySchedule(ctx context.Context, idOrMe string, req *dto.ReplaceScheduleRequest, callerID, callerRole string) (*dto.ScheduleResponse, error) {
	doctor, err := findDoctorForWrite(ctx, s.repo, idOrMe, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	windows := make([]availability.Window, 0, len(req.Windows))
	for _, w := range req.Windows {
		windows = append(windows, availability.Window{Weekday: w.DayOfWeek, Start: w.StartTime, End: w.EndTime})
	}
	if err := validateWeek(windows); err != nil {
		return nil, err
	}

	if err := s.replaceWindows(ctx, doctor.DoctorID, windows, callerID); err != nil {
		return nil, err
	}

	s.logger.Info("weekly schedule replaced",
		zap.String("doctor_id", doctor.DoctorID),
		zap.Int("windows", len(windows)),
		zap.String("by", callerID),
	)
	return s.buildSchedule(ctx, doctor.DoctorID)
}

func windowRows(doctorID string, windows []availability.Window, callerID string) []model.AvailabilityWindow {
	rows := make([]model.AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, model.AvailabilityWindow{
			DoctorID:  doctorID,
			DayOfWeek: w.Weekday,
			StartTime: w.Start,
			EndTime:   w.End,
			BaseModel: model.BaseModel{CreatedBy: &callerID},
		})
	}
	return rows
}

func (s *scheduleService) replaceWindows(ctx context.Context, doctorID string, windows []availability.Window, callerID string) error {
	if err := s.repo.Schedule.ReplaceWindows(ctx, doctorID, windowRows(doctorID, windows, callerID)); err != nil {
		s.logger.Error("replace windows failed", zap.String("doctor_id", doctorID), zap.Error(err))
		return err
	}
	s.InvalidateSlots(ctx, doctorID)
	return nil
}

// validateWeek rejects malformed windows and overlaps within one weekday.
func validateWeek(windows []availability.Window) error {
	for _, w := range windows {
		if err := availability.ValidateWindow(w); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
	}

	sorted := make([]availability.Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weekday != sorted[j].Weekday {
			return sorted[i].Weekday < sorted[j].Weekday
		}
		return sorted[i].Start < sorted[j].Start
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Weekday == cur.Weekday && cur.Start < prev.End {
			return fmt.Errorf("%w: day %d %s-%s and %s-%s", ErrWindowOverlap, cur.Weekday, prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Special dates
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListSpecialDates(ctx context.Context, idOrMe string, q *dto.SpecialDateQuery, callerID string) ([]dto.SpecialDateResponse, error) {
	doctor, err := findDoctor(ctx, s.repo, idOrMe, callerID)
	if err != nil {
		return nil, err
	}

	from := s.slots.calc.DayStart(s.now())
	to := from.AddDate(0, 0, specialDateHorizon)
	if q.From != "" {
		if from, err = parseDate(q.From, s.loc()); err != nil {
			return nil, err
		}
	}
	if q.To != "" {
		if to, err = parseDate(q.To, s.loc()); err != nil {
			return nil, err
		}
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	dates, err := s.repo.Schedule.ListSpecialDates(ctx, doctor.DoctorID, from, to)
	if err != nil {
		s.logger.Error("list special dates failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return nil, err
	}
	list := make([]dto.SpecialDateResponse, 0, len(dates))
	for i := range dates {
		list = append(list, toSpecialDateResponse(&dates[i]))
	}
	return list, nil
}

func (s *scheduleService) UpsertSpecialDate(ctx context.Context, idOrMe string, req *dto.SpecialDateRequest, callerID, callerRole string) (*dto.SpecialDateResponse, error) {
	doctor, err := findDoctorForWrite(ctx, s.repo, idOrMe, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date, s.loc())
	if err != nil {
		return nil, err
	}
	if date.Before(s.slots.calc.DayStart(s.now())) {
		return nil, ErrDateInPast
	}

	sd := &model.SpecialDate{
		DoctorID:  doctor.DoctorID,
		Date:      date,
		IsDayOff:  req.IsDayOff,
		Reason:    req.Reason,
		BaseModel: model.BaseModel{CreatedBy: &callerID, UpdatedBy: &callerID},
	}
	if !req.IsDayOff {
		if req.StartTime == nil || req.EndTime == nil {
			return nil, ErrInvalidSpecialDate
		}
		w := availability.Window{Weekday: availability.ISOWeekday(date), Start: *req.StartTime, End: *req.EndTime}
		if err := availability.ValidateWindow(w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSpecialDate, err)
		}
		sd.StartTime = req.StartTime
		sd.EndTime = req.EndTime
	}

	if err := s.repo.Schedule.UpsertSpecialDate(ctx, sd); err != nil {
		s.logger.Error("upsert special date failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return nil, err
	}
	s.InvalidateSlots(ctx, doctor.DoctorID)

	resp := toSpecialDateResponse(sd)
	return &resp, nil
}

func (s *scheduleService) DeleteSpecialDate(ctx context.Context, idOrMe, date, callerID, callerRole string) error {
	doctor, err := findDoctorForWrite(ctx, s.repo, idOrMe, callerID, callerRole)
	if err != nil {
		return err
	}
	d, err := parseDate(date, s.loc())
	if err != nil {
		return err
	}

	if err := s.repo.Schedule.DeleteSpecialDate(ctx, doctor.DoctorID, d); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpecialDateNotFound
		}
		s.logger.Error("delete special date failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return err
	}
	s.InvalidateSlots(ctx, doctor.DoctorID)
	return nil
}

// ════════════════════════════════════════════════════════════
// ICS import
// ════════════════════════════════════════════════════════════
//
// Recurring events replace the weekly schedule; one-off events become
// custom-hours overrides. Past one-off dates are ignored.

func (s *scheduleService) ImportICS(ctx context.Context, idOrMe string, r io.Reader, callerID, callerRole string) (*dto.ImportScheduleResponse, error) {
	doctor, err := findDoctorForWrite(ctx, s.repo, idOrMe, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseScheduleICS(r, s.loc())
	if err != nil {
		s.logger.Warn("ics parse failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return nil, ErrICSParseFailed
	}

	today := s.slots.calc.DayStart(s.now())
	resp := &dto.ImportScheduleResponse{Skipped: parsed.Skipped, Warnings: parsed.Warnings}

	var overrides []ImportedOverride
	for _, o := range parsed.Overrides {
		if o.Date.Before(today) {
			resp.Skipped++
			continue
		}
		overrides = append(overrides, o)
	}
	if len(parsed.Windows) == 0 && len(overrides) == 0 {
		return nil, ErrICSEmpty
	}

	// nil keeps the weekly schedule when the calendar has no recurring events
	var rows []model.AvailabilityWindow
	if len(parsed.Windows) > 0 {
		if err := validateWeek(parsed.Windows); err != nil {
			return nil, err
		}
		rows = windowRows(doctor.DoctorID, parsed.Windows, callerID)
	}

	dates := make([]model.SpecialDate, 0, len(overrides))
	for _, o := range overrides {
		start, end := o.Start, o.End
		dates = append(dates, model.SpecialDate{
			DoctorID:  doctor.DoctorID,
			Date:      o.Date,
			StartTime: &start,
			EndTime:   &end,
			Reason:    "imported from calendar",
			BaseModel: model.BaseModel{CreatedBy: &callerID, UpdatedBy: &callerID},
		})
	}

	if err := s.repo.Schedule.ImportSchedule(ctx, doctor.DoctorID, rows, dates); err != nil {
		s.logger.Error("ics import failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return nil, err
	}
	resp.WindowsImported = len(rows)
	resp.SpecialDatesImported = len(dates)
	s.InvalidateSlots(ctx, doctor.DoctorID)

	s.logger.Info("schedule imported from ics",
		zap.String("doctor_id", doctor.DoctorID),
		zap.Int("windows", resp.WindowsImported),
		zap.Int("special_dates", resp.SpecialDatesImported),
		zap.Int("skipped", resp.Skipped),
	)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// Availability
// ════════════════════════════════════════════════════════════

func (s *scheduleService) GetAvailableSlots(ctx context.Context, idOrMe, date, callerID string) (*dto.SlotsResponse, error) {
	day, err := parseDate(date, s.loc())
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkBookableDate(day, now, s.slots.calc, s.cfg.MaxAdvanceDays); err != nil {
		return nil, err
	}

	doctor, err := findDoctor(ctx, s.repo, idOrMe, callerID)
	if err != nil {
		return nil, err
	}

	// the generation is read before computing, so a result racing an
	// invalidation is stored under a retired key and never served
	var key string
	if s.cache != nil {
		if gen, ok := s.slotGeneration(ctx, doctor.DoctorID); ok {
			key = slotCacheKey(doctor.DoctorID, gen, day)
			var cached dto.SlotsResponse
			err := s.cache.GetJSON(ctx, key, &cached)
			if err == nil {
				return s.dropStarted(&cached, day, now), nil
			}
			if !errors.Is(err, pkgredis.ErrCacheMiss) {
				s.logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	plan, err := s.slots.resolve(ctx, doctor.DoctorID, day)
	if err != nil {
		return nil, err
	}

	resp := &dto.SlotsResponse{
		DoctorID:       doctor.DoctorID,
		Date:           day.Format(dateLayout),
		AvailableSlots: plan.result.AvailableSlots,
		BookedSlots:    plan.result.BookedSlots,
	}

	if key != "" && s.cfg.SlotCacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, resp, s.cfg.SlotCacheTTL); err != nil {
			s.logger.Warn("slot cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return s.dropStarted(resp, day, now), nil
}

// dropStarted removes available starts at or before now. Only today is affected;
// the cached copy keeps the full day.
func (s *scheduleService) dropStarted(resp *dto.SlotsResponse, day, now time.Time) *dto.SlotsResponse {
	if !day.Equal(s.slots.calc.DayStart(now)) {
		return resp
	}
	out := *resp
	out.AvailableSlots = make([]string, 0, len(resp.AvailableSlots))
	for _, label := range resp.AvailableSlots {
		if at, err := s.slots.calc.SlotTime(day, label); err == nil && at.After(now) {
			out.AvailableSlots = append(out.AvailableSlots, label)
		}
	}
	return &out
}

// slotGeneration returns the doctor's current cache generation. ok is false
// when the cache cannot be read, and the caller then bypasses it.
func (s *scheduleService) slotGeneration(ctx context.Context, doctorID string) (string, bool) {
	var gen string
	err := s.cache.GetJSON(ctx, slotGenerationKey(doctorID), &gen)
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, pkgredis.ErrCacheMiss):
		return initialSlotGeneration, true
	default:
		s.logger.Warn("slot cache generation read failed", zap.String("doctor_id", doctorID), zap.Error(err))
		return "", false
	}
}

// InvalidateSlots retires the doctor's cache generation and drops its slot keys.
func (s *scheduleService) InvalidateSlots(ctx context.Context, doctorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, slotGenerationKey(doctorID), uuid.NewString(), 0); err != nil {
		s.logger.Warn("slot cache generation bump failed", zap.String("doctor_id", doctorID), zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, slotCachePattern(doctorID)); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("doctor_id", doctorID), zap.Error(err))
	}
}
