package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/internal/availability"
	"docboard/internal/repository"
)

// slotResolver loads one doctor-day from storage and runs the calculator on it.
// Shared by the schedule (read) and appointment (book) flows so both see the same slots.
type slotResolver struct {
	repo   *repository.Repository
	calc   *availability.Calculator
	logger *zap.Logger
}

func newSlotResolver(repo *repository.Repository, calc *availability.Calculator, logger *zap.Logger) *slotResolver {
	return &slotResolver{repo: repo, calc: calc, logger: logger}
}

// dayPlan is the calculator result for one doctor-day.
type dayPlan struct {
	result availability.Result
	dayOff bool
}

// resolve computes slots for doctorID on date (local midnight).
//
// A day-off override yields an empty result without consulting the calculator.
// Custom-hours overrides replace the weekly windows for that date.
func (r *slotResolver) resolve(ctx context.Context, doctorID string, date time.Time) (*dayPlan, error) {
	day := r.calc.DayStart(date)
	weekday := availability.ISOWeekday(day)

	var windows []availability.Window
	sd, err := r.repo.Schedule.GetSpecialDate(ctx, doctorID, day)
	switch {
	case err == nil && sd.IsDayOff:
		return &dayPlan{
			result: availability.Result{AvailableSlots: []string{}, BookedSlots: []string{}},
			dayOff: true,
		}, nil
	case err == nil && sd.StartTime != nil && sd.EndTime != nil:
		windows = []availability.Window{{Weekday: weekday, Start: *sd.StartTime, End: *sd.EndTime}}
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		r.logger.Error("load special date failed", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	default:
		stored, err := r.repo.Schedule.ListWindowsByDay(ctx, doctorID, weekday)
		if err != nil {
			r.logger.Error("load availability windows failed", zap.String("doctor_id", doctorID), zap.Error(err))
			return nil, err
		}
		windows = make([]availability.Window, 0, len(stored))
		for _, w := range stored {
			windows = append(windows, availability.Window{Weekday: w.DayOfWeek, Start: w.StartTime, End: w.EndTime})
		}
	}

	appts, err := r.repo.Appointment.ListOverlapping(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		r.logger.Error("load appointments failed", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	res, err := r.calc.Compute(availability.Input{
		ProviderID:  doctorID,
		Date:        day,
		Windows:     windows,
		Commitments: commitmentsOf(appts),
	})
	if err != nil {
		return nil, err
	}
	if res.SkippedWindows > 0 || res.SkippedCommitments > 0 {
		r.logger.Warn("malformed schedule data skipped",
			zap.String("doctor_id", doctorID),
			zap.String("date", day.Format(dateLayout)),
			zap.Int("skipped_windows", res.SkippedWindows),
			zap.Int("skipped_commitments", res.SkippedCommitments),
		)
	}

	return &dayPlan{result: res}, nil
}

// checkBookableDate rejects dates before today and beyond maxAdvanceDays (0 = unlimited).
func checkBookableDate(date, now time.Time, calc *availability.Calculator, maxAdvanceDays int) error {
	today := calc.DayStart(now)
	if date.Before(today) {
		return ErrDateInPast
	}
	if maxAdvanceDays > 0 && date.After(today.AddDate(0, 0, maxAdvanceDays)) {
		return ErrDateTooFar
	}
	return nil
}

// initialSlotGeneration is used until the first invalidation stores a generation.
const initialSlotGeneration = "0"

func slotGenerationKey(doctorID string) string {
	return "slots-gen:" + doctorID
}

func slotCacheKey(doctorID, generation string, date time.Time) string {
	return "slots:" + doctorID + ":" + generation + ":" + date.Format(dateLayout)
}

func slotCachePattern(doctorID string) string {
	return "slots:" + doctorID + ":*"
}

// ── process-local fallback lock ──

// localLocks is a refcounted mutex per key, used when no distributed Locker is configured.
type localLocks struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	mu   sync.Mutex
	refs int
}

func newLocalLocks() *localLocks {
	return &localLocks{locks: make(map[string]*localLock)}
}

// lock blocks until key is held and returns its release func.
func (l *localLocks) lock(key string) func() {
	l.mu.Lock()
	ll, ok := l.locks[key]
	if !ok {
		ll = &localLock{}
		l.locks[key] = ll
	}
	ll.refs++
	l.mu.Unlock()

	ll.mu.Lock()
	return func() {
		ll.mu.Unlock()
		l.mu.Lock()
		ll.refs--
		if ll.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
