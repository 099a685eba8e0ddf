// Package availability derives bookable time slots for one doctor on one
// calendar date from weekly windows and existing appointments.
//
// The calculator performs no I/O and holds no mutable state, so a single
// instance can be shared by every request goroutine.
package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status mirrors the appointment lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var (
	ErrInvalidInput  = errors.New("invalid availability input")
	ErrInvalidWindow = errors.New("invalid availability window")
)

// Window is one weekly interval; Weekday is ISO (Monday=1 to Sunday=7).
type Window struct {
	Weekday int
	Start   string // HH:MM
	End     string // HH:MM
}

// Commitment is an existing appointment on the target date.
type Commitment struct {
	StartAt         time.Time
	DurationMinutes int
	Status          Status
}

// Config controls slot width, the fallback window and the wall-clock zone.
type Config struct {
	SlotMinutes  int
	DefaultStart string
	DefaultEnd   string
	Location     *time.Location
}

// Input is everything needed for one computation.
// Commitments may include cancelled entries; they are filtered here.
type Input struct {
	ProviderID  string
	Date        time.Time
	Windows     []Window
	Commitments []Commitment
}

// Result holds two disjoint ascending HH:MM lists over the same candidate grid.
type Result struct {
	AvailableSlots     []string `json:"available_slots"`
	BookedSlots        []string `json:"booked_slots"`
	SkippedWindows     int      `json:"-"`
	SkippedCommitments int      `json:"-"`
}

// Calculator is immutable after NewCalculator.
type Calculator struct {
	slotMinutes  int
	defaultStart int
	defaultEnd   int
	loc          *time.Location
}

// NewCalculator validates cfg and fills defaults (30 minutes, 09:00-17:00, UTC).
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if cfg.DefaultStart == "" {
		cfg.DefaultStart = "09:00"
	}
	if cfg.DefaultEnd == "" {
		cfg.DefaultEnd = "17:00"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	start, err := ParseClock(cfg.DefaultStart)
	if err != nil {
		return nil, fmt.Errorf("default window start: %w", err)
	}
	end, err := ParseClock(cfg.DefaultEnd)
	if err != nil {
		return nil, fmt.Errorf("default window end: %w", err)
	}
	if start >= end {
		return nil, fmt.Errorf("%w: default window %s-%s", ErrInvalidWindow, cfg.DefaultStart, cfg.DefaultEnd)
	}
	if cfg.SlotMinutes > end-start {
		return nil, fmt.Errorf("slot of %d minutes does not fit the default window", cfg.SlotMinutes)
	}

	return &Calculator{
		slotMinutes:  cfg.SlotMinutes,
		defaultStart: start,
		defaultEnd:   end,
		loc:          cfg.Location,
	}, nil
}

// SlotDuration returns the candidate slot width.
func (c *Calculator) SlotDuration() time.Duration {
	return time.Duration(c.slotMinutes) * time.Minute
}

// Location returns the wall-clock zone slots are expressed in.
func (c *Calculator) Location() *time.Location { return c.loc }

// DayStart returns local midnight of the calendar date of t.
func (c *Calculator) DayStart(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// SlotTime resolves an HH:MM label on date to an absolute instant.
func (c *Calculator) SlotTime(date time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return c.at(date, minutes), nil
}

func (c *Calculator) at(date time.Time, minutes int) time.Time {
	y, m, d := date.In(c.loc).Date()
	return time.Date(y, m, d, 0, minutes, 0, 0, c.loc)
}

// ValidateWindow checks weekday range, clock format and start < end.
func ValidateWindow(w Window) error {
	if w.Weekday < 1 || w.Weekday > 7 {
		return fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidWindow, w.Weekday)
	}
	start, err := ParseClock(w.Start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Compute partitions the candidate grid of in.Date into available and booked slots.
//
// Windows for other weekdays are ignored. When none match, the default window
// is used. Malformed windows and non-positive commitment durations are skipped
// and counted in the result.
func (c *Calculator) Compute(in Input) (Result, error) {
	if strings.TrimSpace(in.ProviderID) == "" {
		return Result{}, fmt.Errorf("%w: provider id is required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return Result{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	day := c.DayStart(in.Date)
	weekday := ISOWeekday(day)

	res := Result{
		AvailableSlots: make([]string, 0),
		BookedSlots:    make([]string, 0),
	}

	// ── 1. candidate grid ──
	seen := make(map[int]struct{})
	matched := 0
	for _, w := range in.Windows {
		if w.Weekday != weekday {
			continue
		}
		matched++
		if err := ValidateWindow(w); err != nil {
			res.SkippedWindows++
			continue
		}
		start, _ := ParseClock(w.Start)
		end, _ := ParseClock(w.End)
		c.fill(seen, start, end)
	}
	if matched == 0 {
		c.fill(seen, c.defaultStart, c.defaultEnd)
	}

	starts := make([]int, 0, len(seen))
	for m := range seen {
		starts = append(starts, m)
	}
	sort.Ints(starts)

	// ── 2. blocking intervals ──
	type interval struct{ start, end time.Time }
	busy := make([]interval, 0, len(in.Commitments))
	for _, cm := range in.Commitments {
		if cm.Status == StatusCancelled {
			continue
		}
		if cm.DurationMinutes <= 0 || cm.StartAt.IsZero() {
			res.SkippedCommitments++
			continue
		}
		busy = append(busy, interval{
			start: cm.StartAt,
			end:   cm.StartAt.Add(time.Duration(cm.DurationMinutes) * time.Minute),
		})
	}

	// ── 3. partition ──
	width := c.SlotDuration()
	for _, m := range starts {
		slotStart := c.at(day, m)
		slotEnd := slotStart.Add(width)

		conflict := false
		for _, b := range busy {
			if Overlaps(slotStart, slotEnd, b.start, b.end) {
				conflict = true
				break
			}
		}

		label := FormatClock(m)
		if conflict {
			res.BookedSlots = append(res.BookedSlots, label)
		} else {
			res.AvailableSlots = append(res.AvailableSlots, label)
		}
	}

	return res, nil
}

// fill adds every slot start in [start,end) whose full slot fits before end.
func (c *Calculator) fill(seen map[int]struct{}, start, end int) {
	for t := start; t+c.slotMinutes <= end; t += c.slotMinutes {
		seen[t] = struct{}{}
	}
}
