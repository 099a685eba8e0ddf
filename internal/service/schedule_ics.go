package service

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"docboard/internal/availability"
)

// ── ICS schedule import ──────────────────────────────────────
//
// Maps an iCalendar file (RFC 5545) onto a doctor's schedule:
//   - weekly RRULE events become availability windows (BYDAY or the DTSTART weekday)
//   - FREQ=DAILY events open every weekday
//   - one-off events become custom-hours overrides for their date
//   - cancelled, transparent, all-day and multi-day events are skipped
// Overlapping windows on one weekday are merged.
// ─────────────────────────────────────────────────────────────

const icsMaxFileSize = 2 * 1024 * 1024

// ImportedOverride one custom-hours date from a one-off event.
type ImportedOverride struct {
	Date  time.Time // local midnight
	Start string
	End   string
}

// ImportedSchedule parsed calendar content.
type ImportedSchedule struct {
	Windows   []availability.Window
	Overrides []ImportedOverride
	Skipped   int
	Warnings  []string
}

var icsWeekdays = map[string]int{
	"MO": 1, "TU": 2, "WE": 3, "TH": 4, "FR": 5, "SA": 6, "SU": 7,
}

// ParseScheduleICS reads at most icsMaxFileSize bytes of calendar data.
func ParseScheduleICS(r io.Reader, loc *time.Location) (*ImportedSchedule, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParseFailed, err)
	}

	out := &ImportedSchedule{}
	overrides := make(map[string]*ImportedOverride)
	var overrideOrder []string

	for _, evt := range cal.Events() {
		label := eventLabel(evt)

		if isIgnoredEvent(evt) {
			out.Skipped++
			continue
		}

		start, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
		if err != nil {
			out.Skipped++
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: missing or invalid DTSTART", label))
			continue
		}
		end, err := eventEnd(evt, start, loc)
		if err != nil {
			out.Skipped++
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: missing or invalid DTEND", label))
			continue
		}
		if !sameDay(start, end) && !isMidnightEnd(start, end) {
			out.Skipped++
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: spans more than one day", label))
			continue
		}

		startClock := start.Format("15:04")
		endClock := end.Format("15:04")
		if isMidnightEnd(start, end) {
			endClock = "24:00"
		}
		if startClock >= endClock {
			out.Skipped++
			continue
		}

		rrule := evt.GetProperty(ics.ComponentPropertyRrule)
		if rrule == nil {
			key := start.Format(dateLayout)
			if o, ok := overrides[key]; ok {
				// one interval per date: widen to cover both events
				if startClock < o.Start {
					o.Start = startClock
				}
				if endClock > o.End {
					o.End = endClock
				}
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: merged with another event on %s", label, key))
				continue
			}
			y, m, d := start.Date()
			overrides[key] = &ImportedOverride{
				Date:  time.Date(y, m, d, 0, 0, 0, 0, loc),
				Start: startClock,
				End:   endClock,
			}
			overrideOrder = append(overrideOrder, key)
			continue
		}

		days, ok := ruleWeekdays(rrule.Value, start)
		if !ok {
			out.Skipped++
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: unsupported recurrence %q", label, rrule.Value))
			continue
		}
		for _, day := range days {
			out.Windows = append(out.Windows, availability.Window{Weekday: day, Start: startClock, End: endClock})
		}
	}

	out.Windows = mergeWindows(out.Windows)
	for _, k := range overrideOrder {
		out.Overrides = append(out.Overrides, *overrides[k])
	}
	return out, nil
}

func eventLabel(evt *ics.VEvent) string {
	if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
		return strconv.Quote(strings.TrimSpace(p.Value))
	}
	return "event " + evt.Id()
}

func isIgnoredEvent(evt *ics.VEvent) bool {
	if p := evt.GetProperty(ics.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, string(ics.ObjectStatusCancelled)) {
		return true
	}
	if p := evt.GetProperty(ics.ComponentPropertyTransp); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return true
	}
	if p := evt.GetProperty(ics.ComponentPropertyDtStart); p != nil {
		for k, v := range p.ICalParameters {
			if strings.EqualFold(k, "VALUE") && len(v) > 0 && strings.EqualFold(v[0], "DATE") {
				return true
			}
		}
		if len(p.Value) == len("20060102") {
			return true
		}
	}
	return false
}

// eventEnd reads DTEND, falling back to DURATION.
func eventEnd(evt *ics.VEvent, start time.Time, loc *time.Location) (time.Time, error) {
	if end, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc); err == nil {
		return end, nil
	}
	p := evt.GetProperty(ics.ComponentPropertyDuration)
	if p == nil {
		return time.Time{}, fmt.Errorf("no DTEND or DURATION")
	}
	d, err := parseICSDuration(p.Value)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(d), nil
}

// parseICSDuration supports the dur-time subset: PT#H#M#S.
func parseICSDuration(v string) (time.Duration, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if !strings.HasPrefix(v, "PT") {
		return 0, fmt.Errorf("unsupported duration %q", v)
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(v, "PT")))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("unsupported duration %q", v)
	}
	return d, nil
}

// ruleWeekdays returns the ISO weekdays a weekly or daily RRULE occurs on.
func ruleWeekdays(value string, start time.Time) ([]int, bool) {
	var freq string
	var byDay []int
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			freq = strings.ToUpper(kv[1])
		case "BYDAY":
			for _, d := range strings.Split(kv[1], ",") {
				d = strings.ToUpper(strings.TrimSpace(d))
				// strip ordinal prefixes such as 1MO / -1FR
				if len(d) > 2 {
					d = d[len(d)-2:]
				}
				if n, ok := icsWeekdays[d]; ok {
					byDay = append(byDay, n)
				}
			}
		}
	}

	switch freq {
	case "WEEKLY":
		if len(byDay) == 0 {
			return []int{availability.ISOWeekday(start)}, true
		}
		return byDay, true
	case "DAILY":
		if len(byDay) > 0 {
			return byDay, true
		}
		return []int{1, 2, 3, 4, 5, 6, 7}, true
	default:
		return nil, false
	}
}

// mergeWindows unions overlapping or touching windows per weekday, sorted by day then start.
func mergeWindows(windows []availability.Window) []availability.Window {
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Weekday != windows[j].Weekday {
			return windows[i].Weekday < windows[j].Weekday
		}
		return windows[i].Start < windows[j].Start
	})

	merged := make([]availability.Window, 0, len(windows))
	for _, w := range windows {
		n := len(merged)
		if n > 0 && merged[n-1].Weekday == w.Weekday && w.Start <= merged[n-1].End {
			if w.End > merged[n-1].End {
				merged[n-1].End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isMidnightEnd(start, end time.Time) bool {
	next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())
	return end.Equal(next)
}

// parseICSDateTime reads a DATE-TIME property into loc, honouring TZID and UTC forms.
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", val)
}
