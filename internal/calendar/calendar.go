// Package calendar builds the rolling date window shown in the booking date
// picker and formats dates the way the hospital backend expects them.
package calendar

import (
	"fmt"
	"time"
)

// DefaultWindowDays is today plus the following 29 days.
const DefaultWindowDays = 30

var (
	shortWeekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	fullWeekdays  = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	shortMonths   = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// Entry is one selectable day in the date picker.
type Entry struct {
	DayOfMonth int          `json:"day_of_month"`
	Weekday    time.Weekday `json:"-"`
	ShortName  string       `json:"weekday"`
	MonthIndex int          `json:"month_index"` // 0-11
	Year       int          `json:"year"`
	Date       time.Time    `json:"-"` // local midnight
}

// ISO returns the entry's local calendar date as YYYY-MM-DD.
func (e Entry) ISO() string {
	return ISODate(e)
}

// Generate returns windowDays consecutive local calendar days starting at
// anchor's date. Each call builds a fresh slice.
func Generate(windowDays int, anchor time.Time) []Entry {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	start := StartOfDay(anchor)
	entries := make([]Entry, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		entries = append(entries, NewEntry(start.AddDate(0, 0, i)))
	}
	return entries
}

// NewEntry describes the calendar day containing t in t's location.
func NewEntry(t time.Time) Entry {
	day := StartOfDay(t)
	return Entry{
		DayOfMonth: day.Day(),
		Weekday:    day.Weekday(),
		ShortName:  ShortWeekdayName(day.Weekday()),
		MonthIndex: int(day.Month()) - 1,
		Year:       day.Year(),
		Date:       day,
	}
}

// StartOfDay truncates t to local midnight without converting time zones.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekdayName is the full English weekday sent in booking payloads.
func WeekdayName(e Entry) string {
	return fullWeekdays[e.Date.Weekday()]
}

// ShortWeekdayName is the three-letter label used on date buttons.
func ShortWeekdayName(d time.Weekday) string {
	return shortWeekdays[d]
}

// ISODate formats the entry from its local components.
func ISODate(e Entry) string {
	return fmt.Sprintf("%04d-%02d-%02d", e.Year, e.MonthIndex+1, e.DayOfMonth)
}

// FormatISODate formats t's local calendar date. Never use t.UTC() here: a
// late-evening local time would shift to the next day.
func FormatISODate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseISODate reads YYYY-MM-DD as local midnight in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: parse date %q: %w", s, err)
	}
	return t, nil
}

// MonthYearLabel renders the schedule header, e.g. "Mar 2026". It always uses
// the current month, not the selected date's month.
func MonthYearLabel(now time.Time) string {
	return fmt.Sprintf("%s %d", shortMonths[now.Month()-1], now.Year())
}

// IndexOf returns the position of the entry on date's calendar day, or -1.
func IndexOf(entries []Entry, date time.Time) int {
	y, m, d := date.Date()
	for i, e := range entries {
		if e.Year == y && e.MonthIndex == int(m)-1 && e.DayOfMonth == d {
			return i
		}
	}
	return -1
}
