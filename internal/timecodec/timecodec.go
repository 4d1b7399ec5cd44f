// Package timecodec converts between canonical 24-hour slot times ("HH:MM:SS")
// and the labels shown on booking buttons.
//
// Two label formats exist. Live slots from the availability API are shown as a
// single 12-hour time ("01:30 PM"). The legacy static slot buttons use a compact
// range with one shared meridiem ("12-01 PM").
package timecodec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Range is a canonical start/end pair in "HH:MM:SS".
type Range struct {
	Start string
	End   string
}

// DefaultRange is returned by ParseRangeLabel when the label cannot be read.
var DefaultRange = Range{Start: "09:00:00", End: "10:00:00"}

// LegacySlotLabels are the static slot buttons offered when no live slots exist.
var LegacySlotLabels = []string{"09-10 AM", "10-11 AM", "11-12 AM", "12-01 PM"}

// DefaultLegacySlot is the button preselected in legacy mode.
const DefaultLegacySlot = "09-10 AM"

// LabelFormat identifies which label style a string uses.
type LabelFormat int

const (
	FormatUnknown LabelFormat = iota
	FormatTwelveHour
	FormatLegacyRange
)

func (f LabelFormat) String() string {
	switch f {
	case FormatTwelveHour:
		return "twelve_hour"
	case FormatLegacyRange:
		return "legacy_range"
	default:
		return "unknown"
	}
}

var (
	rangeLabelPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s*-\s*(\d{1,2})\s*(AM|PM)\s*$`)
	twelveHourPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(AM|PM)\s*$`)
	twentyFourPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})(?::(\d{2}))?\s*$`)
)

// To12Hour renders "HH:MM:SS" as "HH:MM AM/PM". Hour 0 is 12 AM and hour 12 is
// 12 PM. Minutes pass through unchanged. Input that is not a 24-hour clock
// value is returned trimmed.
func To12Hour(time24 string) string {
	m := twentyFourPattern.FindStringSubmatch(time24)
	if m == nil {
		return strings.TrimSpace(time24)
	}
	hour, _ := strconv.Atoi(m[1])
	if hour > 23 {
		return strings.TrimSpace(time24)
	}
	meridiem := "AM"
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		hour -= 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%s %s", hour, m[2], meridiem)
}

// Parse12HourLabel converts "HH:MM AM/PM" back to "HH:MM:00".
func Parse12HourLabel(label string) (string, bool) {
	m := twelveHourPattern.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:00", to24(hour, strings.ToUpper(m[3])), minute), true
}

// ParseRangeLabel reads a legacy "HH-HH AM/PM" label. Both bounds share the
// meridiem, so "12-01 PM" is 12:00:00 to 13:00:00. Unreadable labels yield
// DefaultRange.
func ParseRangeLabel(label string) Range {
	m := rangeLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return DefaultRange
	}
	meridiem := strings.ToUpper(m[3])
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start < 1 || start > 12 || end < 1 || end > 12 {
		return DefaultRange
	}
	return Range{
		Start: fmt.Sprintf("%02d:00:00", to24(start, meridiem)),
		End:   fmt.Sprintf("%02d:00:00", to24(end, meridiem)),
	}
}

// DetectLabelFormat reports which label style s uses.
func DetectLabelFormat(s string) LabelFormat {
	switch {
	case twelveHourPattern.MatchString(s):
		return FormatTwelveHour
	case rangeLabelPattern.MatchString(s):
		return FormatLegacyRange
	default:
		return FormatUnknown
	}
}

// AddMinutes shifts a "HH:MM:SS" value, wrapping at midnight.
func AddMinutes(time24 string, minutes int) (string, bool) {
	m := twentyFourPattern.FindStringSubmatch(time24)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if hour > 23 || minute > 59 || second > 59 {
		return "", false
	}
	total := ((hour*60+minute+minutes)%(24*60) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d:%02d", total/60, total%60, second), true
}

// to24 applies the shared-meridiem rule: 12 AM is hour 0, PM adds 12 unless
// the numeral is already 12.
func to24(hour int, meridiem string) int {
	switch {
	case meridiem == "AM" && hour == 12:
		return 0
	case meridiem == "PM" && hour != 12:
		return hour + 12
	default:
		return hour
	}
}
