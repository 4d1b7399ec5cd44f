// Package booking turns a date/shift/slot selection into the backend's
// slot-creation request and submits it.
package booking

import (
	"strings"

	"github.com/wolfman30/patient-booking/internal/availability"
	"github.com/wolfman30/patient-booking/internal/calendar"
	"github.com/wolfman30/patient-booking/internal/doctors"
	"github.com/wolfman30/patient-booking/internal/timecodec"
)

const (
	// DefaultShift is sent when no shift tab is active.
	DefaultShift = "afternoon"
	// SlotDurationMinutes is fixed for this workflow; it is not derived from
	// the selected start/end.
	SlotDurationMinutes = 60
)

// SlotRange is one start/end pair in the request.
type SlotRange struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Payload is the body of POST /user/availabilityslots.
type Payload struct {
	DoctorID            doctors.ID  `json:"doctor_id"`
	DayOfWeek           string      `json:"day_of_week"`
	ShiftType           string      `json:"shift_type"`
	StartTime           string      `json:"start_time"`
	EndTime             string      `json:"end_time"`
	SlotDurationMinutes int         `json:"slot_duration"`
	Slots               []SlotRange `json:"slots"`
}

// Selection is what the patient picked.
type Selection struct {
	DoctorID  doctors.ID
	Date      calendar.Entry
	ShiftTab  string
	SlotLabel string
	// Slot is the live API slot behind SlotLabel, when there is one.
	Slot *availability.TimeSlot
}

// Builder derives payloads from selections.
type Builder struct {
	DefaultShift        string
	SlotDurationMinutes int
}

// NewBuilder returns a builder with the standard defaults.
func NewBuilder() Builder {
	return Builder{DefaultShift: DefaultShift, SlotDurationMinutes: SlotDurationMinutes}
}

// Build computes the request body. It always succeeds; unreadable labels fall
// back to timecodec.DefaultRange.
func (b Builder) Build(sel Selection) Payload {
	duration := b.SlotDurationMinutes
	if duration <= 0 {
		duration = SlotDurationMinutes
	}

	shift := strings.ToLower(strings.TrimSpace(sel.ShiftTab))
	if shift == "" {
		shift = strings.ToLower(strings.TrimSpace(b.DefaultShift))
	}
	if shift == "" {
		shift = DefaultShift
	}

	r := b.times(sel, duration)
	return Payload{
		DoctorID:            sel.DoctorID,
		DayOfWeek:           calendar.WeekdayName(sel.Date),
		ShiftType:           shift,
		StartTime:           r.Start,
		EndTime:             r.End,
		SlotDurationMinutes: duration,
		Slots:               []SlotRange{{StartTime: r.Start, EndTime: r.End}},
	}
}

func (b Builder) times(sel Selection, duration int) timecodec.Range {
	if sel.Slot != nil && strings.TrimSpace(sel.Slot.StartTime) != "" {
		r := timecodec.Range{Start: sel.Slot.StartTime, End: sel.Slot.EndTime}
		if strings.TrimSpace(r.End) == "" {
			r.End, _ = timecodec.AddMinutes(r.Start, duration)
		}
		return r
	}
	if start, ok := timecodec.Parse12HourLabel(sel.SlotLabel); ok {
		end, _ := timecodec.AddMinutes(start, duration)
		return timecodec.Range{Start: start, End: end}
	}
	return timecodec.ParseRangeLabel(sel.SlotLabel)
}
