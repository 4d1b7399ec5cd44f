package availability

import (
	"strings"
	"time"

	"github.com/wolfman30/patient-booking/internal/timecodec"
)

// Kind names a State for serialization.
type Kind string

const (
	KindLoading Kind = "loading"
	KindHoliday Kind = "holiday"
	KindEmpty   Kind = "empty"
	KindReady   Kind = "ready"
)

// State is the slot pane's state for the selected date. Exactly one of
// Loading, Holiday, Empty or Ready.
type State interface {
	Kind() Kind
	isState()
}

// Loading is shown while the slots for Date are being fetched.
type Loading struct{ Date time.Time }

// Holiday means the doctor is on leave; no slots are bookable.
type Holiday struct{ Info *HolidayInfo }

// Empty means the day has no shift groups.
type Empty struct{}

// Ready carries the bookable shift groups in backend order.
type Ready struct{ Groups []ShiftGroup }

func (Loading) Kind() Kind { return KindLoading }
func (Holiday) Kind() Kind { return KindHoliday }
func (Empty) Kind() Kind   { return KindEmpty }
func (Ready) Kind() Kind   { return KindReady }

func (Loading) isState() {}
func (Holiday) isState() {}
func (Empty) isState()   {}
func (Ready) isState()   {}

// Classify maps a fetch result to a State. A holiday wins over any groups the
// backend also returned.
func Classify(r Result) State {
	switch {
	case r.IsHoliday:
		return Holiday{Info: r.Holiday}
	case len(r.ShiftGroups) == 0:
		return Empty{}
	default:
		return Ready{Groups: r.ShiftGroups}
	}
}

// BookableGroups returns the groups that may be offered. Only Ready has any.
func BookableGroups(s State) []ShiftGroup {
	if ready, ok := s.(Ready); ok {
		return ready.Groups
	}
	return nil
}

// InitialShiftTab is the tab activated when s arrives: the first group in
// response order, or none.
func InitialShiftTab(s State) (string, bool) {
	groups := BookableGroups(s)
	if len(groups) == 0 {
		return "", false
	}
	return groups[0].ShiftType, true
}

// FindGroup looks up a shift by type, ignoring case and surrounding space.
func FindGroup(groups []ShiftGroup, shiftType string) (ShiftGroup, bool) {
	shiftType = strings.TrimSpace(shiftType)
	for _, g := range groups {
		if strings.EqualFold(g.ShiftType, shiftType) {
			return g, true
		}
	}
	return ShiftGroup{}, false
}

// Labels renders the group's slots as 12-hour button labels.
func Labels(g ShiftGroup) []string {
	labels := make([]string, 0, len(g.Slots))
	for _, s := range g.Slots {
		labels = append(labels, timecodec.To12Hour(s.StartTime))
	}
	return labels
}

// SlotForLabel returns the first slot in g whose label is label.
func SlotForLabel(g ShiftGroup, label string) (TimeSlot, bool) {
	label = strings.TrimSpace(label)
	for _, s := range g.Slots {
		if strings.EqualFold(timecodec.To12Hour(s.StartTime), label) {
			return s, true
		}
	}
	return TimeSlot{}, false
}
