package workflow

import (
	"github.com/wolfman30/patient-booking/internal/availability"
	"github.com/wolfman30/patient-booking/internal/calendar"
	"github.com/wolfman30/patient-booking/internal/doctors"
)

// Label modes of the slot buttons.
const (
	LabelModeLive   = "live"
	LabelModeLegacy = "legacy"
)

// DateView is one date button.
type DateView struct {
	Index      int    `json:"index"`
	Date       string `json:"date"`
	DayOfMonth int    `json:"day_of_month"`
	Weekday    string `json:"weekday"`
}

// SlotsView is the slot pane for the selected date.
type SlotsView struct {
	Kind        availability.Kind         `json:"kind"`
	Date        string                    `json:"date"`
	Holiday     *availability.HolidayInfo `json:"holiday_info,omitempty"`
	ShiftTabs   []string                  `json:"shift_tabs"`
	ActiveShift string                    `json:"active_shift,omitempty"`
	Labels      []string                  `json:"labels"`
	LabelMode   string                    `json:"label_mode"`
}

// View is an immutable snapshot of the screen.
type View struct {
	Version       uint64         `json:"version"`
	DoctorStatus  DoctorStatus   `json:"doctor_status"`
	Doctor        doctors.Doctor `json:"doctor"`
	MonthYear     string         `json:"month_year"`
	Dates         []DateView     `json:"dates"`
	SelectedIndex int            `json:"selected_index"`
	SelectedDate  string         `json:"selected_date"`
	Slots         SlotsView      `json:"slots"`
	SelectedSlot  string         `json:"selected_slot,omitempty"`
	Submission    Submission     `json:"submission"`
	CanSubmit     bool           `json:"can_submit"`
}

// DateViews renders date picker entries as buttons.
func DateViews(entries []calendar.Entry) []DateView {
	out := make([]DateView, len(entries))
	for i, e := range entries {
		out[i] = DateView{Index: i, Date: e.ISO(), DayOfMonth: e.DayOfMonth, Weekday: e.ShortName}
	}
	return out
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Dates returns the date window.
func (c *Controller) Dates() []calendar.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]calendar.Entry(nil), c.dates...)
}

// Doctor returns the resolved doctor, and whether resolution finished.
func (c *Controller) Doctor() (doctors.Doctor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doctor, c.doctorStatus == DoctorReady
}

func (c *Controller) commitLocked() View {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() View {
	slots := SlotsView{
		Kind:      c.slots.Kind(),
		Date:      c.dates[c.selected].ISO(),
		ShiftTabs: []string{},
		Labels:    []string{},
		LabelMode: LabelModeLive,
	}
	if h, ok := c.slots.(availability.Holiday); ok {
		slots.Holiday = h.Info
	}
	for _, g := range availability.BookableGroups(c.slots) {
		slots.ShiftTabs = append(slots.ShiftTabs, g.ShiftType)
	}
	slots.ActiveShift = c.shiftTab
	if labels := c.labelsLocked(); labels != nil {
		slots.Labels = labels
	}
	if c.legacyModeLocked() {
		slots.LabelMode = LabelModeLegacy
	}

	return View{
		Version:       c.version,
		DoctorStatus:  c.doctorStatus,
		Doctor:        c.doctor,
		MonthYear:     calendar.MonthYearLabel(c.deps.Now()),
		Dates:         DateViews(c.dates),
		SelectedIndex: c.selected,
		SelectedDate:  c.dates[c.selected].ISO(),
		Slots:         slots,
		SelectedSlot:  c.slotLabel,
		Submission:    c.submission,
		CanSubmit:     c.canSubmitLocked(),
	}
}

// Subscribe streams views. The channel holds only the newest view; a slow
// reader skips intermediate ones. cancel releases the subscription.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	c.subMu.Lock()
	if c.closed {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	current := c.Snapshot()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- current
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close ends all subscriptions.
func (c *Controller) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) publish(v View) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed || v.Version <= c.lastPublished {
		return
	}
	c.lastPublished = v.Version
	for _, ch := range c.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
