// Package workflow drives the book-appointment screen: doctor resolution, the
// date window, slot loading per date, shift and slot selection, and booking
// submission.
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/patient-booking/internal/availability"
	"github.com/wolfman30/patient-booking/internal/booking"
	"github.com/wolfman30/patient-booking/internal/calendar"
	"github.com/wolfman30/patient-booking/internal/doctors"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/internal/timecodec"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

var (
	ErrUnknownDate    = errors.New("workflow: date not in window")
	ErrUnknownShift   = errors.New("workflow: shift not offered")
	ErrUnknownSlot    = errors.New("workflow: slot not offered")
	ErrSubmitDisabled = errors.New("workflow: submit disabled")
)

// DefaultGuestDelay is how long a guest waits for the simulated confirmation.
const DefaultGuestDelay = 1500 * time.Millisecond

const (
	successMessage   = "Appointment booked successfully"
	failureMessage   = "Failed to book appointment"
	cancelledMessage = "Booking cancelled"
)

// DoctorSource resolves doctor profiles.
type DoctorSource interface {
	Lookup(ctx context.Context, id doctors.ID) (doctors.Doctor, error)
}

// AvailabilitySource resolves one day's slots. It must not fail.
type AvailabilitySource interface {
	Fetch(ctx context.Context, id doctors.ID, date time.Time) availability.Result
}

// BookingSubmitter sends a booking to the backend.
type BookingSubmitter interface {
	Submit(ctx context.Context, p booking.Payload) (booking.Receipt, error)
}

// Session reports whether the patient is signed in.
type Session interface {
	Authenticated(ctx context.Context) bool
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Doctors      DoctorSource
	Availability AvailabilitySource
	Submitter    BookingSubmitter
	Session      Session
	Now          func() time.Time
	Sleep        func(ctx context.Context, d time.Duration) error
	Logger       *logging.Logger
	Metrics      *metrics.BookingMetrics
}

// Options tune a Controller.
type Options struct {
	WindowDays   int
	DefaultShift string
	// GuestDelay defaults to DefaultGuestDelay; negative means none.
	GuestDelay time.Duration
	// LegacyFallback offers the static range labels on days without slots.
	LegacyFallback bool
	Builder        *booking.Builder
}

// DoctorStatus is the doctor sub-machine state.
type DoctorStatus string

const (
	DoctorLoading DoctorStatus = "loading"
	DoctorReady   DoctorStatus = "ready"
)

// SubmissionStatus is the submission sub-machine state.
type SubmissionStatus string

const (
	SubmissionIdle       SubmissionStatus = "idle"
	SubmissionSubmitting SubmissionStatus = "submitting"
	SubmissionSucceeded  SubmissionStatus = "succeeded"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is the latest booking attempt.
type Submission struct {
	Status  SubmissionStatus `json:"status"`
	Message string           `json:"message,omitempty"`
	// Simulated marks guest confirmations that were never sent to the backend.
	Simulated bool `json:"simulated,omitempty"`
}

// Controller owns the selection and availability state of one booking
// screen. Methods are safe for concurrent use; network calls run outside the
// lock.
type Controller struct {
	deps    Deps
	opts    Options
	builder booking.Builder
	logger  *logging.Logger

	mu           sync.Mutex
	dates        []calendar.Entry
	doctorStatus DoctorStatus
	doctor       doctors.Doctor
	selected     int
	slots        availability.State
	shiftTab     string
	slotLabel    string
	generation   uint64
	submission   Submission
	version      uint64

	subMu         sync.Mutex
	subs          map[int]chan View
	nextSub       int
	lastPublished uint64
	closed        bool
}

// New creates a controller with the date window anchored at deps.Now().
func New(deps Deps, opts Options) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = calendar.DefaultWindowDays
	}
	switch {
	case opts.GuestDelay == 0:
		opts.GuestDelay = DefaultGuestDelay
	case opts.GuestDelay < 0:
		opts.GuestDelay = 0
	}

	builder := booking.NewBuilder()
	if opts.Builder != nil {
		builder = *opts.Builder
	}
	if s := strings.TrimSpace(opts.DefaultShift); s != "" {
		builder.DefaultShift = s
	}

	dates := calendar.Generate(opts.WindowDays, deps.Now())
	return &Controller{
		deps:         deps,
		opts:         opts,
		builder:      builder,
		logger:       deps.Logger,
		dates:        dates,
		doctorStatus: DoctorLoading,
		slots:        availability.Loading{Date: dates[0].Date},
		submission:   Submission{Status: SubmissionIdle},
		subs:         make(map[int]chan View),
	}
}

// Mount resolves the doctor and loads slots for the selected date. A failed
// lookup substitutes the placeholder profile.
func (c *Controller) Mount(ctx context.Context, id doctors.ID) error {
	c.mu.Lock()
	c.doctorStatus = DoctorLoading
	c.doctor = doctors.Doctor{ID: id}
	v := c.commitLocked()
	c.mu.Unlock()
	c.publish(v)

	doc, err := c.lookup(ctx, id)
	if err != nil {
		c.logger.Warn("workflow: doctor lookup failed, using placeholder", "doctor_id", id.String(), "error", err)
		doc = doctors.Placeholder(id)
	}
	// Slots and bookings are keyed by the requested id, not the profile's.
	doc.ID = id

	c.mu.Lock()
	c.doctor = doc
	c.doctorStatus = DoctorReady
	index := c.selected
	c.mu.Unlock()

	return c.SelectDate(ctx, index)
}

func (c *Controller) lookup(ctx context.Context, id doctors.ID) (doctors.Doctor, error) {
	if c.deps.Doctors == nil {
		return doctors.Doctor{}, doctors.ErrNotFound
	}
	return c.deps.Doctors.Lookup(ctx, id)
}

// SelectDate switches to the date at index and loads its slots. A response
// that arrives after a newer selection is discarded.
func (c *Controller) SelectDate(ctx context.Context, index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.dates) {
		c.mu.Unlock()
		return ErrUnknownDate
	}
	c.generation++
	gen := c.generation
	c.selected = index
	c.shiftTab = ""
	c.slotLabel = ""
	date := c.dates[index].Date
	c.slots = availability.Loading{Date: date}
	ready := c.doctorStatus == DoctorReady
	doctorID := c.doctor.ID
	v := c.commitLocked()
	c.mu.Unlock()
	c.publish(v)

	if !ready {
		return nil
	}

	result := c.fetch(ctx, doctorID, date)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("workflow: discarding stale slots", "doctor_id", doctorID.String(), "date", calendar.FormatISODate(date))
		c.deps.Metrics.ObserveStaleDiscard()
		return nil
	}
	c.slots = availability.Classify(result)
	c.shiftTab, _ = availability.InitialShiftTab(c.slots)
	if c.legacyModeLocked() {
		c.slotLabel = timecodec.DefaultLegacySlot
	}
	v = c.commitLocked()
	c.mu.Unlock()
	c.publish(v)
	return nil
}

func (c *Controller) fetch(ctx context.Context, id doctors.ID, date time.Time) availability.Result {
	if c.deps.Availability == nil {
		return availability.Result{}
	}
	return c.deps.Availability.Fetch(ctx, id, date)
}

// SelectDateISO selects the window entry for a YYYY-MM-DD date.
func (c *Controller) SelectDateISO(ctx context.Context, isoDate string) error {
	c.mu.Lock()
	loc := c.dates[0].Date.Location()
	c.mu.Unlock()

	date, err := calendar.ParseISODate(strings.TrimSpace(isoDate), loc)
	if err != nil {
		return errors.Join(ErrUnknownDate, err)
	}
	c.mu.Lock()
	index := calendar.IndexOf(c.dates, date)
	c.mu.Unlock()
	if index < 0 {
		return ErrUnknownDate
	}
	return c.SelectDate(ctx, index)
}

// SelectShift activates one of the offered shift tabs and clears the slot.
func (c *Controller) SelectShift(shiftType string) error {
	c.mu.Lock()
	group, ok := availability.FindGroup(availability.BookableGroups(c.slots), shiftType)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownShift
	}
	c.shiftTab = group.ShiftType
	c.slotLabel = ""
	v := c.commitLocked()
	c.mu.Unlock()
	c.publish(v)
	return nil
}

// SelectSlot picks one of the labels currently offered.
func (c *Controller) SelectSlot(label string) error {
	label = strings.TrimSpace(label)
	c.mu.Lock()
	for _, offered := range c.labelsLocked() {
		if strings.EqualFold(offered, label) {
			c.slotLabel = offered
			v := c.commitLocked()
			c.mu.Unlock()
			c.publish(v)
			return nil
		}
	}
	c.mu.Unlock()
	return ErrUnknownSlot
}

// CanSubmit reports whether the submit button is enabled.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

// Submit books the current selection. When submission is disabled it changes
// nothing and returns ErrSubmitDisabled with the current state. Guests get a
// simulated confirmation after GuestDelay without any backend call.
func (c *Controller) Submit(ctx context.Context) (Submission, error) {
	c.mu.Lock()
	if !c.canSubmitLocked() {
		current := c.submission
		c.mu.Unlock()
		return current, ErrSubmitDisabled
	}
	payload := c.builder.Build(c.selectionLocked())
	c.submission = Submission{Status: SubmissionSubmitting}
	v := c.commitLocked()
	c.mu.Unlock()
	c.publish(v)

	var result Submission
	if c.authenticated(ctx) {
		result = c.submitBooking(ctx, payload)
	} else {
		result = c.simulateGuest(ctx, payload)
	}

	c.mu.Lock()
	c.submission = result
	v = c.commitLocked()
	c.mu.Unlock()
	c.publish(v)
	return result, nil
}

func (c *Controller) authenticated(ctx context.Context) bool {
	return c.deps.Session != nil && c.deps.Session.Authenticated(ctx)
}

func (c *Controller) submitBooking(ctx context.Context, payload booking.Payload) Submission {
	if c.deps.Submitter == nil {
		return Submission{Status: SubmissionFailed, Message: failureMessage}
	}
	receipt, err := c.deps.Submitter.Submit(ctx, payload)
	if err != nil {
		msg := failureMessage
		var submitErr *booking.SubmitError
		if errors.As(err, &submitErr) && submitErr.Message != "" {
			msg = submitErr.Message
		}
		return Submission{Status: SubmissionFailed, Message: msg}
	}
	msg := receipt.Message
	if msg == "" {
		msg = successMessage
	}
	return Submission{Status: SubmissionSucceeded, Message: msg}
}

func (c *Controller) simulateGuest(ctx context.Context, payload booking.Payload) Submission {
	c.logger.Warn("workflow: guest booking simulated, nothing is persisted",
		"doctor_id", payload.DoctorID.String(),
		"day_of_week", payload.DayOfWeek,
		"start_time", payload.StartTime,
	)
	start := c.deps.Now()
	if err := c.deps.Sleep(ctx, c.opts.GuestDelay); err != nil {
		return Submission{Status: SubmissionFailed, Message: cancelledMessage}
	}
	c.deps.Metrics.ObserveSubmit(metrics.SubmitSimulated, c.deps.Now().Sub(start).Seconds())
	return Submission{Status: SubmissionSucceeded, Message: successMessage, Simulated: true}
}

// Dismiss returns a finished submission to idle.
func (c *Controller) Dismiss() Submission {
	c.mu.Lock()
	if c.submission.Status != SubmissionSucceeded && c.submission.Status != SubmissionFailed {
		current := c.submission
		c.mu.Unlock()
		return current
	}
	c.submission = Submission{Status: SubmissionIdle}
	current := c.submission
	v := c.commitLocked()
	c.mu.Unlock()
	c.publish(v)
	return current
}

func (c *Controller) canSubmitLocked() bool {
	if c.doctorStatus != DoctorReady || c.doctor.ID.Empty() || c.slotLabel == "" {
		return false
	}
	switch c.submission.Status {
	case SubmissionSubmitting, SubmissionSucceeded:
		return false
	}
	switch c.slots.(type) {
	case availability.Ready:
		return true
	case availability.Empty:
		return c.opts.LegacyFallback
	default:
		return false
	}
}

func (c *Controller) legacyModeLocked() bool {
	_, empty := c.slots.(availability.Empty)
	return empty && c.opts.LegacyFallback
}

// labelsLocked lists the slot labels offered for the active view.
func (c *Controller) labelsLocked() []string {
	if c.legacyModeLocked() {
		return append([]string(nil), timecodec.LegacySlotLabels...)
	}
	group, ok := availability.FindGroup(availability.BookableGroups(c.slots), c.shiftTab)
	if !ok || c.shiftTab == "" {
		return nil
	}
	return availability.Labels(group)
}

func (c *Controller) selectionLocked() booking.Selection {
	sel := booking.Selection{
		DoctorID:  c.doctor.ID,
		Date:      c.dates[c.selected],
		ShiftTab:  c.shiftTab,
		SlotLabel: c.slotLabel,
	}
	if group, ok := availability.FindGroup(availability.BookableGroups(c.slots), c.shiftTab); ok {
		if slot, ok := availability.SlotForLabel(group, c.slotLabel); ok {
			sel.Slot = &slot
		}
	}
	return sel
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
