// Package availability resolves a doctor's bookable slots for one calendar
// day and classifies the result into the states the booking screen renders.
package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/patient-booking/internal/calendar"
	"github.com/wolfman30/patient-booking/internal/doctors"
	"github.com/wolfman30/patient-booking/internal/hospitalapi"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

var tracer = otel.Tracer("patientbooking.internal.availability")

// TimeSlot is a bookable window in canonical "HH:MM:SS".
type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ShiftGroup is one named part of the day with its slots in backend order.
type ShiftGroup struct {
	ShiftType string     `json:"shift_type"`
	Slots     []TimeSlot `json:"slots"`
}

// HolidayInfo describes the doctor's leave window.
type HolidayInfo struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Reason    *string `json:"reason"`
}

// Result is the decoded answer for one (doctor, date) query. When IsHoliday is
// set, ShiftGroups must not be offered for booking.
type Result struct {
	IsHoliday   bool         `json:"is_holiday"`
	Holiday     *HolidayInfo `json:"holiday_info"`
	ShiftGroups []ShiftGroup `json:"shift_groups"`
}

// SlotFetcher is the subset of the hospital API the resolver needs.
type SlotFetcher interface {
	GetDoctorSlots(ctx context.Context, doctorID, date string) (*hospitalapi.Response, error)
}

// Resolver fetches daily availability.
type Resolver struct {
	api     SlotFetcher
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewResolver creates a resolver. m may be nil.
func NewResolver(api SlotFetcher, logger *logging.Logger, m *metrics.BookingMetrics) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{api: api, logger: logger, metrics: m}
}

// Fetch returns the availability of doctorID on date's local calendar day.
// It never fails: transport errors and malformed payloads yield an empty
// Result.
func (r *Resolver) Fetch(ctx context.Context, doctorID doctors.ID, date time.Time) Result {
	isoDate := calendar.FormatISODate(date)
	ctx, span := tracer.Start(ctx, "availability.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("doctor_id", doctorID.String()),
		attribute.String("date", isoDate),
	)

	start := time.Now()
	result, err := r.fetch(ctx, doctorID, isoDate)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("availability: fetch degraded to empty", "doctor_id", doctorID.String(), "date", isoDate, "error", err)
		r.metrics.ObserveAvailability(metrics.OutcomeError, elapsed)
		return Result{}
	}

	outcome := outcomeFor(Classify(result))
	span.SetAttributes(attribute.String("availability.outcome", outcome))
	r.metrics.ObserveAvailability(outcome, elapsed)
	return result
}

func (r *Resolver) fetch(ctx context.Context, doctorID doctors.ID, isoDate string) (Result, error) {
	if doctorID.Empty() {
		return Result{}, errors.New("availability: empty doctor id")
	}
	resp, err := r.api.GetDoctorSlots(ctx, doctorID.String(), isoDate)
	if err != nil {
		return Result{}, err
	}
	if !resp.OK() {
		return Result{}, fmt.Errorf("availability: backend status false: %s", resp.Envelope.Message)
	}
	return Decode(resp.Envelope.Data)
}

// Decode interprets the "data" member of a doctor_slots reply. Accepted
// shapes: {is_holiday, holiday_info, data: [groups]}, a bare [groups] array,
// and groups under "slots" or "shifts" when "data" is absent.
func Decode(raw json.RawMessage) (Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Result{}, nil
	}
	if raw[0] == '[' {
		return Result{ShiftGroups: decodeGroups(raw)}, nil
	}
	if raw[0] != '{' {
		return Result{}, fmt.Errorf("availability: unexpected data shape %q", raw[:1])
	}

	var wire struct {
		IsHoliday   hospitalapi.Bool `json:"is_holiday"`
		HolidayInfo json.RawMessage  `json:"holiday_info"`
		Data        json.RawMessage  `json:"data"`
		Slots       json.RawMessage  `json:"slots"`
		Shifts      json.RawMessage  `json:"shifts"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Result{}, fmt.Errorf("availability: decode data: %w", err)
	}

	return Result{
		IsHoliday:   bool(wire.IsHoliday),
		Holiday:     decodeHoliday(wire.HolidayInfo),
		ShiftGroups: decodeGroups(firstPresent(wire.Data, wire.Slots, wire.Shifts)),
	}, nil
}

func firstPresent(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			return v
		}
	}
	return nil
}

func decodeHoliday(raw json.RawMessage) *HolidayInfo {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var info HolidayInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil
	}
	return &info
}

func decodeGroups(raw json.RawMessage) []ShiftGroup {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	groups := make([]ShiftGroup, 0, len(items))
	for _, item := range items {
		var g struct {
			ShiftType any             `json:"shift_type"`
			Slots     json.RawMessage `json:"slots"`
		}
		if err := json.Unmarshal(item, &g); err != nil {
			continue
		}
		shift, _ := g.ShiftType.(string)
		shift = strings.TrimSpace(shift)
		if shift == "" {
			continue
		}
		groups = append(groups, ShiftGroup{ShiftType: shift, Slots: decodeSlots(g.Slots)})
	}
	if len(groups) == 0 {
		return nil
	}
	return groups
}

func decodeSlots(raw json.RawMessage) []TimeSlot {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	slots := make([]TimeSlot, 0, len(items))
	for _, item := range items {
		var s struct {
			StartTime any `json:"start_time"`
			EndTime   any `json:"end_time"`
		}
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		start, _ := s.StartTime.(string)
		end, _ := s.EndTime.(string)
		if strings.TrimSpace(start) == "" {
			continue
		}
		slots = append(slots, TimeSlot{StartTime: strings.TrimSpace(start), EndTime: strings.TrimSpace(end)})
	}
	return slots
}

func outcomeFor(s State) string {
	switch s.(type) {
	case Holiday:
		return metrics.OutcomeHoliday
	case Ready:
		return metrics.OutcomeReady
	default:
		return metrics.OutcomeEmpty
	}
}
