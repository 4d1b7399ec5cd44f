package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/patient-booking/internal/hospitalapi"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

var tracer = otel.Tracer("patientbooking.internal.booking")

const (
	networkFailureMessage = "Network error or server is not reachable"
	genericFailureMessage = "Failed to book appointment"
	defaultSuccessMessage = "Appointment booked successfully"
)

// Receipt is a confirmed booking.
type Receipt struct {
	Message string `json:"message"`
}

// SubmitError is a rejected or failed submission. Message is safe to show to
// the patient.
type SubmitError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmitError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("booking: submit failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "booking: submit failed: " + e.Message
}

func (e *SubmitError) Unwrap() error { return e.Err }

// SlotCreator is the subset of the hospital API the submitter needs.
type SlotCreator interface {
	CreateAvailabilitySlots(ctx context.Context, body any) (*hospitalapi.Response, error)
}

// Submitter posts payloads to the backend. It never retries.
type Submitter struct {
	api     SlotCreator
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

func NewSubmitter(api SlotCreator, logger *logging.Logger, m *metrics.BookingMetrics) *Submitter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Submitter{api: api, logger: logger, metrics: m}
}

// Submit books p. Success requires a 2xx reply with a truthy status.
func (s *Submitter) Submit(ctx context.Context, p Payload) (Receipt, error) {
	ctx, span := tracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("doctor_id", p.DoctorID.String()),
		attribute.String("shift_type", p.ShiftType),
		attribute.String("start_time", p.StartTime),
	)

	start := time.Now()
	receipt, err := s.submit(ctx, p)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("booking: submission failed", "doctor_id", p.DoctorID.String(), "day_of_week", p.DayOfWeek, "start_time", p.StartTime, "error", err)
		s.metrics.ObserveSubmit(metrics.SubmitFailed, elapsed)
		return Receipt{}, err
	}
	s.logger.Info("booking: appointment submitted", "doctor_id", p.DoctorID.String(), "day_of_week", p.DayOfWeek, "start_time", p.StartTime)
	s.metrics.ObserveSubmit(metrics.SubmitSucceeded, elapsed)
	return receipt, nil
}

func (s *Submitter) submit(ctx context.Context, p Payload) (Receipt, error) {
	resp, err := s.api.CreateAvailabilitySlots(ctx, p)
	if err != nil {
		var statusErr *hospitalapi.StatusError
		switch {
		case errors.As(err, &statusErr):
			return Receipt{}, &SubmitError{StatusCode: statusErr.StatusCode, Message: orDefault(statusErr.Message, genericFailureMessage), Err: err}
		case errors.Is(err, hospitalapi.ErrNetwork):
			return Receipt{}, &SubmitError{Message: networkFailureMessage, Err: err}
		default:
			return Receipt{}, &SubmitError{Message: genericFailureMessage, Err: err}
		}
	}
	if !resp.OK() {
		return Receipt{}, &SubmitError{StatusCode: resp.StatusCode, Message: orDefault(resp.Envelope.Message, genericFailureMessage)}
	}
	return Receipt{Message: orDefault(resp.Envelope.Message, defaultSuccessMessage)}, nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
