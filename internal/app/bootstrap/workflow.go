package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/patient-booking/internal/availability"
	"github.com/wolfman30/patient-booking/internal/booking"
	appconfig "github.com/wolfman30/patient-booking/internal/config"
	"github.com/wolfman30/patient-booking/internal/doctors"
	"github.com/wolfman30/patient-booking/internal/hospitalapi"
	"github.com/wolfman30/patient-booking/internal/http/handlers"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/internal/workflow"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

// WorkflowDeps are shared by every session's controller.
type WorkflowDeps struct {
	API     *hospitalapi.Client
	Cache   redis.Cmdable
	Logger  *logging.Logger
	Metrics *metrics.BookingMetrics
}

// NewWorkflowFactory builds controllers whose backend calls carry the
// session's patient token. Guests get an empty token.
func NewWorkflowFactory(cfg *appconfig.Config, deps WorkflowDeps) handlers.WorkflowFactory {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	builder := booking.NewBuilder()
	if cfg.DefaultShiftType != "" {
		builder.DefaultShift = cfg.DefaultShiftType
	}
	if cfg.SlotDurationMinutes > 0 {
		builder.SlotDurationMinutes = cfg.SlotDurationMinutes
	}
	opts := workflow.Options{
		WindowDays:     cfg.DateWindowDays,
		DefaultShift:   cfg.DefaultShiftType,
		GuestDelay:     cfg.GuestBookingDelay,
		LegacyFallback: cfg.LegacySlotFallback,
		Builder:        &builder,
	}

	return func(patientToken string) *workflow.Controller {
		session := hospitalapi.StaticToken(patientToken)
		api := deps.API.WithTokenSource(session)
		sessionLogger := logger.With("guest", patientToken == "")

		directory := doctors.NewCachedDirectory(
			doctors.NewDirectory(api, cfg.AssetBaseURL, sessionLogger),
			deps.Cache,
			cfg.DoctorCacheTTL,
			sessionLogger,
		)
		return workflow.New(workflow.Deps{
			Doctors:      directory,
			Availability: availability.NewResolver(api, sessionLogger, deps.Metrics),
			Submitter:    booking.NewSubmitter(api, sessionLogger, deps.Metrics),
			Session:      session,
			Logger:       sessionLogger,
			Metrics:      deps.Metrics,
		}, opts)
	}
}
