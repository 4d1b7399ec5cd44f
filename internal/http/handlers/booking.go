package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/patient-booking/internal/calendar"
	"github.com/wolfman30/patient-booking/internal/doctors"
	httpmiddleware "github.com/wolfman30/patient-booking/internal/http/middleware"
	"github.com/wolfman30/patient-booking/internal/sessions"
	"github.com/wolfman30/patient-booking/internal/workflow"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

const (
	maxBodyBytes   = 64 << 10
	maxWindowDays  = 90
	sessionIDParam = "sessionID"
)

// WorkflowFactory builds the controller for a new app session. patientToken
// is empty for guests.
type WorkflowFactory func(patientToken string) *workflow.Controller

// BookingHandler exposes appointment workflows over HTTP.
type BookingHandler struct {
	store       *sessions.Store
	newWorkflow WorkflowFactory
	windowDays  int
	now         func() time.Time
	logger      *logging.Logger
}

// NewBookingHandler creates the booking gateway handler.
func NewBookingHandler(store *sessions.Store, factory WorkflowFactory, windowDays int, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if windowDays <= 0 {
		windowDays = calendar.DefaultWindowDays
	}
	return &BookingHandler{
		store:       store,
		newWorkflow: factory,
		windowDays:  windowDays,
		now:         time.Now,
		logger:      logger,
	}
}

// Routes returns the /v1 routes.
func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/dates", h.ListDates)
	r.With(httpmiddleware.PatientToken).Post("/sessions", h.CreateSession)
	r.Route("/sessions/{"+sessionIDParam+"}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/date", h.SelectDate)
		r.Post("/shift", h.SelectShift)
		r.Post("/slot", h.SelectSlot)
		r.Post("/submit", h.Submit)
		r.Post("/dismiss", h.Dismiss)
		r.Get("/events", h.Events)
	})
	return r
}

type datesResponse struct {
	MonthYear string              `json:"month_year"`
	Dates     []workflow.DateView `json:"dates"`
}

type createSessionRequest struct {
	DoctorID doctors.ID `json:"doctor_id"`
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Guest     bool          `json:"guest"`
	View      workflow.View `json:"view"`
}

type selectDateRequest struct {
	Index *int   `json:"index"`
	Date  string `json:"date"`
}

type selectShiftRequest struct {
	Shift string `json:"shift"`
}

type selectSlotRequest struct {
	Label string `json:"label"`
}

// ListDates returns the rolling date window starting today.
func (h *BookingHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	days := h.windowDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxWindowDays {
			jsonError(w, http.StatusBadRequest, "days must be between 1 and "+strconv.Itoa(maxWindowDays))
			return
		}
		days = n
	}
	now := h.now()
	writeJSON(w, http.StatusOK, datesResponse{
		MonthYear: calendar.MonthYearLabel(now),
		Dates:     workflow.DateViews(calendar.Generate(days, now)),
	})
}

// CreateSession mounts a workflow for the requested doctor. A bearer token on
// the request makes the session authenticated; otherwise it is a guest.
func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DoctorID.Empty() {
		jsonError(w, http.StatusBadRequest, "doctor_id is required")
		return
	}

	token := httpmiddleware.PatientTokenFromContext(r.Context())
	ctrl := h.newWorkflow(token)
	if err := ctrl.Mount(detach(r), req.DoctorID); err != nil {
		ctrl.Close()
		h.writeError(w, err)
		return
	}
	sess := h.store.Create(req.DoctorID, token == "", ctrl)
	h.logger.Info("booking session created", "session_id", sess.ID, "doctor_id", req.DoctorID.String(), "guest", sess.Guest)

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID,
		Guest:     sess.Guest,
		View:      ctrl.Snapshot(),
	})
}

// GetSession returns the current view.
func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, Guest: sess.Guest, View: sess.Controller.Snapshot()})
}

// DeleteSession ends a session and its event streams.
func (h *BookingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, sessionIDParam)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectDate accepts either a window index or a YYYY-MM-DD date.
func (h *BookingHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req selectDateRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := detach(r)
	switch {
	case req.Index != nil:
		err = sess.Controller.SelectDate(ctx, *req.Index)
	case strings.TrimSpace(req.Date) != "":
		err = sess.Controller.SelectDateISO(ctx, req.Date)
	default:
		jsonError(w, http.StatusBadRequest, "index or date is required")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeView(w, sess)
}

// SelectShift switches the active shift tab.
func (h *BookingHandler) SelectShift(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req selectShiftRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.Controller.SelectShift(req.Shift); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeView(w, sess)
}

// SelectSlot picks a slot label.
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req selectSlotRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.Controller.SelectSlot(req.Label); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeView(w, sess)
}

// Submit books the current selection and returns the resulting view.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	result, err := sess.Controller.Submit(detach(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("booking submitted", "session_id", sess.ID, "status", string(result.Status), "simulated", result.Simulated)
	h.writeView(w, sess)
}

// Dismiss clears the submission outcome.
func (h *BookingHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sess.Controller.Dismiss()
	h.writeView(w, sess)
}

func (h *BookingHandler) session(r *http.Request) (*sessions.Session, error) {
	return h.store.Get(chi.URLParam(r, sessionIDParam))
}

func (h *BookingHandler) writeView(w http.ResponseWriter, sess *sessions.Session) {
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, Guest: sess.Guest, View: sess.Controller.Snapshot()})
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		jsonError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, workflow.ErrUnknownDate):
		jsonError(w, http.StatusBadRequest, "date is not in the booking window")
	case errors.Is(err, workflow.ErrUnknownShift):
		jsonError(w, http.StatusBadRequest, "shift is not offered on this date")
	case errors.Is(err, workflow.ErrUnknownSlot):
		jsonError(w, http.StatusBadRequest, "slot is not offered")
	case errors.Is(err, workflow.ErrSubmitDisabled):
		jsonError(w, http.StatusConflict, "booking cannot be submitted now")
	default:
		h.logger.Error("booking request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// detach keeps workflow calls running after the client disconnects.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(dst)
}
