package handlers

import (
	"net/http"

	httpmiddleware "github.com/wolfman30/patient-booking/internal/http/middleware"
	"github.com/wolfman30/patient-booking/internal/sessions"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

// AdminSessionsHandler lists live booking sessions for operators.
type AdminSessionsHandler struct {
	store  *sessions.Store
	logger *logging.Logger
}

func NewAdminSessionsHandler(store *sessions.Store, logger *logging.Logger) *AdminSessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSessionsHandler{store: store, logger: logger}
}

type listSessionsResponse struct {
	Count    int                `json:"count"`
	Sessions []sessions.Summary `json:"sessions"`
}

// ListSessions handles GET /admin/sessions.
func (h *AdminSessionsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	list := h.store.List()
	if claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context()); ok {
		h.logger.Info("admin listed booking sessions", "subject", claims.Subject, "count", len(list))
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Count: len(list), Sessions: list})
}
