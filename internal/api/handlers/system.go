package handlers

import (
	"net/http"

	"github.com/jkoestner/folioflex/internal/api/response"
	"github.com/jkoestner/folioflex/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// Health reports whether the service and its database are reachable
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, "unhealthy", err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version reports the running application version
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, map[string]string{
		"version": h.systemService.CheckVersion(),
	})
}
