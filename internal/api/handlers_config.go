package api

import (
	"net/http"
	"time"

	"github.com/buildline/worktrack/internal/models"
	"github.com/buildline/worktrack/internal/notifier"
)

// ConfigHandler exposes the server's workflow settings so clients build
// their time-up workflow from the same window and reminder values the
// server was configured with.
type ConfigHandler struct {
	workflow notifier.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(workflow notifier.Config) *ConfigHandler {
	return &ConfigHandler{workflow: workflow}
}

// Get handles GET /config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ConfigResponse{
		PopupWindowSeconds:   int64(h.workflow.PopupWindow / time.Second),
		PopupReminderSeconds: int64(h.workflow.ReminderInterval / time.Second),
	})
}
