package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buildline/worktrack/internal/store"
)

// BuildHandler handles build catalog HTTP requests.
type BuildHandler struct {
	builds *store.BuildStore
}

// NewBuildHandler creates a new build handler.
func NewBuildHandler(builds *store.BuildStore) *BuildHandler {
	return &BuildHandler{builds: builds}
}

// Get handles GET /builds/{buildNumber}
func (h *BuildHandler) Get(w http.ResponseWriter, r *http.Request) {
	buildNumber := chi.URLParam(r, "buildNumber")

	build, err := h.builds.GetByNumber(buildNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if build == nil {
		writeError(w, http.StatusNotFound, "build not found")
		return
	}

	writeJSON(w, http.StatusOK, build)
}
