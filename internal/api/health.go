package api

import (
	"net/http"

	"github.com/joestump/devhub/internal/build"
)

// health reports liveness.
//
// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /healthz [get]
func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: build.Version})
}
