package handlers

import (
	"net/http"
)

// Dashboard handles GET / and serves the embedded dashboard page. The
// page owns the filter state and re-queries the analytics endpoints on
// every filter change.
func (h *TripHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, dashboardFS, "dashboard.html")
}
