package server

import (
	"net/http"

	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/status"
)

// serviceView merges a configured service with its reconciled snapshot.
type serviceView struct {
	config.Service
	Status     status.State `json:"status"`
	KumaStatus string       `json:"kuma_status,omitempty"`
	KumaColor  string       `json:"kuma_color,omitempty"`
}

// handleServices serves GET /api/services: every configured service with a
// freshly reconciled status. Nothing is cached across requests.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshots := s.snapshots.Snapshot(r.Context())

	services := s.table.Services()
	views := make([]serviceView, 0, len(services))
	for _, svc := range services {
		view := serviceView{Service: svc, Status: status.StateUnknown}
		if snap, ok := snapshots[svc.Name]; ok {
			view.Status = snap.Status
			view.KumaStatus = snap.KumaStatus
			view.KumaColor = snap.KumaColor
		}
		views = append(views, view)
	}
	writeJSON(w, views, http.StatusOK)
}
