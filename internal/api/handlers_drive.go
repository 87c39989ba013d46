package api

import (
	"net/http"

	"github.com/menucockpit/server/internal/api/respond"
	"github.com/menucockpit/server/internal/drivejob"
)

// DriveHandler is a thin HTTP transport over the drive job tracker.
type DriveHandler struct {
	tracker *drivejob.Tracker
}

func NewDriveHandler(tracker *drivejob.Tracker) *DriveHandler {
	return &DriveHandler{tracker: tracker}
}

// TriggerRescan POST /api/drive/rescan
func (h *DriveHandler) TriggerRescan(w http.ResponseWriter, r *http.Request) {
	job, err := h.tracker.Rescan(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

// RescanStatus GET /api/drive/rescan/status?job_id=...
// With no job_id the most recently touched job is reported.
func (h *DriveHandler) RescanStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.tracker.Status(r.Context(), r.URL.Query().Get("job_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
