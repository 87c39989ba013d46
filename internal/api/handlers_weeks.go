package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/menucockpit/server/internal/api/respond"
	"github.com/menucockpit/server/internal/week"
)

// WeekHandler is a thin HTTP transport over the week service.
type WeekHandler struct {
	svc *week.Service
}

func NewWeekHandler(svc *week.Service) *WeekHandler { return &WeekHandler{svc: svc} }

// ListWeeks GET /api/weeks/list
func (h *WeekHandler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"weeks": ids, "count": len(ids)})
}

// CurrentWeek GET /api/weeks/current
func (h *WeekHandler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	wk, err := h.svc.Current(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, wk)
}

// GetWeek GET /api/weeks/{weekId}
func (h *WeekHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	wk, err := h.svc.Get(r.Context(), mux.Vars(r)["weekId"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, wk)
}

// PrepareWeek POST /api/weeks/prepare
func (h *WeekHandler) PrepareWeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekID string `json:"week_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	res, err := h.svc.Prepare(r.Context(), req.WeekID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, res)
}

// InitValidation PATCH /api/weeks/{weekId}/slots/init-validation
func (h *WeekHandler) InitValidation(w http.ResponseWriter, r *http.Request) {
	wk, err := h.svc.InitValidation(r.Context(), mux.Vars(r)["weekId"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, wk)
}

// PatchSlot PATCH /api/weeks/{weekId}/slots/{slotKey}
func (h *WeekHandler) PatchSlot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var p week.SlotPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	wk, err := h.svc.PatchSlot(r.Context(), vars["weekId"], vars["slotKey"], p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, wk)
}
