package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/menucockpit/server/internal/api/respond"
	"github.com/menucockpit/server/internal/chat"
)

// ChatHandler is a thin HTTP transport over the chat service.
type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler { return &ChatHandler{svc: svc} }

// GetSession GET /api/chat/{weekId}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(r.Context(), mux.Vars(r)["weekId"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sess)
}

// PostMessage POST /api/chat/{weekId}/messages
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req chat.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	sess, err := h.svc.PostMessage(r.Context(), mux.Vars(r)["weekId"], req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sess)
}

// PatchProposal PATCH /api/chat/{weekId}/proposals/{slotKey}/{proposalId}
func (h *ChatHandler) PatchProposal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var p chat.ProposalPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	sess, err := h.svc.SetProposal(r.Context(), vars["weekId"], vars["slotKey"], vars["proposalId"], p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sess)
}
