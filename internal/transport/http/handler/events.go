package handler

import (
	"encoding/json"
	"net/http"

	"github.com/taptone-api/internal/application/event"
	"github.com/taptone-api/internal/transport/http/middleware"
)

// EventHandler turns remote-control events into queued device commands.
type EventHandler struct {
	svc event.Service
}

func NewEventHandler(svc event.Service) *EventHandler { return &EventHandler{svc: svc} }

func (h *EventHandler) NFC(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		TagUID string `json:"tag_uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TagUID == "" {
		writeError(w, http.StatusBadRequest, "tag_uid required")
		return
	}
	res, err := h.svc.NFCTap(r.Context(), claims.UserID, body.TagUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EventHandler) Button(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Control string `json:"control"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Control == "" {
		writeError(w, http.StatusBadRequest, "control required")
		return
	}
	res, err := h.svc.Button(r.Context(), claims.UserID, body.Control)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EventHandler) Encoder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Delta *int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Delta == nil {
		writeError(w, http.StatusBadRequest, "delta required")
		return
	}
	res, err := h.svc.Encoder(r.Context(), claims.UserID, *body.Delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
