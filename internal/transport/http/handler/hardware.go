package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taptone-api/internal/application/claim"
	"github.com/taptone-api/internal/application/command"
	"github.com/taptone-api/internal/application/kiosk"
	"github.com/taptone-api/internal/application/tag"
	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/validate"
)

// HardwareHandler is the kiosk-facing surface. None of these endpoints carry
// a user session: kiosks authenticate by knowing their own device id, claim
// codes, and tag UIDs. Responses never include account data.
type HardwareHandler struct {
	kiosks   kiosk.Service
	claims   claim.Service
	commands command.Service
	tags     tag.Service
}

func NewHardwareHandler(kiosks kiosk.Service, claims claim.Service, commands command.Service, tags tag.Service) *HardwareHandler {
	return &HardwareHandler{kiosks: kiosks, claims: claims, commands: commands, tags: tags}
}

// Register is called by a kiosk on every boot. Registering an id that
// already exists returns the existing row with 200; a fresh id gets 201.
func (h *HardwareHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, created, err := h.kiosks.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, d)
}

func (h *HardwareHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.kiosks.Heartbeat(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClaimCode hands the kiosk a fresh pairing code to render on screen.
func (h *HardwareHandler) ClaimCode(w http.ResponseWriter, r *http.Request) {
	c, err := h.claims.Issue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Commands returns the device's pending queue, oldest first. Polling does
// not consume anything; the kiosk acks each command individually.
func (h *HardwareHandler) Commands(w http.ResponseWriter, r *http.Request) {
	cmds, err := h.commands.Poll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"commands": cmds})
}

func (h *HardwareHandler) Ack(w http.ResponseWriter, r *http.Request) {
	if err := h.commands.Ack(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "acknowledged"})
}

// Sync resolves a tag UID to its playlist and presigned stream URLs.
func (h *HardwareHandler) Sync(w http.ResponseWriter, r *http.Request) {
	out, err := h.tags.Resolve(r.Context(), chi.URLParam(r, "tagUID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
