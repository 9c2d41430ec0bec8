package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taptone-api/internal/application/claim"
	"github.com/taptone-api/internal/application/kiosk"
	"github.com/taptone-api/internal/transport/http/middleware"
)

// DeviceHandler handles the app-facing device endpoints: listing the fleet,
// claiming a kiosk by pairing code, renaming and removing.
type DeviceHandler struct {
	svc   kiosk.Service
	claim claim.Service
}

func NewDeviceHandler(svc kiosk.Service, claimSvc claim.Service) *DeviceHandler {
	return &DeviceHandler{svc: svc, claim: claimSvc}
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	devices, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// Claim verifies a pairing code typed into the app and binds the matching
// device to the caller's account.
func (h *DeviceHandler) Claim(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	d, err := h.claim.Verify(r.Context(), claims.UserID, body.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DeviceHandler) Rename(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	d, err := h.svc.Rename(r.Context(), claims.UserID, chi.URLParam(r, "id"), body.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Remove(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "device removed"})
}
