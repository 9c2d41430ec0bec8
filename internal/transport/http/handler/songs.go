package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taptone-api/internal/application/song"
	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/validate"
	"github.com/taptone-api/internal/transport/http/middleware"
)

// maxUploadSize caps song upload bodies at 50 MB.
const maxUploadSize = 50 << 20

// SongHandler handles catalog, collection and streaming endpoints.
type SongHandler struct {
	svc song.Service
}

func NewSongHandler(svc song.Service) *SongHandler { return &SongHandler{svc: svc} }

func (h *SongHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.Catalog(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (h *SongHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Upload takes a multipart form: metadata fields plus an "audio" file part.
func (h *SongHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	req := domain.CreateSongRequest{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		Genre:  r.FormValue("genre"),
		Price:  price,
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file required")
		return
	}
	defer file.Close()

	s, err := h.svc.Upload(r.Context(), req, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *SongHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SongHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "song deleted"})
}

func (h *SongHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Purchase(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "song purchased"})
}

func (h *SongHandler) Collection(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	songs, err := h.svc.Collection(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// Stream redirects to a short-lived presigned URL for the audio object.
func (h *SongHandler) Stream(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.StreamURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
