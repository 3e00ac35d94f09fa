package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

// MediaHandler serves stored audio so generated URLs resolve.
type MediaHandler struct {
	blobs storage.Storage
	errs  ErrorWriter
}

func NewMediaHandler(blobs storage.Storage, errs ErrorWriter) *MediaHandler {
	return &MediaHandler{blobs: blobs, errs: errs}
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !storage.ValidKey(key) {
		h.errs.Write(w, r, apperr.New(apperr.KindInvalidInput, "api.media", "Invalid filename."))
		return
	}

	info, err := h.blobs.Stat(r.Context(), key)
	if err == nil {
		var rc io.ReadCloser
		rc, err = h.blobs.Get(r.Context(), key)
		if err == nil {
			defer rc.Close()
			w.Header().Set("Content-Type", info.ContentType)
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
			w.WriteHeader(http.StatusOK)
			if _, err := io.Copy(w, rc); err != nil {
				slog.Warn("media copy interrupted", "key", key, "error", err)
			}
			return
		}
	}

	if errors.Is(err, storage.ErrNotExist) {
		h.errs.Write(w, r, apperr.Wrap(apperr.KindNotFound, "api.media", err, "File not found."))
		return
	}
	h.errs.Write(w, r, apperr.Wrap(apperr.KindStorage, "api.media", err, "Failed to read stored file."))
}
