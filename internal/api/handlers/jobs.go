package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/queue"
)

// Jobs schedules deferred workflows and reports on them.
type Jobs interface {
	EnqueueEcho(ctx context.Context, payload queue.EchoPayload) (string, error)
	Status(ctx context.Context, id string) (*queue.JobStatus, error)
}

type JobsHandler struct {
	voice *VoiceHandler
	jobs  Jobs
}

// NewJobsHandler returns a handler whose endpoints report NotConfigured when jobs is nil.
func NewJobsHandler(voice *VoiceHandler, jobs Jobs) *JobsHandler {
	return &JobsHandler{voice: voice, jobs: jobs}
}

func (h *JobsHandler) notConfigured() error {
	return apperr.New(apperr.KindNotConfigured, "api.jobs", "Background jobs are not enabled.")
}

// EchoAsync stores the upload and queues the echo workflow for it.
func (h *JobsHandler) EchoAsync(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.voice.errs.Write(w, r, h.notConfigured())
		return
	}

	h.voice.withFile(w, r, func(f multipart.File, hdr *multipart.FileHeader) {
		asset, err := h.voice.pipeline.Upload(r.Context(), f, hdr.Filename, hdr.Header.Get("Content-Type"))
		if err != nil {
			h.voice.errs.Write(w, r, err)
			return
		}

		id, err := h.jobs.EnqueueEcho(r.Context(), queue.EchoPayload{Filename: asset.Key})
		if err != nil {
			h.voice.errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id, "filename": asset.Key})
	})
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.voice.errs.Write(w, r, h.notConfigured())
		return
	}

	status, err := h.jobs.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.voice.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
