package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/multimodal/tts"
	"github.com/nikhilbhutani/voiceagent/internal/pipeline"
	"github.com/nikhilbhutani/voiceagent/internal/upload"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the audio itself.
const multipartOverhead = 1 << 20

// Pipeline is the orchestrator surface the voice endpoints use.
type Pipeline interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (*upload.Asset, error)
	RunTranscription(ctx context.Context, key string) (string, error)
	RunSynthesis(ctx context.Context, text, voiceID string) (string, error)
	RunEcho(ctx context.Context, r io.Reader, filename, contentType string) (*pipeline.Result, error)
	RunConversation(ctx context.Context, r io.Reader, filename, contentType string) (*pipeline.Result, error)
	RunLLMQuery(ctx context.Context, text string) (string, error)
	ListVoices(ctx context.Context) ([]tts.Voice, error)
}

type VoiceHandler struct {
	pipeline Pipeline
	errs     ErrorWriter
	maxBytes int64
}

func NewVoiceHandler(p Pipeline, errs ErrorWriter, maxUploadBytes int64) *VoiceHandler {
	return &VoiceHandler{pipeline: p, errs: errs, maxBytes: maxUploadBytes}
}

// UploadAudio stores the multipart "file" field.
func (h *VoiceHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(f multipart.File, hdr *multipart.FileHeader) {
		asset, err := h.pipeline.Upload(r.Context(), f, hdr.Filename, hdr.Header.Get("Content-Type"))
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, asset)
	})
}

// Voices returns the provider's voice list as the provider shaped it.
func (h *VoiceHandler) Voices(w http.ResponseWriter, r *http.Request) {
	voices, err := h.pipeline.ListVoices(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voices)
}

func (h *VoiceHandler) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string `json:"text"`
		VoiceID string `json:"voiceId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	audioURL, err := h.pipeline.RunSynthesis(r.Context(), req.Text, req.VoiceID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audio_url": audioURL})
}

func (h *VoiceHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	text, err := h.pipeline.RunTranscription(r.Context(), req.Filename)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcription": text})
}

func (h *VoiceHandler) Echo(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(f multipart.File, hdr *multipart.FileHeader) {
		res, err := h.pipeline.RunEcho(r.Context(), f, hdr.Filename, hdr.Header.Get("Content-Type"))
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"transcription": res.Transcription,
			"audio_url":     res.AudioURL,
		})
	})
}

// Chat runs a full spoken turn: transcribe, answer, speak the answer.
func (h *VoiceHandler) Chat(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(f multipart.File, hdr *multipart.FileHeader) {
		res, err := h.pipeline.RunConversation(r.Context(), f, hdr.Filename, hdr.Header.Get("Content-Type"))
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"transcription": res.Transcription,
			"response":      res.Response,
			"audio_url":     res.AudioURL,
		})
	})
}

func (h *VoiceHandler) LLMQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	reply, err := h.pipeline.RunLLMQuery(r.Context(), req.Text)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// withFile extracts the "file" form field and hands it to fn.
func (h *VoiceHandler) withFile(w http.ResponseWriter, r *http.Request, fn func(multipart.File, *multipart.FileHeader)) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = apperr.Wrap(apperr.KindInvalidInput, "api.upload", upload.ErrTooLarge, "File too large.")
		default:
			err = apperr.Wrap(apperr.KindInvalidInput, "api.upload", err, "No file uploaded.")
		}
		h.errs.Write(w, r, err)
		return
	}
	defer f.Close()

	fn(f, hdr)
}
