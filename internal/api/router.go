package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/voiceagent/internal/api/handlers"
	"github.com/nikhilbhutani/voiceagent/internal/api/middleware"
	"github.com/nikhilbhutani/voiceagent/internal/auth"
	"github.com/nikhilbhutani/voiceagent/internal/config"
	"github.com/nikhilbhutani/voiceagent/internal/multimodal/tts"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

// Deps are the services the HTTP layer routes to.
type Deps struct {
	Pipeline handlers.Pipeline
	Blobs    storage.Storage
	// Jobs is nil when the background queue is disabled.
	Jobs  handlers.Jobs
	Ready map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	jwt  *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		jwt:  auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.HTTP.AllowedOrigins))
	r.Use(middleware.RateLimit(rt.cfg.HTTP.RateLimit))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.Ready)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	errs := handlers.ErrorWriter{Legacy: rt.cfg.HTTP.LegacyErrors}
	voiceH := handlers.NewVoiceHandler(rt.deps.Pipeline, errs, rt.cfg.Upload.MaxBytes)
	jobsH := handlers.NewJobsHandler(voiceH, rt.deps.Jobs)
	mediaH := handlers.NewMediaHandler(rt.deps.Blobs, errs)

	r.Get("/media/{key}", rt.media(mediaH))

	r.Group(func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		r.Post("/upload-audio", voiceH.UploadAudio)
		r.Get("/voices", voiceH.Voices)
		r.Post("/generate-audio", voiceH.GenerateAudio)
		r.Post("/transcribe", voiceH.Transcribe)
		r.Post("/tts/echo", voiceH.Echo)
		r.Post("/llm/query", voiceH.LLMQuery)
		r.Post("/agent/chat", voiceH.Chat)

		r.Post("/tts/echo/async", jobsH.EchoAsync)
		r.Get("/jobs/{id}", jobsH.Get)
	})

	return r
}

// media serves generated audio to anyone holding its URL. Client uploads
// share the namespace and stay behind auth.
func (rt *Router) media(h *handlers.MediaHandler) http.HandlerFunc {
	guarded := rt.jwt.Authenticate(http.HandlerFunc(h.Get))
	return func(w http.ResponseWriter, r *http.Request) {
		if tts.IsGenerated(chi.URLParam(r, "key")) {
			h.Get(w, r)
			return
		}
		guarded.ServeHTTP(w, r)
	}
}
