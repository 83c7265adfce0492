package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/marine-vision/internal/application/session"
	domai "github.com/bryanwahyu/marine-vision/internal/domain/ai"
	"github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/domain/history"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	"github.com/bryanwahyu/marine-vision/internal/geometry"
	"github.com/bryanwahyu/marine-vision/internal/infra/storage"
	"github.com/bryanwahyu/marine-vision/internal/middleware"
)

const maxRenderWidth = 4096

type Deps struct {
	Sessions    *session.Manager
	History     history.Store
	Previews    *storage.MemoryStore // nil when previews live elsewhere
	Metrics     *middleware.Metrics
	Health      map[string]middleware.HealthChecker
	DefaultMode analysis.Mode
	MaxUpload   int64
	CORSOrigins []string
	// Extra runs after CORS and before routing (auth, rate limit, ...).
	Extra []func(http.Handler) http.Handler
}

type Router struct {
	sessions    *session.Manager
	history     history.Store
	previews    *storage.MemoryStore
	metrics     *middleware.Metrics
	defaultMode analysis.Mode
	maxUpload   int64
}

func NewRouter(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = 50 << 20
	}
	if d.DefaultMode == "" {
		d.DefaultMode = analysis.ModeLocal
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}
	r := &Router{
		sessions:    d.Sessions,
		history:     d.History,
		previews:    d.Previews,
		metrics:     d.Metrics,
		defaultMode: d.DefaultMode,
		maxUpload:   d.MaxUpload,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(d.Metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	for _, mw := range d.Extra {
		mux.Use(mw)
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(d.Health))
	mux.Get("/readyz", middleware.ReadinessHandler(d.Health))
	mux.Get("/metrics", d.Metrics.Handler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/sessions", r.wrap(r.handleCreateSession))
		rt.Route("/sessions/{id}", func(s chi.Router) {
			s.Get("/", r.wrap(r.handleGetSession))
			s.Delete("/", r.wrap(r.handleCloseSession))
			s.Post("/media", r.wrap(r.handleSelectMedia))
			s.Post("/analyze", r.wrap(r.handleAnalyze))
			s.Get("/overlay", r.wrap(r.handleOverlay))
			s.Get("/overlay.png", r.wrap(r.handleOverlayPNG))
		})
		rt.Get("/previews/{handle}", r.wrap(r.handlePreview))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Delete("/history", r.wrap(r.handleClearHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks caller input errors.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, session.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, session.ErrClosed):
			http.Error(w, err.Error(), http.StatusGone)
		case errors.Is(err, session.ErrAnalysisInFlight), errors.Is(err, session.ErrNoMedia):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, geometry.ErrTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, media.ErrEmptyFile), errors.Is(err, errBadRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		default:
			log.Printf("request failed method=%s path=%s err=%v", req.Method, req.URL.Path, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (r *Router) session(req *http.Request) (*session.Session, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return nil, session.ErrNotFound
	}
	return r.sessions.Get(id)
}

// POST /v1/sessions
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	s := r.sessions.Create()
	return writeJSON(w, http.StatusCreated, s.Snapshot())
}

// GET /v1/sessions/{id}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	s, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, s.Snapshot())
}

// DELETE /v1/sessions/{id}
func (r *Router) handleCloseSession(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := r.sessions.Close(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/sessions/{id}/media (multipart, field "file")
func (r *Router) handleSelectMedia(w http.ResponseWriter, req *http.Request) error {
	s, err := r.session(req)
	if err != nil {
		return err
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return nil
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("file field is required")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	snap, err := s.Select(req.Context(), media.File{
		Filename: middleware.SanitizeFilename(header.Filename),
		MIMEType: header.Header.Get("Content-Type"),
		Content:  content,
	})
	if errors.Is(err, media.ErrUnsupportedFormat) {
		r.metrics.UploadRejected()
		return writeJSON(w, http.StatusUnsupportedMediaType, snap)
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, snap)
}

// POST /v1/sessions/{id}/analyze?mode=remote|local
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	s, err := r.session(req)
	if err != nil {
		return err
	}
	mode, err := analysis.ParseMode(req.URL.Query().Get("mode"), r.defaultMode)
	if err != nil {
		return badRequest("%v", err)
	}

	snap, err := s.Analyze(req.Context(), mode)
	if errors.Is(err, session.ErrSuperseded) {
		return writeJSON(w, http.StatusConflict, snap)
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, snap)
}

// GET /v1/sessions/{id}/overlay?width=&height=
// Without a rendered size the overlay is not loaded and holds no boxes.
func (r *Router) handleOverlay(w http.ResponseWriter, req *http.Request) error {
	s, err := r.session(req)
	if err != nil {
		return err
	}
	width, err := middleware.ValidateDimension(req.URL.Query().Get("width"), 1<<15)
	if err != nil {
		return badRequest("%v", err)
	}
	height, err := middleware.ValidateDimension(req.URL.Query().Get("height"), 1<<15)
	if err != nil {
		return badRequest("%v", err)
	}

	asset, dets, err := s.Current()
	if err != nil {
		return err
	}

	var o geometry.Overlay
	if asset.Kind == media.KindImage {
		o.Load(float64(width), float64(height))
	}
	placed := o.Place(dets)
	if placed == nil {
		placed = []geometry.Placed{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"loaded": o.Loaded(),
		"size":   o.Size(),
		"boxes":  placed,
	})
}

// GET /v1/sessions/{id}/overlay.png?width=
func (r *Router) handleOverlayPNG(w http.ResponseWriter, req *http.Request) error {
	s, err := r.session(req)
	if err != nil {
		return err
	}
	width, err := middleware.ValidateDimension(req.URL.Query().Get("width"), maxRenderWidth)
	if err != nil {
		return badRequest("%v", err)
	}

	asset, dets, err := s.Current()
	if err != nil {
		return err
	}
	if asset.Kind != media.KindImage {
		return badRequest("overlay rendering needs an image, got %s", asset.Kind)
	}

	start := time.Now()
	img, err := geometry.Decode(asset.Content)
	if errors.Is(err, geometry.ErrTooLarge) {
		return err
	}
	if err != nil {
		return badRequest("%v", err)
	}
	out := geometry.Render(img, dets, width)
	log.Printf("overlay rendered session=%s boxes=%d took=%s", s.ID, len(dets), time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	return geometry.EncodePNG(w, out)
}

// GET /v1/previews/{handle}
func (r *Router) handlePreview(w http.ResponseWriter, req *http.Request) error {
	if r.previews == nil {
		return session.ErrNotFound
	}
	data, contentType, ok := r.previews.Open(chi.URLParam(req, "handle"))
	if !ok {
		return session.ErrNotFound
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", "private, no-store")
	// uploads are untrusted: no sniffing, no script even for svg/html
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self' data:; media-src 'self'; style-src 'unsafe-inline'; sandbox")
	_, err := w.Write(data)
	return err
}

// GET /v1/history?limit=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.history.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []history.Entry{}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return writeJSON(w, http.StatusOK, list)
}

// DELETE /v1/history
func (r *Router) handleClearHistory(w http.ResponseWriter, req *http.Request) error {
	if err := r.history.Clear(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
