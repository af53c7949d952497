package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/safescanx/safescanx/internal/application/ai"
	appscans "github.com/safescanx/safescanx/internal/application/scans"
	domai "github.com/safescanx/safescanx/internal/domain/ai"
	domain "github.com/safescanx/safescanx/internal/domain/scans"
	"github.com/safescanx/safescanx/internal/middleware"
)

type Options struct {
	StaticDir string
	AppConfig any // opaque identifiers echoed at /app-config
	Checkers  map[string]middleware.HealthChecker
}

type Router struct {
	scansSvc *appscans.Service
	aiSvc    *appai.Service
	opts     Options
}

func NewRouter(scansSvc *appscans.Service, aiSvc *appai.Service, opts Options) http.Handler {
	r := &Router{scansSvc: scansSvc, aiSvc: aiSvc, opts: opts}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/app-config", r.handleAppConfig)

	mux.Post("/scan-url", r.wrap(r.handleScanURL))
	mux.Post("/scan-file", r.wrap(r.handleScanFile))
	mux.Get("/scans/latest", r.wrap(r.handleLatest))
	mux.Post("/scans/analyze", r.wrap(r.handleAnalyze))

	// everything else is the SPA
	mux.NotFound(r.handleStatic)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps the error taxonomy onto HTTP statuses. Validation detail goes to
// the caller; everything else is logged server-side and surfaced generically.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
		default:
			middleware.IncrementScansFailed()
			log.Printf("request failed: %s %s: %v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, "scan failed")
		}
	}
}

// POST /scan-url
// Body: {"url": "<target>"}
func (r *Router) handleScanURL(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	middleware.IncrementScans()
	result, err := r.scansSvc.SubmitURLScan(req.Context(), body.URL)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// POST /scan-file
// multipart form, field "file"
func (r *Router) handleScanFile(w http.ResponseWriter, req *http.Request) error {
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	middleware.IncrementScans()
	result, err := r.scansSvc.SubmitFileScan(req.Context(), appscans.FileScanCommand{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Size:        header.Size,
	})
	if err != nil {
		return err
	}
	middleware.AddBytesUploaded(header.Size)
	return writeJSON(w, http.StatusOK, result)
}

// GET /scans/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.ScanRecord{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /scans/analyze
// Body: {"scan_id": "<id>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return fmt.Errorf("%w: analysis not enabled", domain.ErrNotFound)
	}

	var body struct {
		ScanID string `json:"scan_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if body.ScanID == "" {
		return fmt.Errorf("%w: scan_id is required", domain.ErrInvalidInput)
	}

	rec, err := r.scansSvc.Get(req.Context(), domain.ScanID(body.ScanID))
	if err != nil {
		return err
	}

	analysis, err := r.aiSvc.Summarize(req.Context(), rec)
	if err != nil {
		return err
	}
	payload := map[string]any{"scanId": body.ScanID}
	if json.Valid([]byte(analysis)) {
		payload["analysis"] = json.RawMessage(analysis)
	} else {
		payload["analysis"] = analysis
	}
	return writeJSON(w, http.StatusOK, payload)
}

// GET /app-config
func (r *Router) handleAppConfig(w http.ResponseWriter, req *http.Request) {
	_ = writeJSON(w, http.StatusOK, r.opts.AppConfig)
}

// handleStatic serves the SPA: a real asset when it exists, index.html otherwise.
func (r *Router) handleStatic(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	dir := r.opts.StaticDir
	if dir == "" {
		dir = "web"
	}

	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+req.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, req, name)
		return
	}
	http.ServeFile(w, req, filepath.Join(dir, "index.html"))
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
