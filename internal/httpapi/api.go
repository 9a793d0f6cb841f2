package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/download"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/integrity"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/obs"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/pipeline"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/session"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/stream"
)

// ReadyProbe checks downstream dependencies (the registry database when one
// is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	sessions   *session.Manager
	directory  *auth.Directory
	pipeline   *pipeline.Pipeline
	gate       *download.Gate
	registry   integrity.Registry
	stream     *stream.Stream
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
}

// Deps bundles the service components the HTTP layer exposes.
type Deps struct {
	Sessions  *session.Manager
	Directory *auth.Directory
	Pipeline  *pipeline.Pipeline
	Gate      *download.Gate
	Registry  integrity.Registry
	Stream    *stream.Stream
	Ready     ReadyProbe
	Version   string
}

func New(deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		sessions:   deps.Sessions,
		directory:  deps.Directory,
		pipeline:   deps.Pipeline,
		gate:       deps.Gate,
		registry:   deps.Registry,
		stream:     deps.Stream,
		readyProbe: deps.Ready,
		version:    deps.Version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)
	a.mux.HandleFunc("/api/auth/accounts", a.handleAccounts)

	// documents
	a.mux.HandleFunc("/api/documents/generate", a.handleGenerate)
	a.mux.HandleFunc("/api/documents/download/", a.handleDownload)
	a.mux.HandleFunc("/api/documents/metadata/import", a.handleMetadataImport)
	a.mux.HandleFunc("/api/documents/events", a.Stream)
	a.mux.HandleFunc("/api/documents/", a.handleDocumentResource)

	// system
	a.mux.HandleFunc("/api/system/status", a.handleStatus)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = Logging(h)
	h = RequestID(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "carta-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
