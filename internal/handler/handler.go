package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"switchgraph/internal/adapter"
	"switchgraph/internal/codec"
	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/reconcile"
	"switchgraph/internal/service"
)

// DiscoveryTrigger starts a scheduled discovery adapter out of band
type DiscoveryTrigger interface {
	TriggerSync(ctx context.Context, name string) (*adapter.SyncResult, error)
	TriggerSyncAll(ctx context.Context) error
}

// API handles HTTP requests
type API struct {
	svc       *service.Service
	discovery DiscoveryTrigger
	events    http.Handler
	metrics   http.Handler
}

// New creates the API over svc
func New(svc *service.Service) *API {
	return &API{svc: svc}
}

// SetDiscoveryTrigger routes device-wide discovery requests through the
// scheduler
func (a *API) SetDiscoveryTrigger(d DiscoveryTrigger) {
	a.discovery = d
}

// SetEventStream serves h on /events
func (a *API) SetEventStream(h http.Handler) {
	a.events = h
}

// SetMetrics serves h on /metrics
func (a *API) SetMetrics(h http.Handler) {
	a.metrics = h
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// kindSegments are the URL path segments of each kind
var kindSegments = map[domain.Kind]string{
	domain.KindInterface: "interfaces",
	domain.KindVLAN:      "vlans",
	domain.KindPortGroup: "port-groups",
	domain.KindSTPPort:   "stp-ports",
}

// Handler builds the routing tree
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", a.health)
	if a.events != nil {
		r.Handle("/events", a.events)
	}
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/stats", a.stats)
		api.Post("/discover", a.discover)
		api.Get("/devices", a.listDevices)
		api.Get("/export", a.export)

		api.Route("/devices/{ip}", func(dev chi.Router) {
			dev.Get("/", a.getDevice)
			for _, kind := range domain.AllKinds() {
				seg := kindSegments[kind]
				dev.Get("/"+seg, a.listKind(kind))
				dev.Get("/"+seg+"/{key}", a.getKind(kind))
			}

			dev.Put("/vlans/{key}", a.configureVLAN)
			dev.Delete("/vlans/{key}", a.deleteVLAN)
			dev.Post("/vlans/{key}/members", a.addVLANMembers)
			dev.Delete("/vlans/{key}/members", a.removeVLANMember)
			dev.Delete("/vlans/{key}/members/{if}", a.removeVLANMember)
			dev.Put("/port-groups/{key}/speed", a.setPortGroupSpeed)
			dev.Put("/stp-ports/{key}", a.configureSTPPort)
			dev.Delete("/stp-ports/{key}", a.deleteSTPPort)
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/events" {
			return
		}
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) listDevices(w http.ResponseWriter, r *http.Request) {
	var (
		devices []domain.Device
		err     error
	)
	if pattern := r.URL.Query().Get("device"); pattern != "" {
		devices, err = a.svc.SelectDevices(r.Context(), pattern)
	} else {
		devices, err = a.svc.ListDevices(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (a *API) getDevice(w http.ResponseWriter, r *http.Request) {
	device, err := a.svc.GetDevice(r.Context(), chi.URLParam(r, "ip"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// DiscoverResponse is returned by POST /api/discover
type DiscoverResponse struct {
	Results []reconcile.Result `json:"results"`
	Errors  []string           `json:"errors,omitempty"`
}

// discover runs discovery. Query parameters: kind (optional, one kind) and
// device (optional glob). Without a device pattern and with a scheduler
// attached, the scheduled adapter of the kind is triggered instead.
func (a *API) discover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var kinds []domain.Kind
	if s := q.Get("kind"); s != "" {
		kind, err := domain.ParseKind(s)
		if err != nil {
			writeError(w, serrors.Invalid("discover", "%v", err))
			return
		}
		kinds = []domain.Kind{kind}
	}
	pattern := q.Get("device")

	var resp DiscoverResponse
	if pattern == "" && a.discovery != nil {
		if len(kinds) == 0 {
			if err := a.discovery.TriggerSyncAll(r.Context()); err != nil {
				resp.Errors = append(resp.Errors, err.Error())
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
		res, err := a.discovery.TriggerSync(r.Context(), string(kinds[0]))
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Results = res.Results
		resp.Errors = res.Errors
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var patterns []string
	if pattern != "" {
		patterns = append(patterns, pattern)
	}
	results, err := a.svc.DiscoverDevices(r.Context(), kinds, patterns...)
	if err != nil && len(results) == 0 {
		writeError(w, err)
		return
	}
	resp.Results = results
	if err != nil {
		resp.Errors = append(resp.Errors, err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

// exportContentTypes maps export formats to response content types
var exportContentTypes = map[string]string{
	"json":              "application/json",
	"yaml":              "application/yaml",
	"ansible-inventory": "application/yaml",
}

// export writes the stored graph of the selected devices. Query parameters:
// format (default json) and device (repeatable glob).
func (a *API) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	exporter, err := codec.ExporterFor(format)
	if err != nil {
		writeError(w, serrors.Invalid("export", "%v", err))
		return
	}

	fragment, err := a.svc.Export(r.Context(), r.URL.Query()["device"]...)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(fragment, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Write(buf.Bytes())
}

// urlKey returns the unescaped {key} path parameter
func urlKey(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode JSON response")
	}
}

// statusOf maps error categories to HTTP statuses
func statusOf(err error) int {
	switch {
	case errors.Is(err, serrors.ErrNotFound), errors.Is(err, adapter.ErrAdapterNotFound):
		return http.StatusNotFound
	case errors.Is(err, serrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, serrors.ErrTransport), errors.Is(err, serrors.ErrMapping):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Details: err.Error(),
	})
}
