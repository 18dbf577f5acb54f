package inspector

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/treespec"
	"github.com/vango-dev/vtree/pkg/vtree"
)

const (
	maxSpecBytes = 1 << 20
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Server is the HTTP face of a Host.
type Server struct {
	host     *Host
	router   chi.Router
	upgrader websocket.Upgrader
	gatherer prometheus.Gatherer
	store    snapshot.Store
	logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer sets the source for /metrics. Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStore enables the /snapshots routes.
func WithStore(store snapshot.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithServerLogger sets the request logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin sets the websocket origin check. By default only same-origin
// requests are upgraded.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// NewServer creates the inspector handler for host.
func NewServer(host *Host, opts ...ServerOption) *Server {
	s := &Server{
		host:     host,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/tree", s.handleTree)
	r.Get("/views", s.handleViews)
	r.Get("/views/{key}", s.handleViewWithKey)
	r.Post("/reconcile", s.handleReconcile)
	r.Post("/layout", s.handleLayout)
	r.Get("/events", s.handleEvents)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	if s.store != nil {
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Get("/{name}", s.handleGetSnapshot)
			r.Post("/{name}", s.handleSaveSnapshot)
		})
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		dump, err := s.host.Dump(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, dump)
		return
	}
	d, err := s.host.Describe(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if d == nil {
		s.writeError(w, vtree.ErrNotMounted)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("reuse")
	if id == "" {
		s.writeError(w, errors.New("V050").WithDetail("The reuse query parameter is required."))
		return
	}
	names, err := s.host.ViewsWithReuseIdentifier(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reuse": id, "views": names})
}

func (s *Server) handleViewWithKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	name, err := s.host.ViewWithKey(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if name == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"key": key, "view": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "view": name})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSpecBytes))
	if err != nil {
		s.writeError(w, errors.New("V050").Wrap(err))
		return
	}
	spec, err := treespec.Parse(data)
	if err != nil {
		s.writeError(w, errors.Classify(err, "V001"))
		return
	}
	stats, err := s.host.Apply(r.Context(), spec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, werr := strconv.ParseFloat(q.Get("width"), 64)
	height, herr := strconv.ParseFloat(q.Get("height"), 64)
	if werr != nil || herr != nil || width < 0 || height < 0 {
		s.writeError(w, errors.New("V050").WithDetail("width and height must be non-negative numbers."))
		return
	}
	stats, err := s.host.Resize(r.Context(), vtree.Size{Width: width, Height: height})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleEvents streams pass events as JSON text messages until the client
// goes away or the host stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.host.Subscribe(32)
	defer cancel()

	// Reads only serve to notice the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("events read error", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "host stopped"),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, errors.New("V031").Wrap(err))
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": names})
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap *snapshot.Snapshot
	err := s.host.Do(r.Context(), func(h *vtree.Hierarchy) error {
		var err error
		snap, err = snapshot.Take(chi.URLParam(r, "name"), h)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), snap); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("diff") == "" {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	live, err := s.host.Describe(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	diff := snapshot.Diff(snap, &snapshot.Snapshot{Root: live}, false)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    snap.Name,
		"changed": diff != "",
		"diff":    diff,
	})
}

// writeError reports err as a JSON error document with a status derived from
// its code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *errors.Error
	switch {
	case stderrors.Is(err, snapshot.ErrNotFound):
		verr = errors.New("V030").Wrap(err)
	case stderrors.Is(err, snapshot.ErrInvalidName):
		verr = errors.New("V050").Wrap(err)
	case stderrors.Is(err, snapshot.ErrEmpty):
		verr = errors.New("V010").Wrap(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, ErrStopped):
		verr = errors.New("V040").Wrap(err)
	default:
		verr = errors.Classify(err, "V019")
	}

	status := statusFor(verr)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", verr.Code, "error", err)
	}
	writeJSON(w, status, map[string]any{"error": verr})
}

func statusFor(e *errors.Error) int {
	switch e.Code {
	case "V010", "V011", "V012":
		return http.StatusConflict
	case "V030":
		return http.StatusNotFound
	case "V040":
		return http.StatusServiceUnavailable
	}
	switch e.Category {
	case errors.CategoryTree, errors.CategoryCLI:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
