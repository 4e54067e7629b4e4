// file: internal/transport/http.go
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/config"
	"github.com/dkoosis/headlines/internal/fsm"
	"github.com/dkoosis/headlines/internal/httputils"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
	"github.com/dkoosis/headlines/internal/metrics"
	"github.com/dkoosis/headlines/internal/middleware"
)

const (
	// MCPPath is where JSON-RPC requests are posted.
	MCPPath = "/mcp"
	// HealthPath serves the health check.
	HealthPath = "/"
	// MetricsPath serves the request counters.
	MetricsPath = "/metrics"

	transportName     = "streamable-http"
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// HealthStatus is the body of GET /.
type HealthStatus struct {
	Service     string `json:"service"`
	Status      string `json:"status"`
	Transport   string `json:"transport"`
	MCPEndpoint string `json:"mcp_endpoint"`
	State       string `json:"state"`
}

// HTTPServer serves MCP over HTTP POST plus health and metrics endpoints.
type HTTPServer struct {
	cfg       config.ServerConfig
	proc      *processor
	metrics   *metrics.Collector
	lifecycle fsm.FSM
	logger    logging.Logger
	srv       *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewHTTPServer creates an HTTP transport for d. collector may be nil, in
// which case /metrics is not served.
func NewHTTPServer(cfg config.ServerConfig, d Dispatcher, collector *metrics.Collector, logger logging.Logger) (*HTTPServer, error) {
	if d == nil {
		return nil, errors.New("http transport requires a dispatcher")
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "http_transport")

	lifecycle, err := fsm.NewLifecycle(logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build server lifecycle")
	}

	s := &HTTPServer{
		cfg: cfg,
		proc: &processor{
			dispatcher: d,
			timeout:    cfg.RequestTimeout,
			metrics:    collector,
			logger:     logger,
		},
		metrics:   collector,
		lifecycle: lifecycle,
		logger:    logger,
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s, nil
}

// Handler returns the routed, middleware-wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(MCPPath, s.handleMCP)
	mux.HandleFunc(MetricsPath, s.handleMetrics)
	mux.HandleFunc(HealthPath, s.handleHealth)
	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.AccessLog(s.logger),
		middleware.Recover(s.logger),
	)
}

// State reports the lifecycle state.
func (s *HTTPServer) State() fsm.State {
	return s.lifecycle.CurrentState()
}

// Addr returns the bound address once serving has begun.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServe listens on the configured port and serves until Shutdown.
func (s *HTTPServer) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = s.lifecycle.Transition(ctx, fsm.EventFail, nil)
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.lifecycle.Transition(ctx, fsm.EventStart, nil); err != nil {
		_ = ln.Close()
		return errors.Wrap(err, "http transport cannot start")
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	if err := s.lifecycle.Transition(ctx, fsm.EventReady, nil); err != nil {
		_ = ln.Close()
		return errors.Wrap(err, "http transport cannot become ready")
	}
	s.logger.Info("HTTP transport listening.",
		"address", ln.Addr().String(), "mcp_endpoint", MCPPath, "health", HealthPath)

	err := s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	_ = s.lifecycle.Transition(ctx, fsm.EventFail, nil)
	return errors.Wrap(err, "http server stopped unexpectedly")
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx
// expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if !s.lifecycle.CanTransition(fsm.EventDrain) {
		if s.lifecycle.CurrentState() == fsm.StateIdle {
			return s.lifecycle.Transition(ctx, fsm.EventStop, nil)
		}
		return nil
	}
	if err := s.lifecycle.Transition(ctx, fsm.EventDrain, nil); err != nil {
		return err
	}
	s.logger.Info("Draining HTTP transport.")

	if err := s.srv.Shutdown(ctx); err != nil {
		_ = s.lifecycle.Transition(ctx, fsm.EventFail, nil)
		return errors.Wrap(err, "http shutdown did not complete")
	}
	if err := s.lifecycle.Transition(ctx, fsm.EventStop, nil); err != nil {
		return err
	}
	s.logger.Info("HTTP transport stopped.")
	return nil
}

func (s *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, r, http.StatusRequestEntityTooLarge, mcp.ErrorResponse(nil,
				mcperrors.NewInvalidRequestError("Invalid Request: body exceeds 1 MiB", nil)))
			return
		}
		s.writeJSON(w, r, http.StatusBadRequest, mcp.ErrorResponse(nil,
			mcperrors.NewParseError("Parse error: could not read body", err)))
		return
	}

	resp, status, reply := s.proc.process(r.Context(), body)
	if !reply {
		w.WriteHeader(status)
		return
	}
	s.writeJSON(w, r, status, resp)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != HealthPath {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	state := s.lifecycle.CurrentState()
	health := HealthStatus{
		Service:     s.cfg.Name,
		Status:      "healthy",
		Transport:   transportName,
		MCPEndpoint: MCPPath,
		State:       string(state),
	}
	status := http.StatusOK
	if state != fsm.StateServing {
		health.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, health)
}

func (s *HTTPServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.metrics.Snapshot())
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if err := httputils.WriteJSON(w, status, v); err != nil {
		s.logger.WithContext(r.Context()).Error("Failed to write response.", "error", fmt.Sprintf("%+v", err))
	}
}
