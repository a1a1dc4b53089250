// Package gateway exposes the engine over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /contracts                     manifest of every hosted contract
//	POST /contracts/{contract}/invoke   {"function": "...", "args": [...]}
//	POST /contracts/{contract}/init
//	GET  /metrics                       Prometheus exposition
//
// Invoke and init answer with the envelope as JSON and use its status as
// the HTTP status.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
)

// StatusTooManyRequests is the envelope status of a rate-limited request.
const StatusTooManyRequests = http.StatusTooManyRequests

// Invoker is the engine surface the gateway needs. *engine.Engine
// implements it.
type Invoker interface {
	Invoke(ctx context.Context, call ir.Call) ir.Response
	Init(ctx context.Context, contract string) ir.Response
}

var _ Invoker = (*engine.Engine)(nil)

// InvokeRequest is the body of an invoke call.
type InvokeRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

// envelope is the wire form of ir.Response with a JSON payload.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func toEnvelope(resp ir.Response) envelope {
	return envelope{Status: resp.Status, Message: resp.Message, Payload: resp.PayloadJSON()}
}

// Server serves the gateway routes.
type Server struct {
	invoker  Invoker
	specs    []ir.ContractSpec
	cfg      Config
	limiter  *clientLimiter
	limited  prometheus.Counter
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry registers gateway metrics on reg and serves reg's
// gatherer on /metrics. Without it /metrics answers 404.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.limited = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookledger",
			Name:      "gateway_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit.",
		})
		reg.MustRegister(s.limited)
		s.gatherer = reg
	}
}

// WithClock sets the time source used by the rate limiter.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a Server. specs is served on GET /contracts.
func New(invoker Invoker, specs []ir.ContractSpec, cfg Config, opts ...Option) *Server {
	cfg.validate()
	s := &Server{
		invoker: invoker,
		specs:   specs,
		cfg:     cfg,
		limiter: newClientLimiter(cfg),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/contracts", func(api chi.Router) {
		api.Use(s.rateLimit)
		api.Get("/", s.handleList)
		api.Post("/{contract}/invoke", s.handleInvoke)
		api.Post("/{contract}/init", s.handleInit)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown gateway: %w", err)
		}
		return nil
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !s.limiter.allow(key, s.now()) {
			if s.limited != nil {
				s.limited.Inc()
			}
			s.logger.Warn("rate limited", "client", key, "path", r.URL.Path)
			writeJSON(w, StatusTooManyRequests, envelope{Status: StatusTooManyRequests, Message: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"contracts": s.specs})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	contract := chi.URLParam(r, "contract")

	var req InvokeRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: ir.StatusBadRequest, Message: "invalid request body: " + err.Error()})
		return
	}
	if req.Args == nil {
		req.Args = []string{}
	}

	resp := s.invoker.Invoke(r.Context(), ir.Call{Contract: contract, Function: req.Function, Args: req.Args})
	writeJSON(w, resp.Status, toEnvelope(resp))
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	resp := s.invoker.Init(r.Context(), chi.URLParam(r, "contract"))
	writeJSON(w, resp.Status, toEnvelope(resp))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
