// Package web serves the flow pages and the JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type Options struct {
	Registry *flow.Registry
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// RequestTimeout bounds one flow run. Zero disables the deadline.
	RequestTimeout time.Duration
	// RatePerMinute limits flow submissions across all clients. Zero or less
	// disables the limit.
	RatePerMinute int
	RateBurst     int
}

type Server struct {
	registry *flow.Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger
	limiter  *rate.Limiter
	timeout  time.Duration
	handler  http.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("flow registry is required")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerMinute > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), burst)
	}

	s := &Server{
		registry: opts.Registry,
		metrics:  opts.Metrics,
		logger:   log,
		limiter:  limiter,
		timeout:  opts.RequestTimeout,
	}
	s.handler = withRequestID(s.recoverer(s.accessLog(s.routes())))

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", s.component(s.index))
	mux.Handle("GET /{flow}", s.component(s.form))
	mux.Handle("POST /{flow}", s.component(s.submit))

	mux.HandleFunc("GET /api/flows", s.listFlows)
	mux.HandleFunc("POST /api/flows/{flow}", s.runFlow)
	mux.HandleFunc("GET /healthz", s.healthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return mux
}

func (s *Server) component(h func(*http.Request) *ComponentResponse) http.Handler {
	return ComponentHandler{logger: s.logger, handle: h}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// flowContext applies the per-request deadline.
func (s *Server) flowContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func statusFor(err error) int {
	switch flow.KindOf(err) {
	case flow.KindInvalidInput:
		return http.StatusBadRequest
	case flow.KindSchemaViolation:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}
