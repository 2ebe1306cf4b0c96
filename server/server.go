package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/observability"
	"github.com/jbousquie/whisperx-api/server/endpoint"
	"github.com/jbousquie/whisperx-api/server/middleware"
)

// drainTimeout bounds how long in-flight transcriptions may finish on Stop.
const drainTimeout = 30 * time.Second

// Server serves the gin router over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New builds the server. Requests pass recovery, request ID, CORS, the
// body limit and the access log before reaching gin. metrics may be nil.
func New(cfg Config, log *logger.Logger, metrics *observability.Metrics) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middleware.Telemetry(metrics))

	log = log.WithComponent("server")
	wrapped := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
		middleware.RequestLogger(log),
	)(engine)

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           h2c.NewHandler(wrapped, &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: cfg.IdleTimeout}),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		engine: engine,
		config: cfg,
		log:    log,
	}
}

// GinEngine is where routes are registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the whole chain, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start binds the listener and serves in the background. A bind error is
// returned directly.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped unexpectedly", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop closes the listener and waits for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Addr is the bound address after Start, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// RegisterDefaultEndpoints adds /alive, /ready and /version. The API
// registers its own /health.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/ready", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/version", endpoint.Version(serviceName))
}
