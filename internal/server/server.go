package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"MarketDash/internal/collector"
	"MarketDash/internal/report"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Options configures the API surface.
type Options struct {
	Symbols  []string // catalog offered to clients
	Restrict bool     // reject symbols outside the catalog
	Debug    bool
}

// Server exposes charts, profiles and reports over HTTP.
type Server struct {
	collector *collector.Collector
	assembler *report.Assembler
	opts      Options
	catalog   map[string]bool
	logger    arbor.ILogger
	engine    *gin.Engine
	http      *http.Server
}

// New creates a Server and registers its routes.
func New(col *collector.Collector, asm *report.Assembler, opts Options, logger arbor.ILogger) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}

	s := &Server{
		collector: col,
		assembler: asm,
		opts:      opts,
		catalog:   make(map[string]bool, len(opts.Symbols)),
		logger:    logger,
		engine:    gin.New(),
	}
	for _, sym := range opts.Symbols {
		s.catalog[strings.ToUpper(sym)] = true
	}

	s.engine.Use(gin.Recovery(), requestID(), s.accessLog(), cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/symbols", s.getSymbols)

	sym := api.Group("/symbols/:symbol", s.resolveSymbol)
	sym.GET("/chart", s.getChart)
	sym.GET("/profile", s.getProfile)
	sym.GET("/report", s.getReport)
	sym.GET("/report.xlsx", s.getWorkbook)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("latency", time.Since(start).String()).
			Msg("request")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With, "+RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
