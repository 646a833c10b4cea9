// Package httpserver serves a DBF database over a JSON HTTP API.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danfragoso/dbfsql/pkg/driver"
	"github.com/danfragoso/dbfsql/pkg/logging"
)

// Config holds HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	EnableCORS        bool
	EnableAuth        bool
	EnableCompression bool
	APIKeys           []string
	TLSCertFile       string
	TLSKeyFile        string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              8080,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		EnableCORS:        true,
		EnableAuth:        false,
		EnableCompression: true,
		APIKeys:           []string{},
	}
}

// Server represents the HTTP API server.
type Server struct {
	config  *Config
	handler http.Handler
	server  *http.Server
	stats   *Stats

	// mu serializes every use of drv.
	mu  sync.Mutex
	drv *driver.Driver
}

// Stats tracks server statistics.
type Stats struct {
	QueriesExecuted int64
	QueriesSuccess  int64
	QueriesError    int64
	StartTime       time.Time
}

// New creates a new HTTP server for an open database.
func New(config *Config, drv *driver.Driver) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config: config,
		drv:    drv,
		stats: &Stats{
			StartTime: time.Now(),
		},
	}

	mux := http.NewServeMux()

	// Outermost first: request id -> logging -> auth -> cors -> compression -> handler
	var handler http.Handler = mux

	if config.EnableCompression {
		handler = s.compressionMiddleware(handler)
	}

	if config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}

	if config.EnableAuth {
		handler = s.authMiddleware(handler)
	}

	handler = s.loggingMiddleware(handler)
	handler = s.requestIDMiddleware(handler)

	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/cursor", s.handleCursorOpen)
	mux.HandleFunc("POST /cursor/{id}/fetch", s.handleCursorFetch)
	mux.HandleFunc("DELETE /cursor/{id}", s.handleCursorClose)
	mux.HandleFunc("/schema/tables", s.handleSchemaTables)
	mux.HandleFunc("/schema/tables/", s.handleSchemaTable)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)

	s.handler = handler
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the full handler chain, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// TLSEnabled reports whether both a certificate and a key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Start starts the HTTP server, over TLS when the config enables it.
func (s *Server) Start() error {
	logging.WithComponent("http").Info("starting HTTP server", "addr", s.URL())

	if s.config.TLSEnabled() {
		return s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.WithComponent("http").Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// URL returns the base URL clients connect to.
func (s *Server) URL() string {
	if s.config.TLSEnabled() {
		return "https://" + s.server.Addr
	}
	return "http://" + s.server.Addr
}
