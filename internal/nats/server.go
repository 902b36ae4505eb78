package nats

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const (
	// DefaultPort is the standard NATS client port.
	DefaultPort  = 4222
	readyTimeout = 5 * time.Second
	// Status and command payloads are a few hundred bytes.
	maxPayload = 64 * 1024
)

// ServerOptions configures the embedded NATS server. A Port of -1 picks a
// free port.
type ServerOptions struct {
	Port   int
	Host   string
	Name   string
	Logger *slog.Logger
}

// Server runs an in-process NATS server for installs with no broker of
// their own. The device client connects to it like any other server.
type Server struct {
	ns     *server.Server
	opts   ServerOptions
	logger *slog.Logger
}

// NewServer creates an embedded server. It does not listen until Start.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Name == "" {
		opts.Name = SubjectPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{opts: opts, logger: opts.Logger}
}

// Start listens and blocks until the server accepts connections.
func (s *Server) Start() error {
	ns, err := server.NewServer(&server.Options{
		Host:       s.opts.Host,
		Port:       s.opts.Port,
		ServerName: s.opts.Name,
		NoLog:      true,
		NoSigs:     true,
		MaxPayload: maxPayload,
	})
	if err != nil {
		return fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return errors.New("NATS server not ready within " + readyTimeout.String())
	}

	s.ns = ns
	s.logger.Info("Embedded NATS server started", "url", s.ClientURL())
	return nil
}

// Stop shuts the server down and waits for client connections to close.
func (s *Server) Stop() {
	if s.ns == nil {
		return
	}
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
	s.ns = nil
	s.logger.Info("Embedded NATS server stopped")
}

// ClientURL is the URL the device client should dial.
func (s *Server) ClientURL() string {
	if s.ns == nil {
		return fmt.Sprintf("nats://%s:%d", s.opts.Host, s.opts.Port)
	}
	return s.ns.ClientURL()
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	return s.ns != nil && s.ns.Running()
}
