package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"signaling-service/logger"
	"signaling-service/src/config"
	"signaling-service/src/db"
	"signaling-service/src/rabbitmq"
	"signaling-service/src/registry"
	"signaling-service/src/repository"
	"signaling-service/src/router"
	"signaling-service/src/service"
	"signaling-service/src/store"

	_ "signaling-service/src/docs"

	_ "github.com/swaggo/files"
	_ "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server and the components it owns.
type Server struct {
	config   *config.GlobalConfig
	database *db.DB
	events   rabbitmq.Publisher
	engine   *service.Engine
	sweeper  *service.Sweeper
	http     *http.Server

	shutdownHandler ShutdownHandlerInterface
}

// NewServer creates a new server instance with all collaborators wired.
// RabbitMQ and postgres are optional; when unconfigured the engine runs
// in-memory with a no-op publisher and no archive.
func NewServer(cfg *config.GlobalConfig) (*Server, error) {
	server := &Server{
		config: cfg,
		events: rabbitmq.NoopPublisher{},
	}

	if cfg.EventsEnabled() {
		publisher, err := rabbitmq.NewAMQPPublisher(cfg.RabbitURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		server.events = publisher
	}

	var records service.CallRecorder
	if cfg.ArchiveEnabled() {
		database, err := db.NewDB(cfg)
		if err != nil {
			server.events.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		server.database = database
		records = repository.NewCallRecordRepository(database)
	}

	server.engine = service.NewEngine(
		registry.New(),
		store.New(),
		server.events,
		records,
		logger.Logger,
		cfg.CallEventsExchange,
		cfg.HistoryLimit,
	)
	server.sweeper = service.NewSweeper(
		server.engine,
		logger.Logger,
		cfg.SweepInterval,
		cfg.PresenceTTL,
		cfg.RingTTL,
		cfg.SessionTTL,
	)

	// Create and assign shutdown handler
	server.shutdownHandler = NewShutdownHandler(server)

	return server, nil
}

// Run starts the server with graceful shutdown using ShutdownHandler
func (s *Server) Run() error {
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	go s.sweeper.Run()
	serverDone := s.startServerGoroutine()

	return s.shutdownHandler.HandleShutdown(serverDone, osSignals)
}

// startServerGoroutine starts the HTTP server in a goroutine and returns a channel for errors
func (s *Server) startServerGoroutine() chan error {
	serverDone := make(chan error, 1)

	go func() {
		r := router.NewRouter(s.engine, logger.Logger)
		httpServer := &http.Server{
			Addr:    fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
			Handler: r,
		}
		s.http = httpServer

		logger.Logger.WithField("host", s.config.Host).
			WithField("port", s.config.Port).
			Info("Starting signaling service")

		serverDone <- s.startServer()
	}()

	return serverDone
}

// startServer starts the HTTP server and handles errors
func (s *Server) startServer() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
