package server

import (
	"context"
	"os"

	"signaling-service/logger"
)

// ShutdownHandlerInterface defines the interface for handling graceful shutdown
type ShutdownHandlerInterface interface {
	// HandleShutdown orchestrates the shutdown process
	// Returns an error if shutdown encounters an issue
	HandleShutdown(serverDone chan error, osSignals chan os.Signal) error

	// ShutdownServer initiates server shutdown
	ShutdownServer()
}

// ShutdownHandler implements the ShutdownHandlerInterface
type ShutdownHandler struct {
	server *Server
}

// NewShutdownHandler creates a new shutdown handler
func NewShutdownHandler(server *Server) ShutdownHandlerInterface {
	return &ShutdownHandler{
		server: server,
	}
}

// HandleShutdown orchestrates graceful shutdown based on shutdown sources
func (h *ShutdownHandler) HandleShutdown(serverDone chan error, osSignals chan os.Signal) error {
	// Wait for one of two shutdown triggers:
	// 1. Server error/completion (serverDone)
	// 2. OS signal (SIGTERM/SIGINT from the orchestrator or user)
	select {
	case err := <-serverDone:
		// Server stopped (error or normal completion)
		logger.Logger.Info("Server stopped, initiating shutdown")
		close(osSignals) // Signal OS goroutine to stop if it's listening
		h.ShutdownServer()
		return h.handleServerError(err)

	case sig, ok := <-osSignals:
		// OS signal received (SIGTERM from the orchestrator or user)
		if !ok {
			return nil
		}
		logger.Logger.WithField("signal", sig.String()).Info("Received OS signal, initiating shutdown")
		h.ShutdownServer()

		// Wait for server to finish
		err := <-serverDone
		return h.handleServerError(err)
	}
}

// handleServerError handles shutdown when server stops
func (h *ShutdownHandler) handleServerError(err error) error {
	if err != nil {
		logger.Logger.WithError(err).Error("Service stopped with an error")
		return err
	}
	logger.Logger.Info("Service stopped cleanly")
	return nil
}

// ShutdownServer initiates the shutdown of all server components
func (h *ShutdownHandler) ShutdownServer() {
	logger.Logger.Info("Shutting down server components...")

	// Attempt graceful shutdown of HTTP server
	if h.server.http != nil {
		if err := h.server.http.Shutdown(context.Background()); err != nil {
			logger.Logger.WithError(err).Error("Error during HTTP server shutdown")
		}
	}

	// Stop the background sweeper
	if h.server.sweeper != nil {
		h.server.sweeper.Stop()
	}

	// Close the events publisher
	if h.server.events != nil {
		h.server.events.Close()
		logger.Logger.Info("Events publisher closed")
	}

	// Close database connection
	if h.server.database != nil {
		h.server.database.Close()
		logger.Logger.Info("Database connection closed")
	}

	logger.Logger.Info("Server shutdown complete")
}
