package main

import (
	"log"

	"signaling-service/logger"
	"signaling-service/src/config"
	"signaling-service/src/server"
)

// @title Signaling Service API
// @version 1.0
// @description Rendezvous service that brokers call offers, answers and reachability candidates between two peers so they can open a direct media channel.

// @contact.name   Signaling Service Team
// @contact.url    https://github.com/your-org/signaling-service

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	srv, err := server.NewServer(&cfg)
	if err != nil {
		logger.Logger.WithError(err).Fatal("Failed to create server")
	}

	if err := srv.Run(); err != nil {
		logger.Logger.WithError(err).Fatal("Server exited with error")
	}
}
