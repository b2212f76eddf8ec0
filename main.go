package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/pkg/config"
	"github.com/littletrip/littletrip-api/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	otelShutdown, err := server.InitObservability("littletrip-api", ":"+cfg.MetricsPort, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	router := server.SetupRouter(srv.GetDBPool(), cfg, logger)
	srv.SetRouter(router)

	server.StartPprofServer(":" + cfg.PprofPort)

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, logger, done)

	logger.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	<-done
	logger.Info("Graceful shutdown complete")

	return nil
}
