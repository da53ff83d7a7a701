package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-portal/internal/appointments"
	"clinic-portal/internal/auth"
	"clinic-portal/internal/doctors"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/metrics"
	"clinic-portal/internal/notifications"
	"clinic-portal/internal/patients"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	config, logger, dbConn, err := bootstrap()
	if err != nil {
		return err
	}
	defer dbConn.Close()

	var marker notifications.Marker
	if addr := config.RedisAddr(); addr != "" {
		redisMarker := notifications.NewRedisMarker(addr)
		defer redisMarker.Close()
		marker = redisMarker
	}

	// Setup the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/health"))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(metrics.PrometheusMiddleware)
	router.Use(middleware.SetHeader("Content-type", "application/json"))
	router.Handle("/metrics", metrics.Handler())

	authorizer := auth.Setup(router, logger, config, dbConn)
	directory := doctors.Setup(router, logger, authorizer, dbConn)
	registry := patients.Setup(router, logger, authorizer, dbConn)
	notifier := notifications.Setup(router, logger, authorizer, config, dbConn, notifications.NewSender(config, logger), marker)
	appointments.Setup(router, logger, authorizer, config, dbConn, directory, registry, notifier)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.ServerPort()),
		Handler:      router,
		ErrorLog:     log.New(logger, "", 0),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// Channel to listen OS signalling in order to gracefully shutdown the HTTP server and other resources
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	failed := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()

	logger.Info().Int32("port", config.ServerPort()).Msg("server started")

	select {
	case err = <-failed:
		return fmt.Errorf("server failed: %w", err)
	case <-exit:
	}
	logger.Warn().Msg("server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("an error occurred while server is shutting down: %w", err)
	}

	logger.Info().Msg("server shutdown successfully")
	return nil
}
