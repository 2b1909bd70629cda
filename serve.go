package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/muhammadolammi/jobmatch/internal/evaluator"
	"github.com/muhammadolammi/jobmatch/internal/notify"
	"github.com/muhammadolammi/jobmatch/internal/resume"
	"github.com/muhammadolammi/jobmatch/internal/server"
	"github.com/muhammadolammi/jobmatch/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Run:   runServe,
}

var servePort string

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (overrides PORT env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	logger := newLogger(cfg.LogFormat, os.Stderr)
	ctx := context.Background()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.RabbitMQURL != "" {
		amqpNotifier, err := notify.DialAMQP(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("error connecting to RabbitMQ. err: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	var fetcher resume.Fetcher
	if cfg.R2.Enabled() {
		r2, err := resume.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Fatalf("error creating R2 client: %v", err)
		}
		fetcher = r2
	}

	completer := cfg.completer()
	sessions := session.NewManager(session.Deps{
		Evaluator: evaluator.NewClient(completer, logger),
		Notifier:  notifier,
		Logger:    logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Config{CORSOrigins: cfg.CORSOrigins}, &server.Handler{
		Sessions: sessions,
		Fetcher:  fetcher,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "provider", completer.Name(),
			"amqp", cfg.RabbitMQURL != "", "r2", fetcher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
