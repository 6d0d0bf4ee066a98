package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"switchwrapper/internal/api"
	"switchwrapper/internal/api/handlers"
	"switchwrapper/internal/config"
	"switchwrapper/internal/data"
	"switchwrapper/internal/launch"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	cfg := config.Default()
	if path := os.Getenv("SWITCHWRAPPER_CONFIG"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
	}
	if os.Getenv("API_ENV") != "production" {
		cfg.Log.Development = true
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := data.DefaultResultTTL
	if s := os.Getenv("RESULT_TTL"); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			ttl = parsed
		} else {
			logger.Warn("ignoring RESULT_TTL", zap.String("value", s), zap.Error(err))
		}
	}
	results := data.NewResultStore(ttl)
	stop := make(chan struct{})
	defer close(stop)
	go results.RunCleanup(5*time.Minute, stop)

	var origins []string
	if s := os.Getenv("CORS_ALLOWED_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	pipeline := handlers.NewPipelineHandler(cfg, logger, results, launch.Launch)
	router := api.NewRouter(logger, pipeline, api.RouterOptions{AllowedOrigins: origins})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting API server", zap.String("addr", srv.Addr), zap.Duration("result_ttl", ttl))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
