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

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/marine-vision/internal/application"
	appanalysis "github.com/bryanwahyu/marine-vision/internal/application/analysis"
	"github.com/bryanwahyu/marine-vision/internal/application/ingest"
	"github.com/bryanwahyu/marine-vision/internal/application/session"
	"github.com/bryanwahyu/marine-vision/internal/config"
	"github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/infra/analyzer/synthetic"
	"github.com/bryanwahyu/marine-vision/internal/infra/httpserver"
	"github.com/bryanwahyu/marine-vision/internal/middleware"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	metrics := middleware.NewMetrics()
	health := map[string]middleware.HealthChecker{}

	hist, closeHist, err := openHistory(ctx, cfg, health)
	if err != nil {
		log.Fatalf("history init error: %v", err)
	}
	defer closeHist()

	publicURL := cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	previews, memPreviews, err := openPreviews(ctx, cfg, publicURL+"/v1/previews")
	if err != nil {
		log.Fatalf("preview store init error: %v", err)
	}

	remote, err := openRemote(cfg)
	if err != nil {
		log.Fatalf("analysis backend init error: %v", err)
	}

	clock := application.SystemClock{}
	dispatcher := &appanalysis.Dispatcher{
		Local:   synthetic.New(),
		History: hist,
		Clock:   clock,
		Metrics: metrics,
	}
	if remote != nil {
		dispatcher.Remote = remote
		log.Printf("remote analysis enabled backend=%s analyzer=%s", cfg.Analysis.Backend, remote.Name())
	} else {
		log.Printf("remote analysis not configured, local analyzer only")
	}

	defaultMode, err := analysis.ParseMode(cfg.Analysis.DefaultMode, analysis.ModeLocal)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	sessions := session.NewManager(
		&ingest.Validator{Previews: previews, Clock: clock},
		dispatcher,
		session.Options{
			DefaultMode: defaultMode,
			OnStatus: func(id string, state analysis.State, message string) {
				log.Printf("session status session=%s state=%s message=%q", id, state, message)
			},
		},
	)
	go sessions.Janitor(ctx, time.Minute, cfg.Server.SessionIdleTTL.Duration)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	stopLimiter := make(chan struct{})
	go limiter.Run(stopLimiter)

	handler := httpserver.NewRouter(httpserver.Deps{
		Sessions:    sessions,
		History:     hist,
		Previews:    memPreviews,
		Metrics:     metrics,
		Health:      health,
		DefaultMode: defaultMode,
		MaxUpload:   cfg.MaxUploadBytes(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Extra: []func(http.Handler) http.Handler{
			middleware.APIKeyAuth(cfg.Auth.APIKeys),
			limiter.Middleware,
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	close(stopLimiter)
	cancelRoot()

	// revoke every preview handle before exit
	sessions.CloseAll(ctx2)
}
