// Package main provides the requirement management server entry point.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang/glog"

	"github.com/reqman/reqman/pkg/audit"
	"github.com/reqman/reqman/pkg/auth"
	"github.com/reqman/reqman/pkg/config"
	"github.com/reqman/reqman/pkg/db"
	"github.com/reqman/reqman/pkg/metrics"
	"github.com/reqman/reqman/pkg/project"
	"github.com/reqman/reqman/pkg/requirement"
	"github.com/reqman/reqman/pkg/workflow"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("starting requirement server",
		"listen", cfg.Server.Addr(),
		"driver", cfg.Database.Driver,
		"authMode", cfg.Auth.Mode,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	userStore := auth.NewStore(gormDB)
	projectStore := project.NewStore(gormDB)
	historyStore := audit.NewStore(gormDB)
	machine := workflow.NewMachine()
	recorder := audit.NewRecorder()
	svc := requirement.NewService(gormDB, machine, historyStore, recorder, projectStore)

	for _, migrate := range []func() error{
		userStore.AutoMigrate,
		projectStore.AutoMigrate,
		historyStore.AutoMigrate,
		svc.AutoMigrate,
	} {
		if err := migrate(); err != nil {
			glog.Fatalf("Failed to migrate database: %v", err)
		}
	}

	if cfg.Auth.AdminPassword != "" {
		if err := userStore.EnsureAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			glog.Fatalf("Failed to seed admin user: %v", err)
		}
		logger.Info("admin account ensured", "username", cfg.Auth.AdminUsername)
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))
	router.Use(metrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", auth.NewRouter(userStore, issuer))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.Mode, issuer))
			r.Mount("/requirements", requirement.NewRouter(svc, machine))
			r.Mount("/projects", project.NewRouter(projectStore))
		})
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("requirement server ready", "listen", cfg.Server.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("requirement server stopped")
}
