package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sectrain/config"
	"sectrain/internal/cache"
	"sectrain/internal/evaluator"
	"sectrain/internal/repository"
	"sectrain/internal/service"
	"sectrain/internal/transport/rest"
	"sectrain/pkg/logger"
	"sectrain/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		lg.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		lg.Fatal("failed to ping MongoDB", "error", err)
	}
	lg.Info("connected to MongoDB", "database", cfg.MongoDatabase)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		lg.Fatal("failed to ping Redis", "error", err)
	}
	lg.Info("connected to Redis", "addr", cfg.RedisAddr)

	if cfg.AI.IsEnabled() {
		lg.Info("AI grading enabled", "graderModel", cfg.AI.GraderModel, "contentModel", cfg.AI.ContentModel)
	} else {
		lg.Warn("AI API key not set; using offline grading and content")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := repository.NewStore(mongoClient, cfg.MongoDatabase)
	sessionRepo := repository.NewSessionRepo(store)
	moduleRepo := repository.NewModuleRepo(store)
	auditRepo := repository.NewAuditRepo(store)
	profileRepo := repository.NewProfileRepo(store)

	policyCache := cache.NewPolicyCache(rdb, time.Duration(cfg.PolicyCacheTTLSeconds)*time.Second)
	viewCache := cache.NewSessionViewCache(rdb)

	grader := evaluator.NewGrader(&cfg.AI, m)
	generator := evaluator.NewContentGenerator(&cfg.AI)

	policies := service.NewCachedPolicyProvider(service.NewConfigPolicyProvider(cfg), policyCache, lg)
	audit := service.NewAuditEmitter(auditRepo, lg, m)

	sessionSvc := service.NewSessionService(
		sessionRepo, moduleRepo, store, generator, profileRepo, policies, audit, viewCache, lg, m)
	moduleSvc := service.NewModuleService(
		sessionRepo, moduleRepo, generator, grader, profileRepo, audit, viewCache, lg, m)

	router := rest.NewRouter(&rest.Container{
		Sessions: sessionSvc,
		Modules:  moduleSvc,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		lg.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("forced shutdown", "error", err)
	}
	lg.Info("server exited")
}
