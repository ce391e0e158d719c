// The purge command runs one retention-purge pass and exits. Schedule it
// with cron or a Kubernetes CronJob.
package main

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sectrain/config"
	"sectrain/internal/repository"
	"sectrain/internal/service"
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		lg.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(ctx)

	store := repository.NewStore(mongoClient, cfg.MongoDatabase)
	sessionRepo := repository.NewSessionRepo(store)
	moduleRepo := repository.NewModuleRepo(store)
	policies := service.NewConfigPolicyProvider(cfg)
	m := metrics.New(prometheus.NewRegistry())

	purge := service.NewPurgeService(sessionRepo, moduleRepo, policies, cfg.PurgeBatchSize, lg, m)
	if err := purge.Run(ctx); err != nil {
		lg.Fatal("purge run failed", "error", err)
	}
	lg.Info("purge run complete")
}
