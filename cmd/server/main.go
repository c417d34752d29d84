package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"campusrides/internal/config"
	"campusrides/internal/observability"
	"campusrides/internal/repositories/interfaces"
	"campusrides/pkg/auth"
	"campusrides/pkg/cache"
	"campusrides/pkg/database"
	"campusrides/pkg/events"
	"campusrides/pkg/logger"
	"campusrides/pkg/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// New Relic first so the redis client can be instrumented.
	nrApp, err := observability.NewRelicApp(cfg.Observability.NewRelicAppName, cfg.Observability.NewRelicLicense, cfg.Observability.NewRelicLogForward)
	if err != nil {
		appLogger.WithError(err).Warn("Failed to initialize New Relic")
		nrApp = nil
	} else if nrApp != nil {
		appLogger.WithField("app", cfg.Observability.NewRelicAppName).Info("New Relic enabled")
		defer nrApp.Shutdown(5 * time.Second)
	}

	mongo, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:              cfg.Database.URI,
		Database:         cfg.Database.Database,
		MaxPoolSize:      cfg.Database.MaxPoolSize,
		MinPoolSize:      cfg.Database.MinPoolSize,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		SocketTimeout:    cfg.Database.SocketTimeout,
		TransactionLimit: cfg.Database.TransactionLimit,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongo.Close()
	appLogger.WithField("database", cfg.Database.Database).Info("Connected to MongoDB")

	if cfg.Database.MigrateOnStart {
		if err := database.NewMigrator(mongo.Database, appLogger).Up(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(ctx, &cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		if nrApp != nil {
			redisCache.Client().AddHook(observability.RedisHook{})
		}
		appLogger.Info("Connected to Redis")
	} else {
		appLogger.Warn("Redis disabled; caching, idempotency and cross-instance live events are off")
	}

	var firebaseApp *firebase.App
	if needsFirebase(cfg) {
		firebaseApp, err = auth.NewFirebaseApp(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentials)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Firebase")
		}
	}

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize event publisher")
	}
	defer publisher.Close()

	infra := &infrastructure{
		mongo:       mongo,
		redis:       redisCache,
		firebaseApp: firebaseApp,
		publisher:   publisher,
		nrApp:       nrApp,
	}
	app, err := wireServer(ctx, cfg, infra, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to wire server")
	}
	for _, c := range app.closers {
		defer c.Close()
	}

	go app.hub.Run(ctx)

	go func() {
		appLogger.WithField("addr", app.server.Addr).Info("Starting server")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Error("Server error")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	app.hub.Stop()
	app.dispatcher.Wait()

	appLogger.Info("Server exited")
}

// infrastructure holds the connections opened by main before wiring.
type infrastructure struct {
	mongo       *database.MongoDB
	redis       *cache.RedisCache
	firebaseApp *firebase.App
	publisher   events.Publisher
	nrApp       *newrelic.Application
}

// cache returns redis as an interfaces.Cache, or a nil interface when redis
// is disabled.
func (i *infrastructure) cache() interfaces.Cache {
	if i.redis == nil {
		return nil
	}
	return i.redis
}

func (i *infrastructure) relay(channel string) websocket.Relay {
	if i.redis == nil {
		return nil
	}
	return websocket.NewRedisRelay(i.redis.Client(), channel)
}
