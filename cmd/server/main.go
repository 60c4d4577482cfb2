package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskhub/internal/config"
	"taskhub/internal/gateway"
	"taskhub/internal/handler"
	"taskhub/internal/httpserver"
	"taskhub/internal/model"
	"taskhub/internal/notify"
	"taskhub/internal/repository"
	"taskhub/internal/service/workspace"
	"taskhub/internal/session"
	"taskhub/pkg/circuitbreaker"
	"taskhub/pkg/db"
	"taskhub/pkg/logger"
	"taskhub/pkg/mq"
	"taskhub/pkg/otel"
	"taskhub/pkg/redis"
)

func main() {
	configDir := flag.String("config", "config", "directory holding base.yaml and env overlays")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(cfg.Otel, log)
	if err != nil {
		log.Fatal("OpenTelemetry initialization failed", zap.Error(err))
	}
	defer shutdownTracing()

	client, err := gateway.New(cfg.Gateway, log)
	if err != nil {
		log.Fatal("Gateway client initialization failed", zap.Error(err))
	}

	var readyChecks []func(context.Context) error
	readyChecks = append(readyChecks, func(context.Context) error {
		if client.BreakerState() == circuitbreaker.StateOpen {
			return circuitbreaker.ErrOpen
		}
		return nil
	})

	// Sessions: Redis when configured, otherwise in-process
	var store session.Store = session.NewMemoryStore()
	if cfg.Redis.Enabled {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
		readyChecks = append(readyChecks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// Notifications: Postgres feed when configured, otherwise log only
	var (
		notifier notify.Notifier = notify.NewLogNotifier(log)
		feed     notify.Feed
		marker   notify.Marker
	)
	if cfg.DB.Enabled {
		pool, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("DB initialization failed", zap.Error(err))
		}
		defer pool.Close()
		repo := repository.NewNotificationRepository(pool, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal("Notification schema setup failed", zap.Error(err))
		}
		notifier = notify.NewStoreNotifier(repo, log)
		feed, marker = repo, repo
		readyChecks = append(readyChecks, pool.Ping)
	}

	// Activity events
	var publisher workspace.Publisher
	if cfg.MQ.Enabled {
		pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
		readyChecks = append(readyChecks, func(context.Context) error {
			if !pub.IsConnected() {
				return errors.New("mq publisher disconnected")
			}
			return nil
		})
	}

	sessions := func(token string) *session.Session {
		return session.New(store, session.Key(token), cfg.Session.TTL, func(ctx context.Context, tok string) (model.User, error) {
			return client.WithToken(tok).GetProfile(ctx)
		}, log)
	}
	deps := workspace.Deps{Publisher: publisher, Notifier: notifier, Logger: log}

	router := httpserver.NewRouter(httpserver.Deps{
		Auth:          handler.NewAuthHandler(client, sessions, deps),
		Views:         handler.NewViewHandler(cfg.Aggregator, notifier, log),
		Writes:        handler.NewWriteHandler(deps),
		Notifications: handler.NewNotificationHandler(feed, marker, log),
		Sessions:      sessions,
		Connect:       func(token string) handler.Gateway { return client.WithToken(token) },
		Ready: func(ctx context.Context) error {
			for _, check := range readyChecks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Logger: log,
	})

	log.Info("Starting taskhub server",
		zap.String("port", cfg.Server.Port),
		zap.String("gateway", cfg.Gateway.BaseURL),
	)
	srv := httpserver.NewServer(cfg.Server.Port, router, cfg.Server.ShutdownTimeout, log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
