package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/codegen"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

const (
	consumerGroupName = "shortlink-events"
	migrateTimeout    = 10 * time.Second
)

// RedisClient wraps the redis client so the injector closes it on shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool wraps the pgx pool so the injector closes it on shutdown.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// NewLogger builds a zap logger. "json" selects the production encoder, anything else the console one.
func NewLogger(format, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}

		cfg.Level = lvl
	}

	return cfg.Build()
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr:         opts.RedisAddr,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})

		return &RedisClient{Client: client}, nil
	})
}

func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

// StorePackage provides the shortener.Repository selected by Options.Store.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StoreMemory, "":
			return store.NewMemoryStore(), nil
		case StorePostgres:
			pool := do.MustInvoke[*PostgresPool](i)
			pgStore := store.NewPostgresStore(pool.Pool)

			ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
			defer cancel()

			if err := pgStore.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}

			return pgStore, nil
		case StoreSQLite:
			db, err := store.OpenSQLite(opts.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("open sqlite %q: %w", opts.SQLitePath, err)
			}

			return store.NewSQLiteStore(db), nil
		default:
			return nil, fmt.Errorf("unknown store %q", opts.Store)
		}
	})
}

// CachePackage provides the shortener.Cache selected by Options.Cache.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)
		ttl := time.Duration(opts.CacheTTL) * time.Second

		if opts.usesRedisCache() {
			client := do.MustInvoke[*RedisClient](i)
			logger := do.MustInvoke[*zap.Logger](i)

			return store.NewRedisCache(client.Client, ttl, logger.Named("cache")), nil
		}

		switch opts.Cache {
		case CacheMemory:
			return store.NewMemoryCache(ttl), nil
		case CacheNone:
			return store.NewPassthroughCache(), nil
		default:
			return nil, fmt.Errorf("unknown cache %q", opts.Cache)
		}
	})
}

func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.CodeGenerator, error) {
		opts := do.MustInvoke[*Options](i)

		return codegen.New(codegen.Kind(opts.Generator), opts.CodeLength, int64(opts.NodeID))
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Creator, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[shortener.Repository](i)
		generator := do.MustInvoke[shortener.CodeGenerator](i)

		return shortener.NewCreator(repo, generator, opts.PublicBaseURL()), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		repo := do.MustInvoke[shortener.Repository](i)
		cache := do.MustInvoke[shortener.Cache](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return shortener.NewResolver(repo, cache, logger.Named("resolver")), nil
	})
}

// PublisherGroupPackage provides the event publishers. With Options.Events off, events are discarded.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     client.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			messaging.NewZapLoggerAdapter(logger.Named("publisher")),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (events.Publishers, error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.Events {
			return events.DiscardPublishers(), nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return events.NewPublishers(group.Publisher()), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("URL Shortener", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		urlHandler := handlers.NewURLHandler(
			do.MustInvoke[*shortener.Creator](i),
			do.MustInvoke[*shortener.Resolver](i),
			do.MustInvoke[events.Publishers](i),
			logger.Named("http"),
		)
		handlers.RegisterRoutes(api, urlHandler)
		health.RegisterRoutes(api, health.NewHandler(healthCheckers(i), health.DefaultTimeout))

		return api, nil
	})
}

func healthCheckers(i *do.Injector) map[string]health.Checker {
	opts := do.MustInvoke[*Options](i)
	checkers := make(map[string]health.Checker)

	if opts.usesRedisCache() {
		client := do.MustInvoke[*RedisClient](i)
		checkers["cache"] = health.NewRedisChecker(client.Client)
	}

	if checker, ok := do.MustInvoke[shortener.Repository](i).(health.Checker); ok {
		checkers["store"] = checker
	}

	return checkers
}

// ConsumerGroupPackage provides the consumer group reading link events from Redis streams.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client.Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: consumerGroupName,
			},
			messaging.NewZapLoggerAdapter(logger.Named("subscriber")),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		events.RegisterConsumers(group, events.NewLogSink(logger.Named("events")), logger)

		return group, nil
	})
}
