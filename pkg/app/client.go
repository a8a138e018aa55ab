package app

import (
	"afribook/internal/bookings/service"
	"afribook/internal/bookings/validator"
	"afribook/pkg/client"
	"afribook/pkg/config"
	"afribook/pkg/events"
	"afribook/pkg/metrics"
	"afribook/pkg/sealer"
	"afribook/pkg/session"
	"afribook/pkg/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const memorySweepInterval = time.Minute

// Client is the wired agent client: one session over one gateway.
type Client struct {
	Config    *config.Config
	Metrics   *metrics.Metrics
	Store     storage.Store
	Publisher events.Publisher
	Gateway   *client.Gateway
	API       *client.AgentAPI
	Session   *session.Manager
	Bookings  service.BookingService
}

// NewClient builds the client from configuration. The session is not
// initialized; callers run Session.Initialize when they are ready.
func NewClient(ctx context.Context, cfg *config.Config, nav session.Navigator, reg prometheus.Registerer) (*Client, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	baseURL := client.ResolveBaseURL(cfg.APIBaseURL, cfg.Hostname())
	gateway := client.NewGateway(baseURL, store,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(cfg.Log),
		client.WithMetrics(m),
	)
	api := client.NewAgentAPI(gateway)

	sess := session.New(api, store, nav, cfg.Log,
		session.WithMetrics(m),
		session.WithPublisher(publisher),
		session.WithTTL(cfg.Session.TTL),
	)
	gateway.OnUnauthorized(sess.HandleUnauthorized)

	bookings := service.NewBookingService(
		api,
		sess,
		validator.NewBookingValidator(cfg.Log),
		cfg,
		m,
		publisher,
	)

	cfg.Log.Debug("Agent client ready",
		"base_url", baseURL,
		"session_store", cfg.Session.Store,
	)

	return &Client{
		Config:    cfg,
		Metrics:   m,
		Store:     store,
		Publisher: publisher,
		Gateway:   gateway,
		API:       api,
		Session:   sess,
		Bookings:  bookings,
	}, nil
}

func (c *Client) Close() error {
	return errors.Join(c.Publisher.Close(), c.Store.Close())
}

// OpenStore opens the session storage backend named by SESSION_STORE,
// sealing values when SESSION_SEAL_KEY is set.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	store, err := openBackend(ctx, cfg)
	if err != nil || cfg.Session.SealKey == "" {
		return store, err
	}

	s, err := sealer.New(cfg.Session.SealKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return storage.NewSealedStore(store, s), nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Session.Store {
	case config.StoreMemory:
		return storage.NewMemoryStore(memorySweepInterval), nil

	case config.StoreFile:
		return storage.NewFileStore(cfg.Session.File)

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
		}
		cfg.Log.Info("Successfully connected to Redis", "addr", cfg.Redis.Addr)
		return storage.NewRedisStore(rdb, cfg.Redis.Prefix), nil

	case config.StoreMongo:
		mc, err := storage.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.ConnTimeout)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewMongoStore(ctx, mc, cfg.Mongo.DatabaseName, cfg.Mongo.Collection)
		if err != nil {
			_ = mc.Disconnect(context.Background())
			return nil, err
		}
		cfg.Log.Info("Successfully connected to MongoDB", "database", cfg.Mongo.DatabaseName)
		return store, nil
	}

	return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg *config.Config) (events.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NopPublisher{}, nil
	}
	publisher, err := events.NewKafkaPublisher(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	cfg.Log.Info("Publishing agent events to Kafka", "topic", cfg.Kafka.Topic)
	return publisher, nil
}
