package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lwatty24/fortniteshop.site/internal/client"
	"github.com/lwatty24/fortniteshop.site/internal/config"
	"github.com/lwatty24/fortniteshop.site/internal/email"
	"github.com/lwatty24/fortniteshop.site/internal/history"
	"github.com/lwatty24/fortniteshop.site/internal/notify"
	"github.com/lwatty24/fortniteshop.site/internal/queue"
	"github.com/lwatty24/fortniteshop.site/internal/repository"
	"github.com/lwatty24/fortniteshop.site/internal/search"
	"github.com/lwatty24/fortniteshop.site/internal/server"
	"github.com/lwatty24/fortniteshop.site/internal/service"
	"github.com/lwatty24/fortniteshop.site/internal/state"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Client       client.FortniteClient
	Repository   repository.DocumentRepository
	Queue        queue.Queue
	StateManager state.StateManager
	History      history.Store

	Service *service.Service
	Server  *server.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	clk := clock.New()

	db, err := pgxpool.New(context.Background(),
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, err
	}
	container.db = db

	documents := repository.NewDocumentRepository(db, clk)
	if err := documents.EnsureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	container.Repository = documents

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	// Test connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb

	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(rdb, cfg.Redis)
	if err != nil {
		return nil, err
	}
	container.Queue = redisQueue

	stateManager := state.NewRedisStateManager(rdb)
	container.StateManager = stateManager

	historyStore := history.NewRedisStore(rdb, clk, cfg.History.MaxDays)
	container.History = historyStore

	fortniteClient := client.NewFortniteClient(cfg.Fortnite, clk)
	container.Client = fortniteClient

	searcher := search.NewService(
		fortniteClient,
		clk,
		time.Duration(cfg.Search.CacheTTLMinutes)*time.Minute,
		time.Duration(cfg.Fortnite.SearchTimeout)*time.Second,
		cfg.Search.MaxResults,
	)

	svc := service.NewService(
		fortniteClient,
		searcher,
		historyStore,
		stateManager,
		documents,
		notify.NewDispatcher(),
		redisQueue,
		email.NewResendSender(cfg.Email),
		clk,
		cfg.Redis.ConsumerGroup,
		time.Duration(cfg.Redis.MinIdleTime)*time.Second,
		time.Duration(cfg.Fortnite.RefreshInterval)*time.Minute,
	)
	container.Service = svc

	container.Server = server.New(cfg.Server, cfg.Notifications, svc, documents, clk)

	return container, nil
}

// Run serves HTTP, refreshes the shop on its interval and processes email
// tasks until the context is cancelled or one of them fails.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.Run(ctx)
	})

	g.Go(func() error {
		return c.Service.RunRefreshLoop(ctx)
	})

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Fortnite.MaxWorkers)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	c.redis.Close()

	log.Info("Container shut down successfully")
	return nil
}
