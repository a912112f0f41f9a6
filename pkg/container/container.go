package container

import (
	"context"
	"fmt"
	"log"

	"bbm-backend/internal/config"
	infraCache "bbm-backend/internal/infrastructure/cache"
	"bbm-backend/internal/infrastructure/database"
	"bbm-backend/pkg/cache"
	"bbm-backend/pkg/jwt"

	orderRepo "bbm-backend/internal/domains/order/repository"
	returnHandler "bbm-backend/internal/domains/returns/handler"
	returnRepo "bbm-backend/internal/domains/returns/repository"
	returnService "bbm-backend/internal/domains/returns/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every application dependency. It is the root of the
// dependency graph; everything below it is a singleton for the process
// lifetime.
type Container struct {
	// Infrastructure layer, shared across all domains.
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *infraCache.RedisClient
	Cache      cache.Cache
	JWTManager *jwt.Manager

	// Repository layer (data access).
	OrderRepo  orderRepo.OrderRepository
	ReturnRepo returnRepo.ReturnRepository

	// Service layer (business logic).
	ReturnService returnService.ReturnService

	// Handler layer (HTTP).
	ReturnHandler *returnHandler.ReturnHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer initializes the full dependency graph. Order matters:
// config, then infrastructure, then repositories, services, handlers.
func NewContainer(ctx context.Context) (*Container, error) {
	log.Println("[CONTAINER] Initializing dependencies...")

	c := &Container{}

	// Step 1: Configuration.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("[CONTAINER] Config loaded (environment: %s)", cfg.App.Environment)

	// Step 2: PostgreSQL.
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	c.DB = database.NewPostgresDB(dbConfig)
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Step 3: Redis.
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		c.DB.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = c.Redis

	// Step 4: JWT manager.
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// Step 5: Repositories.
	c.OrderRepo = orderRepo.NewPostgresOrderRepository(c.DB.Pool)
	c.ReturnRepo = returnRepo.NewPostgresReturnRepository(c.DB.Pool)

	// Step 6: Services.
	c.ReturnService = returnService.NewReturnService(
		c.OrderRepo,
		c.ReturnRepo,
		returnService.NewRefundCalculator(),
		c.Cache,
	)

	// Step 7: Handlers.
	c.ReturnHandler = returnHandler.NewReturnHandler(c.ReturnService)

	log.Println("[CONTAINER] All dependencies initialized")
	return c, nil
}

// Close releases infrastructure resources in reverse order.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("[CONTAINER] Failed to close redis client: %v", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
