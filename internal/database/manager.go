package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database connection manager
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager creates a new database manager with connection pooling
func NewManager(config *Config, log *logrus.Logger) (*Manager, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if config.LogLevel == "debug" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// Open database connection with pooling
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true, // Cache prepared statements
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 5
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute

	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Database and Redis connections established successfully")

	return &Manager{
		DB:     db,
		Redis:  redisClient,
		logger: log,
	}, nil
}

// Migrate runs database migrations
func (m *Manager) Migrate() error {
	m.logger.Info("Running database migrations...")

	return m.DB.AutoMigrate(
		&models.Project{},
		&models.FeedbackForm{},
		&models.PathPattern{},
		&models.Prompt{},
		&models.PromptOption{},
		&models.Response{},
		&models.PromptResponse{},
		&models.APIAccess{},
	)
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (m *Manager) PingRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Redis.Ping(ctx).Err()
}

// Cache implementation
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	ResolvedFormKey = "resolve:form:%s:%s"
	FormDetailKey   = "form:detail:%s"
)

func resolvedFormCacheKey(projectID, path string) string {
	// Paths can contain arbitrary segments; hash them into the key
	return fmt.Sprintf(ResolvedFormKey, projectID, utils.MD5Hash(path))
}

// CacheResolvedForm caches the winning form detail for a project/path pair
func (c *Cache) CacheResolvedForm(ctx context.Context, projectID, path string, detail interface{}, expiration time.Duration) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal resolved form: %w", err)
	}

	return c.client.Set(ctx, resolvedFormCacheKey(projectID, path), data, expiration).Err()
}

// GetCachedResolvedForm retrieves a cached resolution result. The boolean
// reports a cache hit; a miss is not an error.
func (c *Cache) GetCachedResolvedForm(ctx context.Context, projectID, path string, result interface{}) (bool, error) {
	data, err := c.client.Get(ctx, resolvedFormCacheKey(projectID, path)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return false, err
	}
	return true, nil
}

// CacheFormDetail caches a single form detail
func (c *Cache) CacheFormDetail(ctx context.Context, formID string, detail interface{}, expiration time.Duration) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal form detail: %w", err)
	}

	return c.client.Set(ctx, fmt.Sprintf(FormDetailKey, formID), data, expiration).Err()
}

// GetCachedFormDetail retrieves a cached form detail
func (c *Cache) GetCachedFormDetail(ctx context.Context, formID string, result interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(FormDetailKey, formID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return false, err
	}
	return true, nil
}

// ClearAllCache drops every cached entry. Form configuration only changes
// through seeding, which flushes here so stale resolutions do not survive.
func (c *Cache) ClearAllCache(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}
