package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/smart-grading/grading-service/internal/cache"
	"github.com/smart-grading/grading-service/internal/repositories"
)

// invalidateFunc schedules a cache invalidation. Outside a transaction it
// runs fn immediately; inside one it is queued until the transaction commits,
// so a concurrent reader cannot repopulate the cache with pre-commit data.
type invalidateFunc func(ctx context.Context, fn func(context.Context))

func runNow(ctx context.Context, fn func(context.Context)) { fn(ctx) }

// txInvalidations collects invalidations issued during a transaction.
type txInvalidations struct {
	mu      sync.Mutex
	pending []func(context.Context)
}

func (q *txInvalidations) add(ctx context.Context, fn func(context.Context)) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// flush runs and clears the queued invalidations, in issue order.
func (q *txInvalidations) flush(ctx context.Context) {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range pending {
		fn(ctx)
	}
}

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	user       repositories.UserRepository
	assignment repositories.AssignmentRepository
	question   repositories.QuestionRepository
	submission repositories.SubmissionRepository
	answer     repositories.AnswerRepository
	analytics  repositories.AnalyticsRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}
	repo.initSubRepositories(config.DB, runNow)

	return repo
}

func (r *PostgreSQLRepository) initSubRepositories(db *gorm.DB, invalidate invalidateFunc) {
	r.user = NewUserPostgreSQL(db)
	r.assignment = NewAssignmentPostgreSQL(db, r.cacheManager, invalidate)
	r.question = NewQuestionPostgreSQL(db)
	r.submission = NewSubmissionPostgreSQL(db, r.cacheManager, invalidate)
	r.answer = NewAnswerPostgreSQL(db, r.cacheManager, invalidate)
	r.analytics = NewAnalyticsPostgreSQL(db, r.cacheManager)
}

func (r *PostgreSQLRepository) User() repositories.UserRepository { return r.user }

func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository { return r.assignment }

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }

func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository { return r.submission }

func (r *PostgreSQLRepository) Answer() repositories.AnswerRepository { return r.answer }

func (r *PostgreSQLRepository) Analytics() repositories.AnalyticsRepository { return r.analytics }

// WithTransaction executes fn against a transaction-scoped Repository; the
// whole unit commits or rolls back together. Cache invalidations issued by
// fn run only after a successful commit.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	queue := &txInvalidations{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}
		txRepo.initSubRepositories(tx, queue.add)
		return fn(txRepo)
	})
	if err != nil {
		return err
	}

	queue.flush(ctx)
	return nil
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	return nil
}

// Close closes database and cache connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	if r.redisClient != nil {
		return r.redisClient.Close()
	}
	return nil
}

// ===== REPOSITORY MANAGER =====

type repositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a manager that owns the repository lifecycle
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &repositoryManager{config: config}
}

func (m *repositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	m.repo = NewPostgreSQLRepository(m.config)
	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repositories not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
