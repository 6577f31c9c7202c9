package repositories

import "context"

// Repository aggregates all sub-repository interfaces
type Repository interface {
	User() UserRepository
	Assignment() AssignmentRepository
	Question() QuestionRepository
	Submission() SubmissionRepository
	Answer() AnswerRepository
	Analytics() AnalyticsRepository

	// WithTransaction runs fn against a transaction-scoped Repository. All
	// writes issued through that Repository commit or roll back as a unit.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
