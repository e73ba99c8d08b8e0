package repositories

import "context"

// Repository aggregates the entity repositories behind one unit of work
type Repository interface {
	User() UserRepository
	RoleRequest() RoleRequestRepository

	Course() CourseRepository
	Section() SectionRepository
	Membership() MembershipRepository

	CourseEvent() CourseEventRepository
	Message() MessageRepository

	// WithTransaction runs fn against a repository bound to a single
	// database transaction. Returning an error from fn rolls back every
	// write made through the transactional repository.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error

	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error

	GetRepository() Repository

	HealthCheck(ctx context.Context) error

	Shutdown(ctx context.Context) error
}
