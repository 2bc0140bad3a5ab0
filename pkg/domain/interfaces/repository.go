package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository
	Assignment() AssignmentRepository
	Article() ArticleRepository
	Cursor() CursorRepository
	Vector() VectorIndex

	Close() error
}
