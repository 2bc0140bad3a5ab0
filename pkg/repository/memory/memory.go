package memory

import (
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory repository for development and tests.
// Vector search is a brute-force cosine scan, adequate for small corpora.
type Memory struct {
	cases       *caseRepository
	assignments *assignmentRepository
	articles    *articleRepository
	cursor      *cursorRepository
	vectors     *vectorIndex
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		cases:       newCaseRepository(),
		assignments: newAssignmentRepository(),
		articles:    newArticleRepository(),
		cursor:      newCursorRepository(),
		vectors:     newVectorIndex(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.cases
}

func (m *Memory) Assignment() interfaces.AssignmentRepository {
	return m.assignments
}

func (m *Memory) Article() interfaces.ArticleRepository {
	return m.articles
}

func (m *Memory) Cursor() interfaces.CursorRepository {
	return m.cursor
}

func (m *Memory) Vector() interfaces.VectorIndex {
	return m.vectors
}

func (m *Memory) Close() error {
	return nil
}
