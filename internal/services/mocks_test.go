package services

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/exam-platform/grading-service/internal/models"
	"github.com/exam-platform/grading-service/internal/repositories"
)

// ===== MOCK REPOSITORIES =====

type pairKey struct {
	studentID uint
	pageID    uint
}

type mockQuestionRepo struct {
	mu        sync.Mutex
	questions map[uint]*models.Question
	pages     map[uint][]uint
}

func newMockQuestionRepo() *mockQuestionRepo {
	return &mockQuestionRepo{
		questions: make(map[uint]*models.Question),
		pages:     make(map[uint][]uint),
	}
}

func (m *mockQuestionRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (m *mockQuestionRepo) GetIDsForPage(_ context.Context, _ *gorm.DB, pageID uint) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint(nil), m.pages[pageID]...), nil
}

type mockAnswerRepo struct {
	mu      sync.Mutex
	answers map[pairKey][]*models.StudentAnswer

	createBatchErr error

	// existsOverride simulates a stale existence read racing a concurrent
	// delivery's committed insert.
	existsOverride *bool
}

func newMockAnswerRepo() *mockAnswerRepo {
	return &mockAnswerRepo{
		answers: make(map[pairKey][]*models.StudentAnswer),
	}
}

func (m *mockAnswerRepo) GetByStudentAndPage(_ context.Context, _ *gorm.DB, studentID, pageID uint) ([]*models.StudentAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.StudentAnswer(nil), m.answers[pairKey{studentID, pageID}]...), nil
}

func (m *mockAnswerRepo) ExistsForStudentAndPage(_ context.Context, _ *gorm.DB, studentID, pageID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsOverride != nil {
		return *m.existsOverride, nil
	}
	return len(m.answers[pairKey{studentID, pageID}]) > 0, nil
}

func (m *mockAnswerRepo) CreateBatch(_ context.Context, _ *gorm.DB, answers []*models.StudentAnswer) error {
	if m.createBatchErr != nil {
		return m.createBatchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range answers {
		key := pairKey{a.StudentID, a.PageID}
		m.answers[key] = append(m.answers[key], a)
	}
	return nil
}

type mockScoreRepo struct {
	mu     sync.Mutex
	scores map[pairKey]*models.StudentScore

	createErr error
}

func newMockScoreRepo() *mockScoreRepo {
	return &mockScoreRepo{
		scores: make(map[pairKey]*models.StudentScore),
	}
}

func (m *mockScoreRepo) GetByStudentAndPage(_ context.Context, _ *gorm.DB, studentID, pageID uint) (*models.StudentScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.scores[pairKey{studentID, pageID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return score, nil
}

func (m *mockScoreRepo) Create(_ context.Context, _ *gorm.DB, score *models.StudentScore) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{score.StudentID, score.PageID}
	if _, exists := m.scores[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	m.scores[key] = score
	return nil
}

func (m *mockScoreRepo) GetPairsMissingAggregate(_ context.Context, _ *gorm.DB, _ int) ([]repositories.StudentPagePair, error) {
	return nil, nil
}

type mockRepository struct {
	question *mockQuestionRepo
	answer   *mockAnswerRepo
	score    *mockScoreRepo

	missingPairs []repositories.StudentPagePair
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		question: newMockQuestionRepo(),
		answer:   newMockAnswerRepo(),
		score:    newMockScoreRepo(),
	}
}

func (m *mockRepository) Question() repositories.QuestionRepository { return m.question }
func (m *mockRepository) Answer() repositories.AnswerRepository     { return m.answer }

func (m *mockRepository) Score() repositories.ScoreRepository {
	return &mockScoreRepoWithPairs{mockScoreRepo: m.score, pairs: m.missingPairs}
}

func (m *mockRepository) WithTransaction(_ context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(_ context.Context) error { return nil }
func (m *mockRepository) Close() error                 { return nil }

// mockScoreRepoWithPairs lets a test inject the sweep result.
type mockScoreRepoWithPairs struct {
	*mockScoreRepo
	pairs []repositories.StudentPagePair
}

func (m *mockScoreRepoWithPairs) GetPairsMissingAggregate(_ context.Context, _ *gorm.DB, _ int) ([]repositories.StudentPagePair, error) {
	return m.pairs, nil
}

// ===== MOCK CLAIMER =====

type mockClaimer struct {
	mu       sync.Mutex
	held     map[string]bool
	denyAll  bool
	acquired []string
	released []string
}

func newMockClaimer() *mockClaimer {
	return &mockClaimer{held: make(map[string]bool)}
}

func (m *mockClaimer) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyAll || m.held[key] {
		return false, nil
	}
	m.held[key] = true
	m.acquired = append(m.acquired, key)
	return true, nil
}

func (m *mockClaimer) Release(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	m.released = append(m.released, key)
}

// ===== MOCK ORACLE =====

type mockOracle struct {
	similarity float64
	err        error
}

func (m *mockOracle) Similarity(_ context.Context, a, b string) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if a == b {
		return 1.0, nil
	}
	return m.similarity, nil
}

// ===== MOCK PUBLISHER =====

type mockPublisher struct {
	mu     sync.Mutex
	events []*GradingCompletedEvent
	err    error
}

func (m *mockPublisher) PublishGradingCompleted(_ context.Context, event *GradingCompletedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) published() []*GradingCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*GradingCompletedEvent(nil), m.events...)
}

// seedPair puts answer records directly into the mock store, as if a previous
// run committed them.
func seedPair(repo *mockRepository, studentID, pageID uint, scores map[uint]float64) {
	for questionID, score := range scores {
		repo.answer.answers[pairKey{studentID, pageID}] = append(
			repo.answer.answers[pairKey{studentID, pageID}],
			&models.StudentAnswer{
				StudentID:  studentID,
				PageID:     pageID,
				QuestionID: questionID,
				Answer:     fmt.Sprintf("answer-%d", questionID),
				Score:      score,
			})
	}
}
