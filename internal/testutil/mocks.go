// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the gallery-twin application.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gallery-twin/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockSessionRepository implements domain.SessionRepository for testing
type MockSessionRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc        func(ctx context.Context, session *domain.Session) error
	GetByUUIDFunc     func(ctx context.Context, uuid string) (*domain.Session, error)
	TouchFunc         func(ctx context.Context, id int64, at time.Time) error
	MarkCompletedFunc func(ctx context.Context, id int64) error

	// In-memory storage for simple tests
	Sessions map[int64]*domain.Session
	nextID   int64
}

// NewMockSessionRepository creates a new MockSessionRepository with initialized maps
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{Sessions: make(map[int64]*domain.Session)}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	session.ID = m.nextID
	m.Sessions[session.ID] = session
	return nil
}

func (m *MockSessionRepository) GetByUUID(ctx context.Context, uuid string) (*domain.Session, error) {
	if m.GetByUUIDFunc != nil {
		return m.GetByUUIDFunc(ctx, uuid)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.Sessions {
		if session.UUID == uuid {
			copied := *session
			return &copied, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.Sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.LastActivityAt = at
	return nil
}

func (m *MockSessionRepository) MarkCompleted(ctx context.Context, id int64) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.Sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Completed = true
	return nil
}

// MockEventRepository implements domain.EventRepository for testing
type MockEventRepository struct {
	mu sync.RWMutex

	CreateFunc        func(ctx context.Context, event *domain.Event) error
	ListBySessionFunc func(ctx context.Context, sessionID int64, exhibitID *int64) ([]*domain.Event, error)

	Events []*domain.Event
	nextID int64
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{}
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	event.ID = m.nextID
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockEventRepository) ListBySession(ctx context.Context, sessionID int64, exhibitID *int64) ([]*domain.Event, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID, exhibitID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*domain.Event{}
	for _, event := range m.Events {
		if event.SessionID != sessionID {
			continue
		}
		if exhibitID != nil && (event.ExhibitID == nil || *event.ExhibitID != *exhibitID) {
			continue
		}
		result = append(result, event)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// MockAnswerRepository implements domain.AnswerRepository for testing
type MockAnswerRepository struct {
	mu sync.RWMutex

	UpsertFunc        func(ctx context.Context, answer *domain.Answer) error
	UpsertAllFunc     func(ctx context.Context, answers []*domain.Answer) error
	ListBySessionFunc func(ctx context.Context, sessionID int64) ([]*domain.Answer, error)

	Answers map[[2]int64]*domain.Answer // (sessionID, questionID) -> answer
	nextID  int64
}

func NewMockAnswerRepository() *MockAnswerRepository {
	return &MockAnswerRepository{Answers: make(map[[2]int64]*domain.Answer)}
}

func (m *MockAnswerRepository) Upsert(ctx context.Context, answer *domain.Answer) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, answer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertLocked(answer)
}

func (m *MockAnswerRepository) UpsertAll(ctx context.Context, answers []*domain.Answer) error {
	if m.UpsertAllFunc != nil {
		return m.UpsertAllFunc(ctx, answers)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, answer := range answers {
		if err := m.upsertLocked(answer); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockAnswerRepository) upsertLocked(answer *domain.Answer) error {
	key := [2]int64{answer.SessionID, answer.QuestionID}
	if existing, ok := m.Answers[key]; ok {
		existing.ValueText = answer.ValueText
		existing.ValueJSON = answer.ValueJSON
		answer.ID = existing.ID
		answer.CreatedAt = existing.CreatedAt
		return nil
	}
	m.nextID++
	answer.ID = m.nextID
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	copied := *answer
	m.Answers[key] = &copied
	return nil
}

func (m *MockAnswerRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Answer, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*domain.Answer{}
	for _, answer := range m.Answers {
		if answer.SessionID == sessionID {
			result = append(result, answer)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].QuestionID < result[j].QuestionID })
	return result, nil
}

// MockExhibitRepository implements domain.ExhibitRepository for testing
type MockExhibitRepository struct {
	GetByIDFunc   func(ctx context.Context, id int64) (*domain.Exhibit, error)
	GetBySlugFunc func(ctx context.Context, slug string) (*domain.Exhibit, error)
	ListFunc      func(ctx context.Context) ([]*domain.Exhibit, error)
	NeighborsFunc func(ctx context.Context, orderIndex int) (string, string, error)

	Exhibits []*domain.Exhibit
}

func NewMockExhibitRepository(exhibits ...*domain.Exhibit) *MockExhibitRepository {
	return &MockExhibitRepository{Exhibits: exhibits}
}

func (m *MockExhibitRepository) GetByID(ctx context.Context, id int64) (*domain.Exhibit, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	for _, exhibit := range m.Exhibits {
		if exhibit.ID == id {
			return exhibit, nil
		}
	}
	return nil, domain.ErrExhibitNotFound
}

func (m *MockExhibitRepository) GetBySlug(ctx context.Context, slug string) (*domain.Exhibit, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	for _, exhibit := range m.Exhibits {
		if exhibit.Slug == slug {
			return exhibit, nil
		}
	}
	return nil, domain.ErrExhibitNotFound
}

func (m *MockExhibitRepository) List(ctx context.Context) ([]*domain.Exhibit, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	sorted := append([]*domain.Exhibit{}, m.Exhibits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })
	return sorted, nil
}

func (m *MockExhibitRepository) Neighbors(ctx context.Context, orderIndex int) (string, string, error) {
	if m.NeighborsFunc != nil {
		return m.NeighborsFunc(ctx, orderIndex)
	}
	prev, next := "", ""
	prevIdx, nextIdx := -1, -1
	for _, exhibit := range m.Exhibits {
		if exhibit.OrderIndex < orderIndex && exhibit.OrderIndex > prevIdx {
			prev, prevIdx = exhibit.Slug, exhibit.OrderIndex
		}
		if exhibit.OrderIndex > orderIndex && (nextIdx == -1 || exhibit.OrderIndex < nextIdx) {
			next, nextIdx = exhibit.Slug, exhibit.OrderIndex
		}
	}
	return prev, next, nil
}

// MockQuestionRepository implements domain.QuestionRepository for testing
type MockQuestionRepository struct {
	GetByIDFunc       func(ctx context.Context, id int64) (*domain.Question, error)
	ListByExhibitFunc func(ctx context.Context, exhibitID int64) ([]*domain.Question, error)
	ListGlobalFunc    func(ctx context.Context) ([]*domain.Question, error)

	Questions []*domain.Question
}

func NewMockQuestionRepository(questions ...*domain.Question) *MockQuestionRepository {
	return &MockQuestionRepository{Questions: questions}
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	for _, question := range m.Questions {
		if question.ID == id {
			return question, nil
		}
	}
	return nil, domain.ErrQuestionNotFound
}

func (m *MockQuestionRepository) ListByExhibit(ctx context.Context, exhibitID int64) ([]*domain.Question, error) {
	if m.ListByExhibitFunc != nil {
		return m.ListByExhibitFunc(ctx, exhibitID)
	}
	result := []*domain.Question{}
	for _, question := range m.Questions {
		if question.ExhibitID != nil && *question.ExhibitID == exhibitID {
			result = append(result, question)
		}
	}
	return result, nil
}

func (m *MockQuestionRepository) ListGlobal(ctx context.Context) ([]*domain.Question, error) {
	if m.ListGlobalFunc != nil {
		return m.ListGlobalFunc(ctx)
	}
	result := []*domain.Question{}
	for _, question := range m.Questions {
		if question.ExhibitID == nil {
			result = append(result, question)
		}
	}
	return result, nil
}

// MockAnalyticsRepository implements domain.AnalyticsRepository for testing
type MockAnalyticsRepository struct {
	CountSessionsFunc          func(ctx context.Context, window domain.TimeWindow) (int64, error)
	CountCompletedSessionsFunc func(ctx context.Context, window domain.TimeWindow) (int64, error)
	ListViewEventsFunc         func(ctx context.Context) ([]domain.ViewEvent, error)
	ListAnswerValuesFunc       func(ctx context.Context, category domain.QuestionCategory) ([]domain.AnswerValue, error)
	ListResponsesFunc          func(ctx context.Context, filter domain.ResponseFilter) ([]domain.ResponseRecord, error)

	Sessions     int64
	Completed    int64
	ViewEvents   []domain.ViewEvent
	AnswerValues map[domain.QuestionCategory][]domain.AnswerValue
	Responses    []domain.ResponseRecord
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{AnswerValues: make(map[domain.QuestionCategory][]domain.AnswerValue)}
}

func (m *MockAnalyticsRepository) CountSessions(ctx context.Context, window domain.TimeWindow) (int64, error) {
	if m.CountSessionsFunc != nil {
		return m.CountSessionsFunc(ctx, window)
	}
	return m.Sessions, nil
}

func (m *MockAnalyticsRepository) CountCompletedSessions(ctx context.Context, window domain.TimeWindow) (int64, error) {
	if m.CountCompletedSessionsFunc != nil {
		return m.CountCompletedSessionsFunc(ctx, window)
	}
	return m.Completed, nil
}

func (m *MockAnalyticsRepository) ListViewEvents(ctx context.Context) ([]domain.ViewEvent, error) {
	if m.ListViewEventsFunc != nil {
		return m.ListViewEventsFunc(ctx)
	}
	return m.ViewEvents, nil
}

func (m *MockAnalyticsRepository) ListAnswerValues(ctx context.Context, category domain.QuestionCategory) ([]domain.AnswerValue, error) {
	if m.ListAnswerValuesFunc != nil {
		return m.ListAnswerValuesFunc(ctx, category)
	}
	return m.AnswerValues[category], nil
}

func (m *MockAnalyticsRepository) ListResponses(ctx context.Context, filter domain.ResponseFilter) ([]domain.ResponseRecord, error) {
	if m.ListResponsesFunc != nil {
		return m.ListResponsesFunc(ctx, filter)
	}
	return m.Responses, nil
}
