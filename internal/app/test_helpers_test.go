package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/secondary"
)

// t0 is the start date used by the journey scenarios.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// fastRetry keeps the default attempt count without sleeping.
var fastRetry = RetryPolicy{MaxAttempts: 3}

// ============================================================================
// State repository
// ============================================================================

// Ensure mockStateRepository implements the interface
var _ secondary.StateRepository = (*mockStateRepository)(nil)

// mockStateRepository implements secondary.StateRepository without transactions.
type mockStateRepository struct {
	states         map[string]*secondary.StateRecord
	writes         []string
	getCurrentErr  error
	countErr       error
	createErr      error
	markCurrentErr []error // consumed one per MarkCurrent call
	restoreErr     error
}

func newMockStateRepository(states ...*secondary.StateRecord) *mockStateRepository {
	m := &mockStateRepository{states: make(map[string]*secondary.StateRecord)}
	for _, s := range states {
		copied := *s
		m.states[s.Code] = &copied
	}
	return m
}

func (m *mockStateRepository) sorted() []*secondary.StateRecord {
	result := make([]*secondary.StateRecord, 0, len(m.states))
	for _, s := range m.states {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WeekNumber < result[j].WeekNumber })
	return result
}

func (m *mockStateRepository) GetCurrent(ctx context.Context) (*secondary.StateRecord, error) {
	if m.getCurrentErr != nil {
		return nil, m.getCurrentErr
	}
	var current []*secondary.StateRecord
	for _, s := range m.sorted() {
		if s.Status == string(journey.StatusCurrent) {
			current = append(current, s)
		}
	}
	if len(current) != 1 {
		return nil, fmt.Errorf("%w: found %d current states", journey.ErrNoCurrentState, len(current))
	}
	copied := *current[0]
	return &copied, nil
}

func (m *mockStateRepository) GetNextUpcoming(ctx context.Context) (*secondary.StateRecord, error) {
	for _, s := range m.sorted() {
		if s.Status == string(journey.StatusUpcoming) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, journey.ErrJourneyComplete
}

func (m *mockStateRepository) GetByCode(ctx context.Context, code string) (*secondary.StateRecord, error) {
	s, ok := m.states[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", journey.ErrNotFound, code)
	}
	copied := *s
	return &copied, nil
}

func (m *mockStateRepository) guardContext(code string) journey.StateContext {
	s, ok := m.states[code]
	if !ok {
		return journey.StateContext{Code: code}
	}
	return journey.StateContext{Code: code, Exists: true, Status: journey.Status(s.Status)}
}

func (m *mockStateRepository) MarkCompleted(ctx context.Context, code string, completedAt time.Time) error {
	if result := journey.CanMarkCompleted(m.guardContext(code)); !result.Allowed {
		return result.Error()
	}
	m.states[code].Status = string(journey.StatusCompleted)
	m.states[code].CompletionDate = completedAt
	m.writes = append(m.writes, "complete "+code)
	return nil
}

func (m *mockStateRepository) MarkCurrent(ctx context.Context, code string, startedAt time.Time) error {
	if len(m.markCurrentErr) > 0 {
		err := m.markCurrentErr[0]
		m.markCurrentErr = m.markCurrentErr[1:]
		if err != nil {
			m.writes = append(m.writes, "failed current "+code)
			return err
		}
	}
	if result := journey.CanMarkCurrent(m.guardContext(code)); !result.Allowed {
		return result.Error()
	}
	m.states[code].Status = string(journey.StatusCurrent)
	m.states[code].StartDate = startedAt
	m.states[code].CompletionDate = time.Time{}
	m.writes = append(m.writes, "current "+code)
	return nil
}

func (m *mockStateRepository) RestoreCurrent(ctx context.Context, code string, startedAt time.Time) error {
	if m.restoreErr != nil {
		return m.restoreErr
	}
	if result := journey.CanRestoreCurrent(m.guardContext(code)); !result.Allowed {
		return result.Error()
	}
	m.states[code].Status = string(journey.StatusCurrent)
	m.states[code].StartDate = startedAt
	m.states[code].CompletionDate = time.Time{}
	m.writes = append(m.writes, "restore "+code)
	return nil
}

func (m *mockStateRepository) ListByStatus(ctx context.Context, status string) ([]*secondary.StateRecord, error) {
	var result []*secondary.StateRecord
	for _, s := range m.sorted() {
		if status == "" || s.Status == status {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockStateRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	counts := make(map[string]int)
	for _, s := range m.states {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *mockStateRepository) Create(ctx context.Context, state *secondary.StateRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.states[state.Code]; exists {
		return fmt.Errorf("state %s already exists", state.Code)
	}
	copied := *state
	m.states[state.Code] = &copied
	m.writes = append(m.writes, "create "+state.Code)
	return nil
}

// mockTxStateRepository adds an all-or-nothing Advance.
type mockTxStateRepository struct {
	*mockStateRepository
	advanceErr error
	advances   int
}

// Ensure mockTxStateRepository implements the interface
var _ secondary.TransactionalStateRepository = (*mockTxStateRepository)(nil)

func newMockTxStateRepository(states ...*secondary.StateRecord) *mockTxStateRepository {
	return &mockTxStateRepository{mockStateRepository: newMockStateRepository(states...)}
}

func (m *mockTxStateRepository) Advance(ctx context.Context, fromCode, toCode string, at time.Time) error {
	if m.advanceErr != nil {
		return m.advanceErr
	}
	if result := journey.CanMarkCompleted(m.guardContext(fromCode)); !result.Allowed {
		return result.Error()
	}
	if toCode != "" {
		if result := journey.CanMarkCurrent(m.guardContext(toCode)); !result.Allowed {
			return result.Error()
		}
	}
	m.advances++
	if err := m.MarkCompleted(ctx, fromCode, at); err != nil {
		return err
	}
	if toCode == "" {
		return nil
	}
	return m.MarkCurrent(ctx, toCode, at)
}

// state builders

func upcoming(week int, code, name string) *secondary.StateRecord {
	return &secondary.StateRecord{Code: code, Name: name, WeekNumber: week, Status: string(journey.StatusUpcoming)}
}

func current(week int, code, name string, start time.Time) *secondary.StateRecord {
	return &secondary.StateRecord{Code: code, Name: name, WeekNumber: week, Status: string(journey.StatusCurrent), StartDate: start}
}

func completed(week int, code, name string, start time.Time) *secondary.StateRecord {
	return &secondary.StateRecord{
		Code: code, Name: name, WeekNumber: week, Status: string(journey.StatusCompleted),
		StartDate: start, CompletionDate: start.Add(journey.TransitionPeriod),
	}
}

// ============================================================================
// Content repositories
// ============================================================================

type mockPostRepository struct {
	posts      map[string]*secondary.PostRecord
	createErr  error
	archiveErr []error // consumed one per ArchiveOlderThan call
}

func newMockPostRepository() *mockPostRepository {
	return &mockPostRepository{posts: make(map[string]*secondary.PostRecord)}
}

func (m *mockPostRepository) Create(ctx context.Context, post *secondary.PostRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *mockPostRepository) List(ctx context.Context, filters secondary.PostFilters) ([]*secondary.PostRecord, error) {
	var result []*secondary.PostRecord
	for _, p := range m.posts {
		if filters.StateCode != "" && p.StateCode != filters.StateCode {
			continue
		}
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockPostRepository) ArchiveOlderThan(ctx context.Context, cutoff, archivedAt time.Time) (int, error) {
	if len(m.archiveErr) > 0 {
		err := m.archiveErr[0]
		m.archiveErr = m.archiveErr[1:]
		if err != nil {
			return 0, err
		}
	}
	n := 0
	for _, p := range m.posts {
		if p.Status != "archived" && p.CreatedAt.Before(cutoff) {
			p.Status = "archived"
			p.ArchivedAt = archivedAt
			n++
		}
	}
	return n, nil
}

type mockReviewRepository struct {
	reviews    map[string]*secondary.ReviewRecord
	publishErr error
}

func newMockReviewRepository(reviews ...*secondary.ReviewRecord) *mockReviewRepository {
	m := &mockReviewRepository{reviews: make(map[string]*secondary.ReviewRecord)}
	for _, r := range reviews {
		m.reviews[r.ID] = r
	}
	return m
}

func (m *mockReviewRepository) Create(ctx context.Context, review *secondary.ReviewRecord) error {
	for _, r := range m.reviews {
		if r.StateCode == review.StateCode && r.DayNumber == review.DayNumber {
			return fmt.Errorf("review for %s day %d already exists", review.StateCode, review.DayNumber)
		}
	}
	copied := *review
	m.reviews[review.ID] = &copied
	return nil
}

func (m *mockReviewRepository) GetForDay(ctx context.Context, stateCode string, day int) (*secondary.ReviewRecord, error) {
	for _, r := range m.reviews {
		if r.StateCode == stateCode && r.DayNumber == day {
			copied := *r
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: no review for %s day %d", journey.ErrNotFound, stateCode, day)
}

func (m *mockReviewRepository) ListByState(ctx context.Context, stateCode string) ([]*secondary.ReviewRecord, error) {
	var result []*secondary.ReviewRecord
	for _, r := range m.reviews {
		if r.StateCode == stateCode {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DayNumber < result[j].DayNumber })
	return result, nil
}

func (m *mockReviewRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	r, ok := m.reviews[id]
	if !ok {
		return fmt.Errorf("%w: review %s", journey.ErrNotFound, id)
	}
	if r.Status != "draft" {
		return fmt.Errorf("%w: review %s is %s, not draft", journey.ErrInvalidTransition, id, r.Status)
	}
	r.Status = "published"
	r.PublishedAt = publishedAt
	return nil
}

type mockSubscriberRepository struct {
	subs      map[string]*secondary.SubscriberRecord
	listErr   error
	createErr error
}

func newMockSubscriberRepository(subs ...*secondary.SubscriberRecord) *mockSubscriberRepository {
	m := &mockSubscriberRepository{subs: make(map[string]*secondary.SubscriberRecord)}
	for _, s := range subs {
		m.subs[s.Email] = s
	}
	return m
}

func (m *mockSubscriberRepository) Create(ctx context.Context, sub *secondary.SubscriberRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.subs[sub.Email]; exists {
		return fmt.Errorf("subscriber %s already exists", sub.Email)
	}
	copied := *sub
	m.subs[sub.Email] = &copied
	return nil
}

func (m *mockSubscriberRepository) ListActive(ctx context.Context) ([]*secondary.SubscriberRecord, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []*secondary.SubscriberRecord
	for _, s := range all {
		if s.Status == "active" {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockSubscriberRepository) List(ctx context.Context) ([]*secondary.SubscriberRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.SubscriberRecord
	for _, s := range m.subs {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockSubscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	s, ok := m.subs[email]
	if !ok {
		return fmt.Errorf("%w: subscriber %s", journey.ErrNotFound, email)
	}
	s.Status = "unsubscribed"
	return nil
}

type mockTransitionRunRepository struct {
	runs      []*secondary.TransitionRunRecord
	createErr error
}

func (m *mockTransitionRunRepository) Create(ctx context.Context, run *secondary.TransitionRunRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *run
	m.runs = append(m.runs, &copied)
	return nil
}

func (m *mockTransitionRunRepository) List(ctx context.Context, limit int) ([]*secondary.TransitionRunRecord, error) {
	var result []*secondary.TransitionRunRecord
	for i := len(m.runs) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		result = append(result, m.runs[i])
	}
	return result, nil
}

// ============================================================================
// Analytics and mail
// ============================================================================

type recordedEvent struct {
	eventType string
	payload   map[string]any
}

type mockAnalyticsSink struct {
	events   []recordedEvent
	failures int // number of calls to fail before succeeding
	calls    int
}

func (m *mockAnalyticsSink) Record(ctx context.Context, eventType string, payload map[string]any) error {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("analytics unavailable")
	}
	m.events = append(m.events, recordedEvent{eventType: eventType, payload: payload})
	return nil
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []secondary.EmailMessage
	failures map[string]int // remaining failures per recipient; -1 fails forever
}

func newMockMailer() *mockMailer {
	return &mockMailer{failures: make(map[string]int)}
}

func (m *mockMailer) Send(ctx context.Context, msg secondary.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch n := m.failures[msg.To]; {
	case n < 0:
		return errors.New("mailbox unavailable")
	case n > 0:
		m.failures[msg.To] = n - 1
		return errors.New("rate limited")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// ============================================================================
// Metrics
// ============================================================================

type mockMetrics struct {
	transitions map[string]int
	sideEffects map[string]int
	publishes   map[string]int
	week        int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		transitions: make(map[string]int),
		sideEffects: make(map[string]int),
		publishes:   make(map[string]int),
	}
}

func (m *mockMetrics) ObserveTransition(outcome string) { m.transitions[outcome]++ }

func (m *mockMetrics) ObserveSideEffect(effect string, success bool) {
	m.sideEffects[fmt.Sprintf("%s/%t", effect, success)]++
}

func (m *mockMetrics) ObservePublish(outcome string) { m.publishes[outcome]++ }

func (m *mockMetrics) SetCurrentWeek(week int) { m.week = week }
