package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/service/review"
	"github.com/phrazzld/vocab-api/internal/session"
	"github.com/phrazzld/vocab-api/internal/store"
)

// fakeReviewService records calls and returns canned values.
type fakeReviewService struct {
	lastLimit     int
	lastBatchSize int
	plan          *review.SessionPlan
	answered      *domain.LearningItem
	summary       *review.SessionSummary
	due           []*domain.LearningItem
	weak          []*domain.LearningItem
	postponed     *domain.LearningItem
	err           error
}

func (f *fakeReviewService) StartSession(_ context.Context, _ uuid.UUID, limit, batchSize int) (*review.SessionPlan, error) {
	f.lastLimit = limit
	f.lastBatchSize = batchSize
	return f.plan, f.err
}

func (f *fakeReviewService) SubmitAnswer(_ context.Context, _, _ uuid.UUID, _ review.ReviewAnswer) (*domain.LearningItem, error) {
	return f.answered, f.err
}

func (f *fakeReviewService) EndSession(_ context.Context, _ uuid.UUID) (*review.SessionSummary, error) {
	return f.summary, f.err
}

func (f *fakeReviewService) AbandonSession(_ context.Context, _ uuid.UUID) (*review.SessionSummary, error) {
	if f.summary != nil {
		abandoned := *f.summary
		abandoned.Abandoned = true
		return &abandoned, f.err
	}
	return nil, f.err
}

func (f *fakeReviewService) DueItems(_ context.Context, _ uuid.UUID) ([]*domain.LearningItem, error) {
	return f.due, f.err
}

func (f *fakeReviewService) WeakItems(_ context.Context, _ uuid.UUID) ([]*domain.LearningItem, error) {
	return f.weak, f.err
}

func (f *fakeReviewService) PostponeItem(_ context.Context, _, _ uuid.UUID, _ int) (*domain.LearningItem, error) {
	return f.postponed, f.err
}

// fakeLogStore serves canned review logs.
type fakeLogStore struct {
	logs      []*domain.ReviewLog
	lastLimit int
}

func (f *fakeLogStore) Create(_ context.Context, log *domain.ReviewLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeLogStore) ListByUser(_ context.Context, _ uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	f.lastLimit = limit
	return f.logs, nil
}

func (f *fakeLogStore) WithTx(_ *sql.Tx) store.ReviewLogStore { return f }

func testReviewDefaults() config.ReviewConfig {
	return config.ReviewConfig{SessionLimit: 20, BatchSize: 7}
}

func newTestReviewHandler(svc *fakeReviewService, logs *fakeLogStore) *ReviewHandler {
	if logs == nil {
		logs = &fakeLogStore{}
	}
	return NewReviewHandler(svc, logs, testReviewDefaults(), discardLogger())
}

func testQueueItem(t *testing.T, userID uuid.UUID) *domain.LearningItem {
	t.Helper()
	item, err := domain.NewLearningItem(userID, "ephemeral", "lasting a very short time", "")
	require.NoError(t, err)
	return item
}

func TestStartSessionUsesConfiguredDefaults(t *testing.T) {
	userID := uuid.New()
	item := testQueueItem(t, userID)
	svc := &fakeReviewService{plan: &review.SessionPlan{
		Queue:     []*domain.LearningItem{item},
		Batches:   [][]*domain.LearningItem{{item}},
		BatchSize: 7,
	}}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(http.MethodPost, "/reviews/session", nil), userID)
	rec := httptest.NewRecorder()
	handler.StartSession(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 20, svc.lastLimit)
	assert.Equal(t, 7, svc.lastBatchSize)

	var resp SessionPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Queue, 1)
	assert.Equal(t, item.ID, resp.Queue[0].ID)
	require.Len(t, resp.Batches, 1)
}

func TestStartSessionHonorsExplicitLimits(t *testing.T) {
	userID := uuid.New()
	svc := &fakeReviewService{plan: &review.SessionPlan{BatchSize: 3}}
	handler := newTestReviewHandler(svc, nil)

	body, err := json.Marshal(StartSessionRequest{Limit: 5, BatchSize: 3})
	require.NoError(t, err)
	req := authenticate(httptest.NewRequest(http.MethodPost, "/reviews/session", bytes.NewReader(body)), userID)
	rec := httptest.NewRecorder()
	handler.StartSession(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5, svc.lastLimit)
	assert.Equal(t, 3, svc.lastBatchSize)
}

func TestStartSessionConflictsWhenSessionInProgress(t *testing.T) {
	svc := &fakeReviewService{err: review.ErrSessionInProgress}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(http.MethodPost, "/reviews/session", nil), uuid.New())
	rec := httptest.NewRecorder()
	handler.StartSession(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartSessionRequiresAuthentication(t *testing.T) {
	handler := newTestReviewHandler(&fakeReviewService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/reviews/session", nil)
	rec := httptest.NewRecorder()
	handler.StartSession(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAnswerReturnsProjectedItem(t *testing.T) {
	userID := uuid.New()
	item := testQueueItem(t, userID)
	item.Review.IntervalDays = 3
	svc := &fakeReviewService{answered: item}
	handler := newTestReviewHandler(svc, nil)

	quality := 4
	body, err := json.Marshal(AnswerRequest{Quality: &quality})
	require.NoError(t, err)

	req := authenticate(httptest.NewRequest(
		http.MethodPost, "/reviews/items/"+item.ID.String()+"/answer", bytes.NewReader(body)), userID)
	rec := serveWithParams(http.MethodPost, "/reviews/items/{id}/answer", handler.SubmitAnswer, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, item.ID, resp.ID)
	assert.Equal(t, 3, resp.IntervalDays)
}

func TestSubmitAnswerRejectsInvalidRating(t *testing.T) {
	handler := newTestReviewHandler(&fakeReviewService{}, nil)

	req := authenticate(httptest.NewRequest(
		http.MethodPost, "/reviews/items/"+uuid.NewString()+"/answer",
		bytes.NewReader([]byte(`{"rating":"amazing"}`))), uuid.New())
	rec := serveWithParams(http.MethodPost, "/reviews/items/{id}/answer", handler.SubmitAnswer, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAnswerRejectsMalformedItemID(t *testing.T) {
	handler := newTestReviewHandler(&fakeReviewService{}, nil)

	req := authenticate(httptest.NewRequest(
		http.MethodPost, "/reviews/items/not-a-uuid/answer",
		bytes.NewReader([]byte(`{"rating":"good"}`))), uuid.New())
	rec := serveWithParams(http.MethodPost, "/reviews/items/{id}/answer", handler.SubmitAnswer, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndSessionReturnsSummary(t *testing.T) {
	svc := &fakeReviewService{summary: &review.SessionSummary{
		Stats: session.Stats{TotalReviewed: 3, Correct: 2, Incorrect: 1, XPEarned: 35},
	}}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(http.MethodPost, "/reviews/session/end", nil), uuid.New())
	rec := httptest.NewRecorder()
	handler.EndSession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Stats.TotalReviewed)
	assert.Equal(t, 35, resp.Stats.XPEarned)
	assert.False(t, resp.Abandoned)
}

func TestEndSessionWithoutActiveSession(t *testing.T) {
	svc := &fakeReviewService{err: review.ErrNoActiveSession}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(http.MethodPost, "/reviews/session/end", nil), uuid.New())
	rec := httptest.NewRecorder()
	handler.EndSession(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAbandonSessionMarksSummaryAbandoned(t *testing.T) {
	svc := &fakeReviewService{summary: &review.SessionSummary{
		Stats: session.Stats{TotalReviewed: 1, Correct: 1, XPEarned: 15},
	}}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(http.MethodPost, "/reviews/session/abandon", nil), uuid.New())
	rec := httptest.NewRecorder()
	handler.AbandonSession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Abandoned)
}

func TestDueItemsReturnsEmptyArrayNotNull(t *testing.T) {
	handler := newTestReviewHandler(&fakeReviewService{}, nil)

	req := authenticate(httptest.NewRequest(http.MethodGet, "/reviews/due", nil), uuid.New())
	rec := httptest.NewRecorder()
	handler.DueItems(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestWeakItemsReturnsStrugglingItems(t *testing.T) {
	userID := uuid.New()
	item := testQueueItem(t, userID)
	item.Review.TotalReviews = 5
	item.Review.CorrectReviews = 3
	item.Review.WrongReviews = 2
	svc := &fakeReviewService{weak: []*domain.LearningItem{item}}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(http.MethodGet, "/items/weak", nil), userID)
	rec := httptest.NewRecorder()
	handler.WeakItems(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, item.ID, resp[0].ID)
}

func TestPostponeItemPushesSchedule(t *testing.T) {
	userID := uuid.New()
	item := testQueueItem(t, userID)
	svc := &fakeReviewService{postponed: item}
	handler := newTestReviewHandler(svc, nil)

	body, err := json.Marshal(PostponeRequest{Days: 3})
	require.NoError(t, err)
	req := authenticate(httptest.NewRequest(
		http.MethodPost, "/items/"+item.ID.String()+"/postpone", bytes.NewReader(body)), userID)
	rec := serveWithParams(http.MethodPost, "/items/{id}/postpone", handler.PostponeItem, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPostponeItemRejectsNonPositiveDays(t *testing.T) {
	handler := newTestReviewHandler(&fakeReviewService{}, nil)

	req := authenticate(httptest.NewRequest(
		http.MethodPost, "/items/"+uuid.NewString()+"/postpone",
		bytes.NewReader([]byte(`{"days":0}`))), uuid.New())
	rec := serveWithParams(http.MethodPost, "/items/{id}/postpone", handler.PostponeItem, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostponeItemBlockedDuringSession(t *testing.T) {
	svc := &fakeReviewService{err: review.ErrSessionInProgress}
	handler := newTestReviewHandler(svc, nil)

	req := authenticate(httptest.NewRequest(
		http.MethodPost, "/items/"+uuid.NewString()+"/postpone",
		bytes.NewReader([]byte(`{"days":2}`))), uuid.New())
	rec := serveWithParams(http.MethodPost, "/items/{id}/postpone", handler.PostponeItem, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHistoryPassesLimitThrough(t *testing.T) {
	userID := uuid.New()
	log, err := domain.NewReviewLog(userID, 5, 4, 1, 65, false)
	require.NoError(t, err)
	logs := &fakeLogStore{logs: []*domain.ReviewLog{log}}
	handler := newTestReviewHandler(&fakeReviewService{}, logs)

	req := authenticate(httptest.NewRequest(http.MethodGet, "/reviews/history?limit=5", nil), userID)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, logs.lastLimit)

	var resp []domain.ReviewLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 65, resp[0].XPEarned)
}

func TestHistoryRejectsInvalidLimit(t *testing.T) {
	handler := newTestReviewHandler(&fakeReviewService{}, &fakeLogStore{})

	req := authenticate(httptest.NewRequest(http.MethodGet, "/reviews/history?limit=-1", nil), uuid.New())
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
