package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/service/review"
	"github.com/phrazzld/vocab-api/internal/session"
)

// Auth DTOs

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on successful registration, login or refresh.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshTokenRequest is the payload for obtaining a fresh token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Item DTOs

// CreateItemRequest is the payload for creating a learning item.
type CreateItemRequest struct {
	Term       string `json:"term"       validate:"required,max=200"`
	Definition string `json:"definition" validate:"required,max=2000"`
	GroupKey   string `json:"group_key"  validate:"max=100"`
}

// UpdateItemRequest is the payload for updating an item's display fields.
// Review scheduling state is never client-writable.
type UpdateItemRequest struct {
	Term       string `json:"term"       validate:"required,max=200"`
	Definition string `json:"definition" validate:"required,max=2000"`
	Example    string `json:"example"    validate:"max=2000"`
	GroupKey   string `json:"group_key"  validate:"max=100"`
}

// ItemResponse is the client view of a learning item.
type ItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Term         string    `json:"term"`
	Definition   string    `json:"definition"`
	Example      string    `json:"example,omitempty"`
	GroupKey     string    `json:"group_key,omitempty"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetition_count"`
	NextReviewAt time.Time `json:"next_review_at"`
	Mastered     bool      `json:"mastered"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewItemResponse converts a domain item to its API representation.
func NewItemResponse(item *domain.LearningItem) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		Term:         item.Term,
		Definition:   item.Definition,
		Example:      item.Example,
		GroupKey:     item.GroupKey,
		EaseFactor:   item.Review.EaseFactor,
		IntervalDays: item.Review.IntervalDays,
		Repetitions:  item.Review.RepetitionCount,
		NextReviewAt: item.Review.NextReviewAt,
		Mastered:     item.Review.Mastered,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// NewItemResponseList converts a slice of domain items. Always returns a
// non-nil slice so empty lists serialize as [] rather than null.
func NewItemResponseList(items []*domain.LearningItem) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewItemResponse(item))
	}
	return responses
}

// Review session DTOs

// StartSessionRequest is the payload for starting a review session.
// Zero values fall back to the server-configured defaults.
type StartSessionRequest struct {
	Limit     int `json:"limit"      validate:"gte=0,lte=500"`
	BatchSize int `json:"batch_size" validate:"gte=0,lte=100"`
}

// AnswerRequest is the payload for answering one item in a session.
// Either a raw quality score (0-5) or a rating label must be provided;
// quality wins when both are set.
type AnswerRequest struct {
	Quality *int   `json:"quality,omitempty" validate:"omitempty,gte=0,lte=5"`
	Rating  string `json:"rating,omitempty"  validate:"omitempty,oneof=again hard good easy"`
}

// SessionPlanResponse describes a freshly started session.
type SessionPlanResponse struct {
	Queue     []ItemResponse   `json:"queue"`
	Batches   [][]ItemResponse `json:"batches"`
	BatchSize int              `json:"batch_size"`
}

// NewSessionPlanResponse converts a service session plan.
func NewSessionPlanResponse(plan *review.SessionPlan) SessionPlanResponse {
	batches := make([][]ItemResponse, 0, len(plan.Batches))
	for _, batch := range plan.Batches {
		batches = append(batches, NewItemResponseList(batch))
	}
	return SessionPlanResponse{
		Queue:     NewItemResponseList(plan.Queue),
		Batches:   batches,
		BatchSize: plan.BatchSize,
	}
}

// SessionSummaryResponse reports the outcome of a finished session.
type SessionSummaryResponse struct {
	Stats     session.Stats `json:"stats"`
	Abandoned bool          `json:"abandoned"`
}

// NewSessionSummaryResponse converts a service session summary.
func NewSessionSummaryResponse(summary *review.SessionSummary) SessionSummaryResponse {
	return SessionSummaryResponse{
		Stats:     summary.Stats,
		Abandoned: summary.Abandoned,
	}
}

// PostponeRequest is the payload for pushing an item's next review forward.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gt=0,lte=365"`
}
