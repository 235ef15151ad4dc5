package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/store"
)

// AuthHandler handles registration, login and token refresh.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	validator        *validator.Validate
	tokenLifetime    time.Duration
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	tokenLifetimeMinutes int,
	log *slog.Logger,
) *AuthHandler {
	if userStore == nil || jwtService == nil || passwordVerifier == nil {
		// ALLOW-PANIC: Constructor enforcing required dependencies
		panic("userStore, jwtService and passwordVerifier cannot be nil")
	}
	if tokenLifetimeMinutes <= 0 {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tokenLifetimeMinutes must be positive")
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		validator:        validator.New(),
		tokenLifetime:    time.Duration(tokenLifetimeMinutes) * time.Minute,
		logger:           log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := domain.NewUser(req.Email, req.Password)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	if err := h.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, GetSafeErrorMessage(err))
			return
		}
		shared.RespondWithErrorAndLog(w, r, log, err,
			http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.respondWithTokens(w, r, log, user.ID, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userStore.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a bad password: no account enumeration.
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		shared.RespondWithErrorAndLog(w, r, log, err,
			http.StatusInternalServerError, "Failed to log in")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithTokens(w, r, log, user.ID, http.StatusOK)
}

// RefreshToken handles POST /auth/refresh. A valid refresh token yields a
// brand new access/refresh pair; the old refresh token keeps working until
// it expires.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, GetSafeErrorMessage(err))
		return
	}

	// The account may have been deleted since the token was issued.
	if _, err := h.userStore.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}
		shared.RespondWithErrorAndLog(w, r, log, err,
			http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	h.respondWithTokens(w, r, log, claims.UserID, http.StatusOK)
}

// respondWithTokens issues an access/refresh token pair for the user.
func (h *AuthHandler) respondWithTokens(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	userID uuid.UUID,
	status int,
) {
	ctx := r.Context()

	accessToken, err := h.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			http.StatusInternalServerError, "Failed to generate token",
			shared.WithElevatedLogLevel())
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			http.StatusInternalServerError, "Failed to generate token",
			shared.WithElevatedLogLevel())
		return
	}

	shared.RespondWithJSON(w, status, AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().UTC().Add(h.tokenLifetime),
	})
}
