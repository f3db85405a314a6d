package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/authcore/authcore/internal/auth"
	"github.com/authcore/authcore/internal/handler/dto"
	"github.com/authcore/authcore/internal/middleware"
	"github.com/authcore/authcore/internal/service"
)

// AuthHandler handles HTTP requests for account and token operations.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Routes returns the /auth sub-router. requireAuth guards logout and profile.
func (h *AuthHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", h.Logout)
		r.Get("/profile", h.Profile)
	})
	return r
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PhoneNo:   req.PhoneNo,
		Location:  req.Location,
		Country:   req.Country,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		Message: "User registered successfully",
		UserID:  user.ID,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	pair, err := h.svc.LoginUser(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrUserNotFound) {
		err = service.ErrInvalidCredentials
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewTokenResponse(pair.AccessToken, pair.RefreshToken, pair.AccessClaims))
}

// Refresh handles POST /auth/refresh. The refresh token is taken from the
// Authorization header, or from the body when the header is absent.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearerToken(r)
	if token == "" {
		req, ok := h.decodeOptionalRefresh(w, r)
		if !ok {
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing refresh token")
		return
	}

	pair, err := h.svc.RefreshAccessToken(r.Context(), token)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewTokenResponse(pair.AccessToken, "", pair.AccessClaims))
}

// Logout handles POST /auth/logout. It revokes the presented access token and,
// when the body names one, the caller's refresh token.
// Requires the Auth middleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	req, ok := h.decodeOptionalRefresh(w, r)
	if !ok {
		return
	}

	if err := h.svc.LogoutUser(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if req.RefreshToken != "" {
		err := h.svc.RevokeRefreshToken(r.Context(), claims.UserID, req.RefreshToken)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrStoreUnavailable):
			h.handleServiceError(w, r, err)
			return
		default:
			h.logger.Warn("refresh token not revoked at logout",
				"user_id", claims.UserID,
				"reason", err.Error(),
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logout successful"})
}

// Profile handles GET /auth/profile. Requires the Auth middleware.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == 0 {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.svc.GetUserProfile(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProfileResponse(user.ToProfile()))
}

// decodeOptionalRefresh reads an optional {"refresh_token": ...} body.
// An empty body is accepted.
func (h *AuthHandler) decodeOptionalRefresh(w http.ResponseWriter, r *http.Request) (dto.RefreshRequest, bool) {
	var req dto.RefreshRequest
	if r.Body == nil {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return req, false
	}
	return req, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Missing required fields")
	case errors.Is(err, service.ErrFieldTooLong):
		h.writeError(w, http.StatusBadRequest, "FIELD_TOO_LONG", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		h.writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrRevoked):
		h.writeError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
	case errors.Is(err, auth.ErrTokenExpired):
		h.writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, service.ErrInvalidToken):
		h.writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("backend unavailable",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		h.writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *AuthHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
