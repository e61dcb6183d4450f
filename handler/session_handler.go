package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-auth-api/common"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/service"
)

// SessionService is the part of service.AuthService the handlers need.
type SessionService interface {
	Login(email, password string) (*model.SessionResponse, error)
	Refresh(refreshToken string) (*model.TokenPair, error)
	Me(userID int) (*model.MeResponse, error)
	Logout(userID int) error
}

type SessionHandler struct {
	service SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Create godoc
// @Summary      Sign in
// @Description  Opens a session and returns an access and refresh token pair
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.SessionRequest  true  "User credentials"
// @Success      200          {object}  model.SessionResponse
// @Failure      400          {object}  model.ErrorResponse
// @Failure      401          {object}  model.ErrorResponse
// @Router       /sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SessionRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	session, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return common.NewAppError(http.StatusUnauthorized, model.CodeCredentialsInvalid, "E-mail or password incorrect", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, model.CodeInternal, "Could not create session", err)
	}

	writeJSON(w, http.StatusOK, session)
	return nil
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Exchanges a refresh token for a new token pair. The presented refresh token is revoked.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        token  body      model.RefreshRequest  true  "Refresh token"
// @Success      200    {object}  model.TokenPair
// @Failure      400    {object}  model.ErrorResponse
// @Failure      401    {object}  model.ErrorResponse
// @Router       /refresh [post]
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return common.NewAppError(http.StatusUnauthorized, model.CodeTokenInvalid, "Refresh token is invalid or expired", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, model.CodeInternal, "Could not refresh token", err)
	}

	writeJSON(w, http.StatusOK, pair)
	return nil
}

// Me godoc
// @Summary      Current user
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  model.MeResponse
// @Failure      401  {object}  model.ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, model.CodeTokenInvalid, "Invalid user ID in token", nil)
	}

	me, err := h.service.Me(userID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, model.CodeInternal, "Could not load user", err)
	}

	writeJSON(w, http.StatusOK, me)
	return nil
}

// Logout godoc
// @Summary      Sign out
// @Description  Revokes every refresh token of the current user
// @Tags         sessions
// @Success      204
// @Failure      401  {object}  model.ErrorResponse
// @Security     BearerAuth
// @Router       /logout [post]
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, model.CodeTokenInvalid, "Invalid user ID in token", nil)
	}

	if err := h.service.Logout(userID); err != nil {
		return common.NewAppError(http.StatusInternalServerError, model.CodeInternal, "Could not sign out", err)
	}
	logger.Log.WithField("user_id", userID).Info("User signed out")

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
