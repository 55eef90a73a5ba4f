package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/middleware"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/response"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/usecase"
)

// AuthUsecase is the session flow the auth endpoints drive.
type AuthUsecase interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*usecase.LoginResult, error)
	Register(ctx context.Context, input usecase.RegisterInput) (*usecase.LoginResult, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, identity *domain.Identity) (int64, error)
}

// AuthHandler exposes the /api/auth endpoints.
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

var loginErrors = []ErrorCase{
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "email and password are required"},
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password"},
	{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "Account is deactivated"},
	{Err: usecase.ErrAccountUnverified, Status: http.StatusForbidden, Message: "Account is not verified"},
}

var registerErrors = []ErrorCase{
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "email, password and full name are required"},
	{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "Email already exists"},
	{Err: usecase.ErrPasswordTooWeak, Status: http.StatusBadRequest, Message: "Password does not meet the password policy"},
}

// Login godoc
// @Summary Log in with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	rc := reqctx.Current(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, rc, "invalid login payload")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, req.IsRememberPassword)
	if err != nil {
		RespondWithMappedError(c, rc, err, loginErrors, http.StatusInternalServerError, "login failed")
		return
	}

	response.OK(c, rc, LoginResponse{Token: result.Token, ExpiredDate: result.ExpiresAt}, "Login successful", nil)
}

// Register godoc
// @Summary Register a new account and log it in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	rc := reqctx.Current(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, rc, "invalid registration payload")
		return
	}

	result, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		RespondWithMappedError(c, rc, err, registerErrors, http.StatusInternalServerError, "registration failed")
		return
	}

	response.Created(c, rc, LoginResponse{Token: result.Token, ExpiredDate: result.ExpiresAt}, "Registration successful")
}

// Logout revokes the session presented on this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	rc := reqctx.Current(c)

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		response.BadRequest(c, rc, "No token provided")
		return
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, rc, err, nil, http.StatusInternalServerError, "logout failed")
		return
	}

	response.OK(c, rc, nil, "Logged out successfully from current device", nil)
}

// LogoutAll revokes every session of the caller.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	rc := reqctx.Current(c)

	revoked, err := h.auth.LogoutAll(c.Request.Context(), rc.Identity())
	if err != nil {
		RespondWithMappedError(c, rc, err, nil, http.StatusInternalServerError, "logout failed")
		return
	}

	response.OK(c, rc, nil, "Logged out successfully from all devices", map[string]any{"revokedSessions": revoked})
}
