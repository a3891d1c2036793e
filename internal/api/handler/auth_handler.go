package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memberbase/accounts-api/internal/api/metrics"
	"github.com/memberbase/accounts-api/internal/api/middleware"
	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	sessionTTL  time.Duration
}

func NewAuthHandler(authService ports.AuthService, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, sessionTTL: sessionTTL}
}

type loginRequest struct {
	Username               string `json:"username" validate:"required"`
	Password               string `json:"password" validate:"required"`
	StoreAPITokenInSession bool   `json:"storeApiTokenInSession"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// Login validates credentials and hands out the API token, either in the
// response body or stored server-side in a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password, req.StoreAPITokenInSession)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginFailureReason(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	if result.SessionID != "" {
		c.SetCookie(&http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    result.SessionID,
			Path:     "/",
			MaxAge:   int(h.sessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return c.JSON(http.StatusOK, Response{Success: true, Message: "Login Successful"})
	}

	// A body-token login invalidates any session the client still carries;
	// the two transports are mutually exclusive.
	h.clearSession(c)

	return c.JSON(http.StatusOK, loginResponse{
		Response: Response{Success: true, Message: "Login Successful"},
		APIToken: result.APIToken,
	})
}

// Signup creates a self-service account with the user role.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "New account details"
// @Success      201   {object}  Response
// @Failure      400   {object}  Response
// @Failure      409   {object}  Response
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.authService.Signup(c.Request().Context(), req.Username, req.Password, req.Name); err != nil {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.SignupsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusCreated, Response{Success: true, Message: "Account created successfully"})
}

// ValidateToken reports that the token attached to the request is valid. The
// token-presence guard has already rejected requests without one.
//
// @Summary      Validate the API token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  Response
// @Router       /auth/validateAPIToken [post]
func (h *AuthHandler) ValidateToken(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Your API Token is valid"})
}

// LogoutSession removes the API token, if any, from the session.
//
// @Summary      Log out of the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response
// @Router       /auth/logoutSession [post]
func (h *AuthHandler) LogoutSession(c echo.Context) error {
	h.clearSession(c)
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Successfully logged out from the session"})
}

// clearSession deletes the server-side session named by the cookie and
// expires the cookie itself. Missing or unknown sessions are ignored.
func (h *AuthHandler) clearSession(c echo.Context) {
	cookie, err := c.Cookie(middleware.SessionCookie)
	if err != nil || cookie.Value == "" {
		return
	}
	_ = h.authService.Logout(c.Request().Context(), cookie.Value)
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidUsername):
		return "invalid_username"
	case errors.Is(err, domain.ErrInvalidPassword):
		return "invalid_password"
	default:
		return "error"
	}
}
