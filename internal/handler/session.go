package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/middleware"
	"github.com/iliyamo/resort-storefront/internal/session"
)

// SessionHandler attaches and drops the backend token for a visitor.
type SessionHandler struct {
	TokenCookie string
	Secure      bool
	JWTSecret   string
}

func NewSessionHandler(tokenCookie string, secure bool, jwtSecret string) *SessionHandler {
	if tokenCookie == "" {
		tokenCookie = "token"
	}
	return &SessionHandler{TokenCookie: tokenCookie, Secure: secure, JWTSecret: jwtSecret}
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type sessionResponse struct {
	SessionID     string `json:"session_id"`
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
}

func toSessionResponse(id session.Identity) sessionResponse {
	return sessionResponse{
		SessionID:     id.SessionID,
		Authenticated: id.Authenticated(),
		UserID:        id.UserID,
		Name:          id.Name,
		Email:         id.Email,
	}
}

// Current handles GET /v1/session.
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(middleware.Identity(c)))
}

// SetToken handles POST /v1/session/token. The token is stored in an
// HttpOnly cookie; claims are read only to echo the user back.
func (h *SessionHandler) SetToken(c echo.Context) error {
	var req tokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id := middleware.Identity(c)
	id.Token = req.Token
	if cl, err := session.ParseClaims(req.Token, h.JWTSecret); err == nil {
		id.UserID, id.Name, id.Email, id.Phone = cl.UserID, cl.Name, cl.Email, cl.Phone
	} else if h.JWTSecret != "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	c.SetCookie(&http.Cookie{
		Name:     h.TokenCookie,
		Value:    req.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, toSessionResponse(id))
}

// Clear handles DELETE /v1/session.
func (h *SessionHandler) Clear(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	return c.NoContent(http.StatusNoContent)
}
