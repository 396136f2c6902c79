package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/session"
)

const identityKey = "identity"

// SessionConfig names the cookies the storefront reads.
type SessionConfig struct {
	Cookie      string // visitor session id
	TokenCookie string // backend access token
	JWTSecret   string
	Secure      bool
	Log         logger.Logger
}

// Session assigns every visitor a session id cookie and resolves the
// backend token from the Authorization header or the token cookie. The
// resulting session.Identity is stored on the echo context and on the
// request context. A token whose claims cannot be read still counts as
// present.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.Cookie == "" {
		cfg.Cookie = "sid"
	}
	if cfg.TokenCookie == "" {
		cfg.TokenCookie = "token"
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := session.Identity{SessionID: sessionID(c, cfg)}

			if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				id.Token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			} else if ck, err := c.Cookie(cfg.TokenCookie); err == nil {
				id.Token = ck.Value
			}

			if id.Token != "" {
				if cl, err := session.ParseClaims(id.Token, cfg.JWTSecret); err == nil {
					id.UserID, id.Name, id.Email, id.Phone = cl.UserID, cl.Name, cl.Email, cl.Phone
				} else {
					cfg.Log.Debug("session %s: token claims unreadable: %v", id.SessionID, err)
				}
			}

			c.Set(identityKey, id)
			c.SetRequest(c.Request().WithContext(session.WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func sessionID(c echo.Context, cfg SessionConfig) string {
	if ck, err := c.Cookie(cfg.Cookie); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cfg.Cookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
	return sid
}

// Identity returns the identity resolved by Session. Without the
// middleware it returns the zero Identity.
func Identity(c echo.Context) session.Identity {
	if id, ok := c.Get(identityKey).(session.Identity); ok {
		return id
	}
	id, _ := session.FromContext(c.Request().Context())
	return id
}

// RequireAuth rejects requests without a backend token.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !Identity(c).Authenticated() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "sign in required"})
			}
			return next(c)
		}
	}
}
