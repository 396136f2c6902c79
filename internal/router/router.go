// Package router registers the storefront's HTTP routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/handler"
	"github.com/iliyamo/resort-storefront/internal/middleware"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Health        *handler.HealthHandler
	Session       *handler.SessionHandler
	Rooms         *handler.RoomHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Reviews       *handler.ReviewHandler
	Notifications *handler.NotificationHandler
}

// Middleware is the per-route middleware built from configuration.
type Middleware struct {
	Session     echo.MiddlewareFunc
	ReviewCache echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
}

// RegisterRoutes mounts the health check at the root and the storefront
// API under /v1. Every /v1 route runs the session middleware.
func RegisterRoutes(e *echo.Echo, h Handlers, m Middleware) {
	m.Session = orPass(m.Session)
	m.ReviewCache = orPass(m.ReviewCache)
	m.RateLimit = orPass(m.RateLimit)

	e.GET("/healthz", h.Health.Health)

	v1 := e.Group("/v1", m.Session)

	v1.GET("/session", h.Session.Current)
	v1.POST("/session/token", h.Session.SetToken)
	v1.DELETE("/session", h.Session.Clear)

	v1.GET("/rooms/:slug", h.Rooms.GetRoom)
	v1.GET("/rooms/:slug/reviews", h.Rooms.ListReviews, m.ReviewCache)
	v1.POST("/rooms/:slug/quote", h.Rooms.Quote)

	v1.GET("/cart", h.Cart.Get)
	v1.POST("/cart", h.Cart.Add)
	v1.PUT("/cart", h.Cart.Update)
	v1.DELETE("/cart", h.Cart.Clear)
	v1.DELETE("/cart/items/:id", h.Cart.Remove)
	v1.POST("/cart/toggle", h.Cart.Toggle)

	v1.POST("/checkout", h.Checkout.Start, middleware.RequireAuth())
	v1.POST("/checkout/callback", h.Checkout.Callback)

	v1.GET("/reviews/verify", h.Reviews.Verify)
	v1.POST("/reviews", h.Reviews.Submit, middleware.RequireAuth(), m.RateLimit)

	v1.GET("/notifications", h.Notifications.List)
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}
