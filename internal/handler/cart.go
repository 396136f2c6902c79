package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/cart"
	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/middleware"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/session"
	"github.com/iliyamo/resort-storefront/internal/storage"
)

// drawerSlot keeps the cart drawer flag between requests.
const drawerSlot = "cart_drawer"

// CartHandler exposes the cart store. Each request builds a store for the
// visitor, loads the cart, applies the operation and answers the state.
type CartHandler struct {
	Slots  storage.SlotStore
	Remote cart.Remote
	Rooms  RoomService
	Log    logger.Logger
}

func NewCartHandler(slots storage.SlotStore, remote cart.Remote, rooms RoomService, log logger.Logger) *CartHandler {
	if log == nil {
		log = logger.Nop{}
	}
	return &CartHandler{Slots: slots, Remote: remote, Rooms: rooms, Log: log}
}

type cartResponse struct {
	Item    *model.CartItem `json:"item"`
	IsOpen  bool            `json:"isOpen"`
	Loading bool            `json:"loading"`
}

func toCartResponse(st cart.State) cartResponse {
	return cartResponse{Item: st.Item, IsOpen: st.IsOpen, Loading: st.Loading}
}

// load returns a store holding the visitor's current cart and drawer flag.
func (h *CartHandler) load(ctx context.Context, id session.Identity) *cart.Store {
	s := cart.NewStore(h.Slots, h.Remote, h.Log)
	s.FetchCart(ctx, id)
	if raw, err := h.Slots.Get(ctx, id.SessionID, drawerSlot); err == nil && string(raw) == "1" {
		s.ToggleCart()
	}
	return s
}

// Get handles GET /v1/cart.
func (h *CartHandler) Get(c echo.Context) error {
	id := middleware.Identity(c)
	return c.JSON(http.StatusOK, toCartResponse(h.load(c.Request().Context(), id).State()))
}

// CartItemRequest prices a room into the cart.
type CartItemRequest struct {
	RoomSlug string `json:"roomSlug" validate:"required"`
	QuoteRequest
}

// Add handles POST /v1/cart. The cart holds one line item; adding replaces
// whatever was there.
func (h *CartHandler) Add(c echo.Context) error {
	var req CartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	item, err := quoteItem(ctx, h.Rooms, req.RoomSlug, req.QuoteRequest)
	if err != nil {
		return quoteError(c, err)
	}

	id := middleware.Identity(c)
	s := h.load(ctx, id)
	s.AddToCart(ctx, id, item)
	return c.JSON(http.StatusCreated, toCartResponse(s.State()))
}

// Update handles PUT /v1/cart. The line item keeps its id.
func (h *CartHandler) Update(c echo.Context) error {
	var req CartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := middleware.Identity(c)
	s := h.load(ctx, id)
	if s.State().Item == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cart is empty"})
	}

	item, err := quoteItem(ctx, h.Rooms, req.RoomSlug, req.QuoteRequest)
	if err != nil {
		return quoteError(c, err)
	}
	s.UpdateCartItem(ctx, id, item)
	return c.JSON(http.StatusOK, toCartResponse(s.State()))
}

// Remove handles DELETE /v1/cart/items/:id.
func (h *CartHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	id := middleware.Identity(c)
	s := h.load(ctx, id)
	s.RemoveFromCart(ctx, id, c.Param("id"))
	return c.JSON(http.StatusOK, toCartResponse(s.State()))
}

// Clear handles DELETE /v1/cart.
func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	id := middleware.Identity(c)
	s := h.load(ctx, id)
	s.ClearCart(ctx, id)
	return c.JSON(http.StatusOK, toCartResponse(s.State()))
}

// Toggle handles POST /v1/cart/toggle.
func (h *CartHandler) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	id := middleware.Identity(c)
	s := h.load(ctx, id)
	s.ToggleCart()

	flag := []byte("0")
	if s.State().IsOpen {
		flag = []byte("1")
	}
	if err := h.Slots.Set(ctx, id.SessionID, drawerSlot, flag); err != nil {
		h.Log.Error("store drawer flag: %v", err)
	}
	return c.JSON(http.StatusOK, toCartResponse(s.State()))
}
