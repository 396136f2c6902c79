package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/apiclient"
	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/pricing"
	"github.com/iliyamo/resort-storefront/internal/review"
)

// RoomService looks up room definitions on the backend.
type RoomService interface {
	GetRoom(ctx context.Context, slug string) (*model.RoomConfig, error)
}

// RoomHandler serves room pages: the room itself, its approved reviews and
// price quotes.
type RoomHandler struct {
	Rooms   RoomService
	Reviews review.Service
	Log     logger.Logger
}

func NewRoomHandler(rooms RoomService, reviews review.Service, log logger.Logger) *RoomHandler {
	if log == nil {
		log = logger.Nop{}
	}
	return &RoomHandler{Rooms: rooms, Reviews: reviews, Log: log}
}

type reviewsResponse struct {
	Stats model.RatingDistribution `json:"stats"`
	review.Page
}

type roomResponse struct {
	Room    model.RoomConfig `json:"room"`
	Reviews reviewsResponse  `json:"reviews"`
}

// GetRoom handles GET /v1/rooms/:slug. Review failures do not fail the
// page; the room is returned with an empty review section.
func (h *RoomHandler) GetRoom(c echo.Context) error {
	slug := c.Param("slug")
	room, err := h.Rooms.GetRoom(c.Request().Context(), slug)
	if err != nil {
		return roomError(c, err)
	}
	resp := roomResponse{Room: *room}
	if rv, msg := h.reviewPage(c.Request().Context(), slug, 1, review.DefaultPerPage); msg == "" {
		resp.Reviews = rv
	} else {
		resp.Reviews = reviewsResponse{Stats: review.CalculateStats(nil), Page: review.Paginate(nil, 1, review.DefaultPerPage)}
	}
	return c.JSON(http.StatusOK, resp)
}

// ListReviews handles GET /v1/rooms/:slug/reviews?page=&per_page=.
func (h *RoomHandler) ListReviews(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage > 50 {
		perPage = 50
	}
	rv, msg := h.reviewPage(c.Request().Context(), c.Param("slug"), page, perPage)
	if msg != "" {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusOK, rv)
}

// reviewPage fetches through a fresh review store and keeps only approved
// reviews of the room, whatever the backend honoured of the filter.
func (h *RoomHandler) reviewPage(ctx context.Context, slug string, page, perPage int) (reviewsResponse, string) {
	store := review.NewStore(h.Reviews, h.Log)
	store.Fetch(ctx, model.ReviewFilter{Status: model.ReviewApproved, RoomSlug: slug})
	st := store.State()
	if st.Error != "" {
		return reviewsResponse{}, st.Error
	}
	visible := review.Approved(review.ForRoom(st.Reviews, slug))
	return reviewsResponse{
		Stats: review.CalculateStats(visible),
		Page:  review.Paginate(visible, page, perPage),
	}, ""
}

// QuoteRequest is the occupancy a visitor asks a price for.
type QuoteRequest struct {
	CheckIn  model.Date `json:"checkIn" validate:"required"`
	CheckOut model.Date `json:"checkOut" validate:"required"`
	Adults   int        `json:"adults" validate:"min=1"`
	Children int        `json:"children" validate:"min=0"`
	Rooms    int        `json:"rooms" validate:"min=1"`
	Currency string     `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// Quote handles POST /v1/rooms/:slug/quote.
func (h *RoomHandler) Quote(c echo.Context) error {
	var req QuoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := quoteItem(c.Request().Context(), h.Rooms, c.Param("slug"), req)
	if err != nil {
		return quoteError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

var (
	errTooManyAdults   = errors.New("too many adults for this room")
	errTooManyChildren = errors.New("too many children for this room")
)

// quoteItem prices req against the room. Guest maxima are enforced here
// because the builder prices whatever it is given.
func quoteItem(ctx context.Context, rooms RoomService, slug string, req QuoteRequest) (model.CartItem, error) {
	room, err := rooms.GetRoom(ctx, slug)
	if err != nil {
		return model.CartItem{}, err
	}
	if room.MaxAdults > 0 && req.Adults > room.MaxAdults {
		return model.CartItem{}, errTooManyAdults
	}
	if room.MaxChildren > 0 && req.Children > room.MaxChildren {
		return model.CartItem{}, errTooManyChildren
	}
	return pricing.BuildRoomCartItem(pricing.Input{
		Room:     *room,
		Adults:   req.Adults,
		Children: req.Children,
		Rooms:    req.Rooms,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Currency: req.Currency,
	})
}

func quoteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, pricing.ErrInvalidStay), errors.Is(err, pricing.ErrInvalidRooms),
		errors.Is(err, errTooManyAdults), errors.Is(err, errTooManyChildren):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return roomError(c, err)
}

func roomError(c echo.Context, err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	msg := "failed to load room"
	if m, ok := apiclient.MessageOf(err); ok {
		msg = m
	}
	return c.JSON(http.StatusBadGateway, echo.Map{"error": msg})
}
