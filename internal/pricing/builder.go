// Package pricing turns a room definition and a requested occupancy into a
// priced cart line item.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/resort-storefront/internal/model"
)

var (
	// TaxRate and ServiceChargeRate are applied to the base total.
	TaxRate           = decimal.RequireFromString("0.10")
	ServiceChargeRate = decimal.RequireFromString("0.05")
)

var (
	ErrInvalidStay  = errors.New("check-out must be after check-in")
	ErrInvalidRooms = errors.New("at least one room is required")
)

// Input is everything BuildRoomCartItem prices against.
type Input struct {
	Room     model.RoomConfig
	Adults   int
	Children int
	Rooms    int
	CheckIn  model.Date
	CheckOut model.Date
	// Currency is the display currency; when empty the room's currency
	// is used.
	Currency string
}

// BuildRoomCartItem prices one room configuration.
//
// The base total is the per-night room price multiplied by the number of
// rooms, not by the number of nights. Guest counts above the room maxima
// are priced as given; callers enforce the caps. No rounding is applied.
func BuildRoomCartItem(in Input) (model.CartItem, error) {
	if in.Rooms < 1 {
		return model.CartItem{}, ErrInvalidRooms
	}
	if !in.CheckOut.After(in.CheckIn.Time) {
		return model.CartItem{}, ErrInvalidStay
	}

	r := in.Room
	extraAdults := max(0, in.Adults-r.BaseAdults)
	extraChildren := max(0, in.Children-r.BaseChildren)

	extrasPerRoom := r.ExtraAdultPrice.Mul(decimal.NewFromInt(int64(extraAdults))).
		Add(r.ExtraChildPrice.Mul(decimal.NewFromInt(int64(extraChildren))))
	perNight := r.BasePrice.Add(extrasPerRoom)

	rooms := decimal.NewFromInt(int64(in.Rooms))
	baseTotal := perNight.Mul(rooms)
	taxes := baseTotal.Mul(TaxRate)
	service := baseTotal.Mul(ServiceChargeRate)

	currency := in.Currency
	if currency == "" {
		currency = r.Currency
	}

	return model.CartItem{
		RoomID:   r.ID,
		RoomSlug: r.Slug,
		Name:     r.Name,
		Image:    r.Image,
		CheckIn:  in.CheckIn,
		CheckOut: in.CheckOut,
		Guests: model.Guests{
			Adults:   in.Adults,
			Children: in.Children,
			Rooms:    in.Rooms,
		},
		Breakdown: model.PriceBreakdown{
			ExtraAdults:       extraAdults,
			ExtraChildren:     extraChildren,
			ExtrasPerRoom:     extrasPerRoom,
			RoomPricePerNight: perNight,
		},
		Financials: model.Financials{
			BaseTotal:      baseTotal,
			ExtrasTotal:    extrasPerRoom.Mul(rooms),
			Taxes:          taxes,
			ServiceCharge:  service,
			DiscountAmount: decimal.Zero,
			GrandTotal:     baseTotal.Add(taxes).Add(service),
			Currency:       currency,
		},
	}, nil
}
