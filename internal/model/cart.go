package model

import "github.com/shopspring/decimal"

// Guests is the requested occupancy for a cart line item. Adults and
// Children are priced per room; Rooms is at least 1.
type Guests struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Rooms    int `json:"rooms"`
}

// PriceBreakdown records the intermediate values the builder derived the
// totals from. It is informational; Financials is authoritative.
type PriceBreakdown struct {
	ExtraAdults       int             `json:"extraAdults"`
	ExtraChildren     int             `json:"extraChildren"`
	ExtrasPerRoom     decimal.Decimal `json:"extrasPerRoom"`
	RoomPricePerNight decimal.Decimal `json:"roomPricePerNight"`
}

// Financials are the money fields of a cart line item. GrandTotal always
// equals BaseTotal + Taxes + ServiceCharge - DiscountAmount; ExtrasTotal is
// already folded into BaseTotal.
type Financials struct {
	BaseTotal      decimal.Decimal `json:"baseTotal"`
	ExtrasTotal    decimal.Decimal `json:"extrasTotal"`
	Taxes          decimal.Decimal `json:"taxes"`
	ServiceCharge  decimal.Decimal `json:"serviceCharge"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	Currency       string          `json:"currency"`
}

// Balanced reports whether GrandTotal matches its components.
func (f Financials) Balanced() bool {
	want := f.BaseTotal.Add(f.Taxes).Add(f.ServiceCharge).Sub(f.DiscountAmount)
	return f.GrandTotal.Equal(want)
}

// CartItem is the single active line item of a visitor's cart.
//
// Fields:
//  ID: line item id, assigned when the item enters the cart.
//  RoomID: backend room id.
//  RoomSlug: room slug used in page urls.
//  Name: display name of the room.
//  Image: display image url.
//  CheckIn: arrival date.
//  CheckOut: departure date, strictly after CheckIn.
//  Guests: occupancy.
//  Breakdown: intermediate pricing values.
//  Financials: priced totals.
//  PromoCode: optional promotion code.
type CartItem struct {
	ID         string         `json:"id"`
	RoomID     string         `json:"roomId"`
	RoomSlug   string         `json:"roomSlug"`
	Name       string         `json:"name"`
	Image      string         `json:"image,omitempty"`
	CheckIn    Date           `json:"checkIn"`
	CheckOut   Date           `json:"checkOut"`
	Guests     Guests         `json:"guests"`
	Breakdown  PriceBreakdown `json:"breakdown"`
	Financials Financials     `json:"financials"`
	PromoCode  string         `json:"promoCode,omitempty"`
}

// Nights is the length of the stay. Pricing does not use it.
func (c CartItem) Nights() int {
	return c.CheckIn.DaysUntil(c.CheckOut)
}

// RemoteCart is the cart record held by the backend for an authenticated
// user.
type RemoteCart struct {
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
