package model

import "github.com/shopspring/decimal"

// RoomConfig is the room definition the rooms service returns and the
// cart item builder prices against.
//
// Fields:
//  ID, Slug, Name, Image: identity and display.
//  BasePrice: nightly price for one room at base occupancy.
//  BaseAdults, MaxAdults: adults included in BasePrice, and the cap.
//  BaseChildren, MaxChildren: children included in BasePrice, and the cap.
//  ExtraAdultPrice: surcharge per adult above BaseAdults.
//  ExtraChildPrice: surcharge per child above BaseChildren.
//  Currency: currency the prices are expressed in.
type RoomConfig struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug"`
	Name            string          `json:"name"`
	Image           string          `json:"image,omitempty"`
	BasePrice       decimal.Decimal `json:"basePrice"`
	BaseAdults      int             `json:"baseAdults"`
	MaxAdults       int             `json:"maxAdults"`
	BaseChildren    int             `json:"baseChildren"`
	MaxChildren     int             `json:"maxChildren"`
	ExtraAdultPrice decimal.Decimal `json:"extraAdultPrice"`
	ExtraChildPrice decimal.Decimal `json:"extraChildPrice"`
	Currency        string          `json:"currency,omitempty"`
}
