package model

import "time"

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// RoomRef identifies the room a booking was for.
type RoomRef struct {
	ID   string `json:"_id"`
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// BookingRef identifies the completed booking a review belongs to.
type BookingRef struct {
	ID   string  `json:"_id"`
	Room RoomRef `json:"room"`
}

// UserRef is the review author.
type UserRef struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Review is one guest's rating and comment for a completed booking.
// Rating is 1..5; only approved reviews are public.
type Review struct {
	ID        string       `json:"_id"`
	Booking   BookingRef   `json:"booking"`
	User      UserRef      `json:"user"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Visible reports whether the review may be shown publicly.
func (r Review) Visible() bool {
	return r.Status == ReviewApproved
}

// ReviewFilter narrows a review listing. Empty fields are not sent.
type ReviewFilter struct {
	Status   ReviewStatus `json:"status,omitempty"`
	RoomSlug string       `json:"roomSlug,omitempty"`
	UserID   string       `json:"userId,omitempty"`
}

// ReviewSubmission is the payload of a new review. Token is the
// verification token that binds the review to a completed booking.
type ReviewSubmission struct {
	Token     string `json:"token" validate:"required"`
	BookingID string `json:"bookingId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ReviewVerification is what the backend returns for a valid token.
type ReviewVerification struct {
	BookingID string `json:"bookingId"`
	UserID    string `json:"userId"`
	Message   string `json:"message,omitempty"`
}

// StarBucket is one row of a rating distribution.
type StarBucket struct {
	Star    int     `json:"star"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// RatingDistribution is derived from a set of reviews on every read.
// Distribution always lists stars 5 down to 1.
type RatingDistribution struct {
	AvgRating    string        `json:"avgRating"`
	Total        int           `json:"total"`
	Distribution [5]StarBucket `json:"distribution"`
}
