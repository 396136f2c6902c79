// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. Routing uses the default exchange, so the routing key is
// the queue name.
const (
	PaymentCompletedQueue = "payment.completed"
	PaymentFailedQueue    = "payment.failed"
	ReviewSubmittedQueue  = "review.submitted"
	ReviewModeratedQueue  = "review.moderated"
)

// PaymentCompletedEvent is published after the widget reports a verified
// payment for a cart.
type PaymentCompletedEvent struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id,omitempty"`
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	RoomSlug    string `json:"room_slug,omitempty"`
	CheckIn     string `json:"check_in,omitempty"`
	CheckOut    string `json:"check_out,omitempty"`
	CompletedAt string `json:"completed_at"`
}

// PaymentFailedEvent is published when a checkout ends without payment.
// Cancelled is set when the visitor closed the widget.
type PaymentFailedEvent struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Reason    string `json:"reason"`
	Cancelled bool   `json:"cancelled"`
	FailedAt  string `json:"failed_at"`
}

// ReviewSubmittedEvent is published after the review service accepted a
// submission. The review itself stays pending until moderated.
type ReviewSubmittedEvent struct {
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	Rating      int    `json:"rating"`
	SubmittedAt string `json:"submitted_at"`
}

// ReviewModeratedEvent is consumed from the moderation side. A change of
// status makes cached review pages for the room stale.
type ReviewModeratedEvent struct {
	ReviewID    string `json:"review_id"`
	RoomSlug    string `json:"room_slug"`
	Status      string `json:"status"`
	ModeratedAt string `json:"moderated_at"`
}
