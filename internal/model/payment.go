package model

// PaymentOrder is issued by the backend for one checkout attempt and
// consumed once to open the checkout widget.
//
// Fields:
//  Amount: amount in the gateway's minor units.
//  Currency: ISO currency code.
//  OrderID: gateway order id.
type PaymentOrder struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"razorpayOrderId"`
}

// PaymentResponse is the raw success payload the widget hands back.
type PaymentResponse struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentFailure is the error object the widget reports on a failed
// payment.
type PaymentFailure struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
}

// Prefill is the contact data shown in the widget.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}
