// Package events defines the messages this service exchanges over the
// broker and the publisher/consumer plumbing around them.
package events

// BookingConfirmedEvent is published when a booking is successfully
// confirmed. It carries enough for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        string   `json:"booking_id"`
	EventID          string   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	Venue            string   `json:"venue"`
	UserID           string   `json:"user_id"`
	SeatIDs          []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	PaymentRef       string   `json:"payment_ref"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
