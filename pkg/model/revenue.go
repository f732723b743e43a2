package model

import "time"

const (
	RevenueSourceRoomBooking = "Room Booking"
	RevenueSourceService     = "Service"
	RevenueSourceFood        = "Food & Beverage"
	RevenueSourceEvent       = "Event"
	RevenueSourceOther       = "Other"
)

const (
	RevenueReceived = "Received"
	RevenuePending  = "Pending"
	RevenueRefunded = "Refunded"
)

const (
	PaymentMethodCash         = "Cash"
	PaymentMethodCard         = "Card"
	PaymentMethodUPI          = "UPI"
	PaymentMethodBankTransfer = "Bank Transfer"
	PaymentMethodOnline       = "Online"
)

// Revenue is an audit/reporting projection of money received or refunded.
// It is derived from booking payment events and is never consulted to decide
// whether a booking has been paid; that is always recomputed from the
// booking's own advance and balance.
type Revenue struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Date          time.Time `json:"date" bson:"date" validate:"required"`
	Source        string    `json:"source" bson:"source" validate:"required,oneof='Room Booking' 'Service' 'Food & Beverage' 'Event' 'Other'"`
	BookingSource string    `json:"booking_source,omitempty" bson:"booking_source,omitempty" validate:"omitempty,oneof=Website Dashboard Direct"`
	Amount        float64   `json:"amount" bson:"amount" validate:"min=0"`
	Description   string    `json:"description" bson:"description" validate:"required"`
	BookingID     string    `json:"booking_id,omitempty" bson:"booking_id,omitempty" validate:"omitempty,mongodb"`
	PaymentMethod string    `json:"payment_method" bson:"payment_method" validate:"omitempty,oneof='Cash' 'Card' 'UPI' 'Bank Transfer' 'Online'"`
	Status        string    `json:"status" bson:"status" validate:"omitempty,oneof=Received Pending Refunded"`
	Property      Property  `json:"property" bson:"property" validate:"required"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// RevenueAnalytics is the read-only rollup served to dashboards. Only
// status=Received records contribute to the totals.
type RevenueAnalytics struct {
	Daily           float64           `json:"daily"`
	Monthly         float64           `json:"monthly"`
	Yearly          float64           `json:"yearly"`
	SourceBreakdown []SourceBreakdown `json:"source_breakdown"`
}

type SourceBreakdown struct {
	Source string  `json:"source" bson:"_id"`
	Total  float64 `json:"total" bson:"total"`
	Count  int64   `json:"count" bson:"count"`
}
