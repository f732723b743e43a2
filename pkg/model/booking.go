package model

import "time"

const (
	BookingPending    = "Pending"
	BookingConfirmed  = "Confirmed"
	BookingCheckedIn  = "Checked-in"
	BookingCheckedOut = "Checked-out"
	BookingCancelled  = "Cancelled"
)

const (
	PaymentPending   = "Pending"
	PaymentPartial   = "Partial"
	PaymentPaid      = "Paid"
	PaymentCancelled = "Cancelled"
)

const (
	SourceWebsite   = "Website"
	SourceDashboard = "Dashboard"
	SourceDirect    = "Direct"
)

// FoodLine is one food charge embedded on a booking. The authoritative order
// record lives in the food_orders collection; these lines exist so the
// booking's balance can be derived from the booking document alone.
type FoodLine struct {
	Item     string    `json:"item" bson:"item"`
	Quantity int       `json:"quantity" bson:"quantity"`
	Price    float64   `json:"price" bson:"price"`
	Amount   float64   `json:"amount" bson:"amount"`
	Date     time.Time `json:"date" bson:"date"`
}

type ExtraCharge struct {
	Description string    `json:"description" bson:"description"`
	Amount      float64   `json:"amount" bson:"amount"`
	Date        time.Time `json:"date" bson:"date"`
}

type Booking struct {
	ID    string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Guest string `json:"guest" bson:"guest" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone" bson:"phone" validate:"required,min=7,max=20"`

	Property   Property `json:"property" bson:"property" validate:"required"`
	Room       string   `json:"room" bson:"room" validate:"required"`
	RoomNumber string   `json:"room_number" bson:"room_number" validate:"required"`

	CheckIn  time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Adults   int       `json:"adults" bson:"adults" validate:"omitempty,min=1,max=20"`
	Children int       `json:"children" bson:"children" validate:"omitempty,min=0,max=20"`
	Nights   int       `json:"nights" bson:"nights" validate:"omitempty,min=1"`

	Amount       float64       `json:"amount" bson:"amount" validate:"required,gt=0"`
	Advance      float64       `json:"advance" bson:"advance" validate:"omitempty,min=0"`
	Balance      float64       `json:"balance" bson:"balance"`
	FoodOrders   []FoodLine    `json:"food_orders,omitempty" bson:"food_orders,omitempty"`
	ExtraCharges []ExtraCharge `json:"extra_charges,omitempty" bson:"extra_charges,omitempty"`

	PaymentStatus string `json:"payment_status" bson:"payment_status" validate:"omitempty,oneof=Pending Partial Paid Cancelled"`
	Status        string `json:"status" bson:"status" validate:"omitempty,oneof=Pending Confirmed Checked-in Checked-out Cancelled"`
	Source        string `json:"source" bson:"source" validate:"omitempty,oneof=Website Dashboard Direct"`

	SpecialRequests string `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"omitempty,max=500"`

	GatewayOrderID   string `json:"gateway_order_id,omitempty" bson:"gateway_order_id,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty" bson:"gateway_payment_id,omitempty"`

	// PaymentMethod tags the advance paid at creation for the revenue
	// ledger. Not persisted on the booking itself.
	PaymentMethod string `json:"payment_method,omitempty" bson:"-" validate:"omitempty,oneof='Cash' 'Card' 'UPI' 'Bank Transfer' 'Online'"`

	BookingDate time.Time `json:"booking_date" bson:"booking_date" validate:"omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// TotalCharge is the full amount owed for the stay: base room charge plus
// every food and extra-charge line.
func (b *Booking) TotalCharge() float64 {
	total := b.Amount
	for _, f := range b.FoodOrders {
		total += f.Amount
	}
	for _, e := range b.ExtraCharges {
		total += e.Amount
	}
	return total
}

// DeriveBalance recomputes the stored balance from charges and advance,
// floored at zero. Idempotent: re-running with unchanged inputs yields the
// same result.
func (b *Booking) DeriveBalance() float64 {
	return max(0, b.TotalCharge()-b.Advance)
}

// DerivePaymentStatus is the pure payment-status function. A cancelled
// booking is always PaymentCancelled with zero balance, overriding the
// balance-based derivation.
func (b *Booking) DerivePaymentStatus() string {
	if b.Status == BookingCancelled {
		return PaymentCancelled
	}
	balance := b.DeriveBalance()
	switch {
	case balance <= 0 && b.TotalCharge() > 0:
		return PaymentPaid
	case b.Advance > 0 && balance > 0:
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// Reconcile refreshes the derived fields after any mutation to amount,
// advance, food lines or extra charges.
func (b *Booking) Reconcile() {
	if b.Status == BookingCancelled {
		b.Balance = 0
		b.PaymentStatus = PaymentCancelled
		return
	}
	b.Balance = b.DeriveBalance()
	b.PaymentStatus = b.DerivePaymentStatus()
}

// Active reports whether the booking currently reserves its room. Pending
// bookings do not block availability; only Confirmed and Checked-in do.
func (b *Booking) Active() bool {
	return b.Status == BookingConfirmed || b.Status == BookingCheckedIn
}

func (b *Booking) Terminal() bool {
	return b.Status == BookingCheckedOut || b.Status == BookingCancelled
}

type BookingUpdate struct {
	Guest           string     `json:"guest,omitempty" validate:"omitempty,min=2,max=100"`
	Email           string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string     `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	CheckIn         *time.Time `json:"check_in,omitempty"`
	CheckOut        *time.Time `json:"check_out,omitempty"`
	Adults          *int       `json:"adults,omitempty" validate:"omitempty,min=1,max=20"`
	Children        *int       `json:"children,omitempty" validate:"omitempty,min=0,max=20"`
	Amount          *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Status          string     `json:"status,omitempty" validate:"omitempty,oneof=Pending Confirmed Checked-in Checked-out Cancelled"`
	SpecialRequests string     `json:"special_requests,omitempty" validate:"omitempty,max=500"`
}

// AllowedTransition encodes the lifecycle state machine:
// Pending -> {Confirmed, Cancelled}; Confirmed -> {Checked-in, Checked-out,
// Cancelled}; Checked-in -> {Checked-out, Cancelled}; terminal states admit
// nothing further.
func AllowedTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCheckedIn || to == BookingCheckedOut || to == BookingCancelled
	case BookingCheckedIn:
		return to == BookingCheckedOut || to == BookingCancelled
	}
	return false
}
