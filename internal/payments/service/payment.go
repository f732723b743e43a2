package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/internal/bookings/repository"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/events"
	"innkeep/pkg/gateway"
	"innkeep/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Gateway is the payment-gateway surface the service depends on. The real
// implementation is pkg/gateway.Client.
type Gateway interface {
	Configured() bool
	CreateOrder(amount float64, currency, receipt string) (*gateway.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// RevenueLedger is the slice of the revenue repository payments write to.
// FindByBooking returns (nil, nil) when no row exists.
type RevenueLedger interface {
	Create(ctx context.Context, rev *model.Revenue) error
	FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error)
	UpdateAmount(ctx context.Context, id string, amount float64, method string) error
}

// RoomSynchronizer refreshes the cached room status after a payment moves a
// booking's lifecycle forward.
type RoomSynchronizer interface {
	SynchronizeRoomStatus(ctx context.Context, roomNumber string, property model.Property) error
}

type ManualPaymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

type OrderRequest struct {
	Amount float64 `json:"amount"`
}

type VerifyRequest struct {
	BookingID string  `json:"booking_id"`
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"payment_id"`
	Signature string  `json:"signature"`
	Amount    float64 `json:"amount"`
}

type PaymentService interface {
	ApplyManualPayment(ctx context.Context, actor model.ActorContext, bookingID string, req ManualPaymentRequest) (*model.Booking, error)
	CreateGatewayOrder(ctx context.Context, bookingID string, req OrderRequest) (*gateway.Order, error)
	VerifyGatewayPayment(ctx context.Context, req VerifyRequest) (*model.Booking, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

type paymentService struct {
	repo     repository.BookingRepository
	lockRepo repository.SlotLockRepository
	revenue  RevenueLedger
	rooms    RoomSynchronizer
	gateway  Gateway
	events   events.Publisher
	cfg      *config.Config
}

func NewPaymentService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	revenue RevenueLedger,
	rooms RoomSynchronizer,
	gw Gateway,
	publisher events.Publisher,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:     repo,
		lockRepo: lockRepo,
		revenue:  revenue,
		rooms:    rooms,
		gateway:  gw,
		events:   publisher,
		cfg:      cfg,
	}
}

// ApplyManualPayment records a front-desk payment against the booking. The
// advance accumulates; the booking's single manual revenue row is updated in
// place to the cumulative advance so the ledger never double counts. Paying
// more than the outstanding balance settles the booking at zero balance.
func (s *paymentService) ApplyManualPayment(ctx context.Context, actor model.ActorContext, bookingID string, req ManualPaymentRequest) (*model.Booking, error) {
	if req.Amount <= 0 {
		return nil, apperrors.InvalidInput("Payment amount must be positive")
	}
	method := req.Method
	if method == "" {
		method = model.PaymentMethodCash
	}
	if method == model.PaymentMethodOnline {
		return nil, apperrors.InvalidInput("Online payments must go through the gateway")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(booking.Property) {
		return nil, apperrors.Forbidden("Cannot record a payment in another property")
	}
	if booking.Status == model.BookingCancelled {
		return nil, apperrors.Conflict("Cannot record a payment against a cancelled booking")
	}

	lockID, err := s.acquirePaymentLock(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release payment lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	booking.Advance += req.Amount
	if booking.Status == model.BookingPending {
		booking.Status = model.BookingConfirmed
	}
	booking.Reconcile()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, bookingID, booking); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return s.upsertManualRevenue(sessCtx, booking, method)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to apply manual payment", "booking_id", bookingID, "error", err)
		return nil, err
	}

	if err := s.rooms.SynchronizeRoomStatus(ctx, booking.RoomNumber, booking.Property); err != nil {
		s.cfg.Log.Warn("Failed to synchronize room status after payment", "booking_id", bookingID, "error", err)
	}

	s.events.Publish(ctx, events.BookingEvent{
		Type:          events.TypePaymentReceived,
		BookingID:     booking.ID,
		Property:      booking.Property,
		RoomNumber:    booking.RoomNumber,
		PaymentStatus: booking.PaymentStatus,
		Amount:        req.Amount,
		Method:        method,
	})

	s.cfg.Log.Info("Manual payment applied",
		"booking_id", bookingID,
		"amount", req.Amount,
		"method", method,
		"advance", booking.Advance,
		"balance", booking.Balance,
		"payment_status", booking.PaymentStatus,
	)
	return booking, nil
}

// CreateGatewayOrder opens a gateway order for the booking's outstanding
// balance (or a smaller explicit amount) and pins the order ID to the
// booking for webhook correlation.
func (s *paymentService) CreateGatewayOrder(ctx context.Context, bookingID string, req OrderRequest) (*gateway.Order, error) {
	if !s.gateway.Configured() {
		return nil, apperrors.Unavailable("Payment gateway")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCancelled {
		return nil, apperrors.Conflict("Cannot collect payment for a cancelled booking")
	}

	amount := req.Amount
	if amount == 0 {
		amount = booking.Balance
	}
	if amount <= 0 {
		return nil, apperrors.InvalidInput("Nothing left to pay on this booking")
	}
	if amount > booking.Balance {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"Order amount %.2f exceeds outstanding balance %.2f", amount, booking.Balance,
		))
	}

	order, err := s.gateway.CreateOrder(amount, "INR", bookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to create gateway order", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to create payment order", err)
	}

	booking.GatewayOrderID = order.ID
	if _, err := s.repo.Update(ctx, bookingID, booking); err != nil {
		return nil, apperrors.Internal("Failed to attach gateway order to booking", err)
	}

	s.cfg.Log.Info("Gateway order created", "booking_id", bookingID, "order_id", order.ID, "amount", amount)
	return order, nil
}

// VerifyGatewayPayment settles the checkout callback. A bad signature
// rejects the request and leaves the booking untouched.
func (s *paymentService) VerifyGatewayPayment(ctx context.Context, req VerifyRequest) (*model.Booking, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, apperrors.InvalidInput("order_id, payment_id and signature are required")
	}

	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		s.cfg.Log.Warn("Payment signature mismatch", "order_id", req.OrderID, "payment_id", req.PaymentID)
		return nil, apperrors.SignatureMismatch("Payment signature verification failed")
	}

	booking, err := s.resolveBookingForOrder(ctx, req.BookingID, req.OrderID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount <= 0 {
		amount = booking.Balance
	}

	return s.settleOnlinePayment(ctx, booking, req.PaymentID, amount, "")
}

// HandleWebhook processes gateway webhooks. The signature covers the raw
// body, so callers must pass it unmodified. Events other than
// payment.captured are acknowledged and dropped.
func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		s.cfg.Log.Warn("Webhook signature mismatch")
		return apperrors.SignatureMismatch("Webhook signature verification failed")
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.InvalidInput("Malformed webhook payload")
	}

	if event.Event != gateway.EventPaymentCaptured {
		s.cfg.Log.Debug("Ignoring webhook event", "event", event.Event)
		return nil
	}

	entity := event.Payload.Payment.Entity
	booking, err := s.repo.FindByGatewayOrder(ctx, entity.OrderID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Warn("Webhook for unknown gateway order", "order_id", entity.OrderID)
			return nil
		}
		return apperrors.Internal("Failed to resolve webhook booking", err)
	}

	// Paise to rupees.
	amount := float64(entity.Amount) / 100

	_, err = s.settleOnlinePayment(ctx, booking, entity.ID, amount, entity.Method)
	return err
}

// settleOnlinePayment applies a verified gateway capture: the advance is set
// to the amount paid, a Pending booking becomes Confirmed, and a fresh
// Online revenue row is appended. Replays of an already-applied payment ID
// are no-ops.
func (s *paymentService) settleOnlinePayment(ctx context.Context, booking *model.Booking, paymentID string, amount float64, gatewayMethod string) (*model.Booking, error) {
	if booking.GatewayPaymentID == paymentID {
		s.cfg.Log.Info("Gateway payment already applied", "booking_id", booking.ID, "payment_id", paymentID)
		return booking, nil
	}
	if booking.Status == model.BookingCancelled {
		return nil, apperrors.Conflict("Cannot settle payment for a cancelled booking")
	}

	lockID, err := s.acquirePaymentLock(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release payment lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	booking.Advance = amount
	booking.GatewayPaymentID = paymentID
	if booking.Status == model.BookingPending {
		booking.Status = model.BookingConfirmed
	}
	booking.Reconcile()

	description := fmt.Sprintf("Online payment %s for booking %s", paymentID, booking.ID)
	if gatewayMethod != "" {
		description += " via " + gatewayMethod
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, booking.ID, booking); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}

		rev := &model.Revenue{
			Date:          time.Now().UTC(),
			Source:        model.RevenueSourceRoomBooking,
			BookingSource: booking.Source,
			Amount:        amount,
			Description:   description,
			BookingID:     booking.ID,
			PaymentMethod: model.PaymentMethodOnline,
			Status:        model.RevenueReceived,
			Property:      booking.Property,
		}
		if err := s.revenue.Create(sessCtx, rev); err != nil {
			return apperrors.Internal("Failed to record online revenue", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to settle gateway payment", "booking_id", booking.ID, "payment_id", paymentID, "error", err)
		return nil, err
	}

	if err := s.rooms.SynchronizeRoomStatus(ctx, booking.RoomNumber, booking.Property); err != nil {
		s.cfg.Log.Warn("Failed to synchronize room status after payment", "booking_id", booking.ID, "error", err)
	}

	s.events.Publish(ctx, events.BookingEvent{
		Type:          events.TypePaymentReceived,
		BookingID:     booking.ID,
		Property:      booking.Property,
		RoomNumber:    booking.RoomNumber,
		PaymentStatus: booking.PaymentStatus,
		Amount:        amount,
		Method:        model.PaymentMethodOnline,
	})

	s.cfg.Log.Info("Gateway payment settled",
		"booking_id", booking.ID,
		"payment_id", paymentID,
		"amount", amount,
		"payment_status", booking.PaymentStatus,
	)
	return booking, nil
}

// upsertManualRevenue keeps exactly one manual revenue row per booking with
// the cumulative advance, so repeated front-desk payments never inflate the
// ledger. Gateway payments append instead; those rows are left alone.
func (s *paymentService) upsertManualRevenue(ctx context.Context, booking *model.Booking, method string) error {
	existing, err := s.revenue.FindByBooking(ctx, booking.ID)
	if err != nil {
		return apperrors.Internal("Failed to check revenue ledger", err)
	}

	if existing != nil && existing.PaymentMethod != model.PaymentMethodOnline && existing.Status != model.RevenueRefunded {
		if err := s.revenue.UpdateAmount(ctx, existing.ID, booking.Advance, method); err != nil {
			return apperrors.Internal("Failed to update revenue ledger", err)
		}
		return nil
	}

	rev := &model.Revenue{
		Date:          time.Now().UTC(),
		Source:        model.RevenueSourceRoomBooking,
		BookingSource: booking.Source,
		Amount:        booking.Advance,
		Description:   fmt.Sprintf("Payment for booking %s, room %s", booking.ID, booking.RoomNumber),
		BookingID:     booking.ID,
		PaymentMethod: method,
		Status:        model.RevenueReceived,
		Property:      booking.Property,
	}
	if err := s.revenue.Create(ctx, rev); err != nil {
		return apperrors.Internal("Failed to record revenue", err)
	}
	return nil
}

func (s *paymentService) resolveBookingForOrder(ctx context.Context, bookingID, orderID string) (*model.Booking, error) {
	if bookingID != "" {
		booking, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if booking.GatewayOrderID != orderID {
			return nil, apperrors.InvalidInput("Order does not belong to this booking")
		}
		return booking, nil
	}

	booking, err := s.repo.FindByGatewayOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking for gateway order")
		}
		return nil, apperrors.Internal("Failed to resolve booking for order", err)
	}
	return booking, nil
}

func (s *paymentService) loadBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *paymentService) acquirePaymentLock(ctx context.Context, bookingID string) (string, error) {
	lockID := "payment_" + bookingID

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("A payment for this booking is already in progress. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire payment lock", err)
	}

	return lockID, nil
}
