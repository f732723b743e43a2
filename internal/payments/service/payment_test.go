package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"innkeep/internal/bookings/repository"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	"innkeep/pkg/events"
	"innkeep/pkg/gateway"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockBookingRepo struct {
	bookings map[string]*model.Booking
	updates  int
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error { return nil }

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		copy := *b
		return &copy, nil
	}
	return nil, fmt.Errorf("booking not found")
}

func (m *mockBookingRepo) FindAll(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) Count(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepo) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	m.updates++
	copy := *booking
	m.bookings[id] = &copy
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockBookingRepo) SetStatus(ctx context.Context, id string, status string) error { return nil }

func (m *mockBookingRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockBookingRepo) FindOverlapping(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) FindActiveInRange(ctx context.Context, property model.Property, from, to time.Time) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) FindExpiredActive(ctx context.Context, asOf time.Time) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) FindByGatewayOrder(ctx context.Context, orderID string) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.GatewayOrderID == orderID {
			copy := *b
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("booking not found")
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepo struct{}

func (m *mockLockRepo) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	return lock, nil
}

func (m *mockLockRepo) Delete(ctx context.Context, lockID string) error { return nil }

type mockLedger struct {
	rows []*model.Revenue
}

func (m *mockLedger) Create(ctx context.Context, rev *model.Revenue) error {
	copy := *rev
	copy.ID = fmt.Sprintf("rev%d", len(m.rows)+1)
	m.rows = append(m.rows, &copy)
	return nil
}

func (m *mockLedger) FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error) {
	for _, r := range m.rows {
		if r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockLedger) UpdateAmount(ctx context.Context, id string, amount float64, method string) error {
	for _, r := range m.rows {
		if r.ID == id {
			r.Amount = amount
			r.PaymentMethod = method
			return nil
		}
	}
	return fmt.Errorf("revenue row not found")
}

type mockSynchronizer struct {
	calls int
}

func (m *mockSynchronizer) SynchronizeRoomStatus(ctx context.Context, roomNumber string, property model.Property) error {
	m.calls++
	return nil
}

const testKeySecret = "test_key_secret"

func testGateway() *gateway.Client {
	return gateway.New(gateway.Config{
		BaseURL:   "http://gateway.invalid",
		KeyID:     "test_key_id",
		KeySecret: testKeySecret,
		Log: logger.New(logger.Config{
			Level:   "info",
			Format:  logger.JSON,
			Service: "test",
		}),
	})
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestService(repo *mockBookingRepo, ledger *mockLedger, sync *mockSynchronizer) *paymentService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &paymentService{
		repo:     repo,
		lockRepo: &mockLockRepo{},
		revenue:  ledger,
		rooms:    sync,
		gateway:  testGateway(),
		events:   events.NopPublisher{},
		cfg: &config.Config{
			Log:          log,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			SlotLockTTL:  10 * time.Second,
		},
	}
}

func pendingBooking() *model.Booking {
	b := &model.Booking{
		ID:         "65a000000000000000000001",
		Guest:      "Asha Varma",
		Email:      "asha@example.com",
		Phone:      "+919876543210",
		Property:   model.PropertyPremKunj,
		Room:       "Deluxe Suite",
		RoomNumber: "201",
		CheckIn:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Amount:     8000,
		Status:     model.BookingPending,
		Source:     model.SourceWebsite,
	}
	b.Reconcile()
	return b
}

func TestApplyManualPayment_AccumulatesAndUpsertsRevenue(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	b := pendingBooking()
	repo.bookings[b.ID] = b
	ledger := &mockLedger{}
	svc := newTestService(repo, ledger, &mockSynchronizer{})

	first, err := svc.ApplyManualPayment(context.Background(), model.AdminActor(), b.ID, ManualPaymentRequest{Amount: 3000, Method: model.PaymentMethodCash})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Advance != 3000 || first.Balance != 5000 {
		t.Errorf("after first payment advance=%v balance=%v", first.Advance, first.Balance)
	}
	if first.Status != model.BookingConfirmed {
		t.Errorf("status = %q, want Confirmed once paid", first.Status)
	}
	if first.PaymentStatus != model.PaymentPartial {
		t.Errorf("payment status = %q, want Partial", first.PaymentStatus)
	}

	second, err := svc.ApplyManualPayment(context.Background(), model.AdminActor(), b.ID, ManualPaymentRequest{Amount: 5000, Method: model.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Advance != 8000 || second.Balance != 0 {
		t.Errorf("after second payment advance=%v balance=%v", second.Advance, second.Balance)
	}
	if second.PaymentStatus != model.PaymentPaid {
		t.Errorf("payment status = %q, want Paid", second.PaymentStatus)
	}

	// One cumulative row, not one per payment.
	if len(ledger.rows) != 1 {
		t.Fatalf("revenue rows = %d, want 1", len(ledger.rows))
	}
	if ledger.rows[0].Amount != 8000 {
		t.Errorf("revenue amount = %v, want cumulative 8000", ledger.rows[0].Amount)
	}
	if ledger.rows[0].PaymentMethod != model.PaymentMethodUPI {
		t.Errorf("revenue method = %q, want latest method UPI", ledger.rows[0].PaymentMethod)
	}
}

func TestApplyManualPayment_OverpaymentSettlesAtZero(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	b := pendingBooking()
	repo.bookings[b.ID] = b
	ledger := &mockLedger{}
	svc := newTestService(repo, ledger, &mockSynchronizer{})

	settled, err := svc.ApplyManualPayment(context.Background(), model.AdminActor(), b.ID, ManualPaymentRequest{Amount: 9000, Method: model.PaymentMethodCash})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.Advance != 9000 {
		t.Errorf("advance = %v, want 9000", settled.Advance)
	}
	if settled.Balance != 0 {
		t.Errorf("balance = %v, want floor at 0", settled.Balance)
	}
	if settled.PaymentStatus != model.PaymentPaid {
		t.Errorf("payment status = %q, want Paid", settled.PaymentStatus)
	}
	if len(ledger.rows) != 1 || ledger.rows[0].Amount != 9000 {
		t.Errorf("revenue rows = %+v, want one cumulative row of 9000", ledger.rows)
	}
}

func TestApplyManualPayment_RejectsCancelledBooking(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	b := pendingBooking()
	b.Status = model.BookingCancelled
	b.Reconcile()
	repo.bookings[b.ID] = b
	svc := newTestService(repo, &mockLedger{}, &mockSynchronizer{})

	_, err := svc.ApplyManualPayment(context.Background(), model.AdminActor(), b.ID, ManualPaymentRequest{Amount: 1000})
	if err == nil {
		t.Fatal("expected conflict for cancelled booking")
	}
}

func TestVerifyGatewayPayment_BadSignatureLeavesBookingUntouched(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	b := pendingBooking()
	b.GatewayOrderID = "order_123"
	repo.bookings[b.ID] = b
	ledger := &mockLedger{}
	svc := newTestService(repo, ledger, &mockSynchronizer{})

	_, err := svc.VerifyGatewayPayment(context.Background(), VerifyRequest{
		BookingID: b.ID,
		OrderID:   "order_123",
		PaymentID: "pay_456",
		Signature: "forged",
		Amount:    8000,
	})
	if err == nil {
		t.Fatal("expected signature mismatch error")
	}

	if repo.updates != 0 {
		t.Error("booking must not be written on signature mismatch")
	}
	if len(ledger.rows) != 0 {
		t.Error("no revenue may be recorded on signature mismatch")
	}
}

func TestVerifyGatewayPayment_SettlesBooking(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	b := pendingBooking()
	b.GatewayOrderID = "order_123"
	repo.bookings[b.ID] = b
	ledger := &mockLedger{}
	sync := &mockSynchronizer{}
	svc := newTestService(repo, ledger, sync)

	signature := sign(testKeySecret, []byte("order_123|pay_456"))
	settled, err := svc.VerifyGatewayPayment(context.Background(), VerifyRequest{
		BookingID: b.ID,
		OrderID:   "order_123",
		PaymentID: "pay_456",
		Signature: signature,
		Amount:    8000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settled.Advance != 8000 || settled.Balance != 0 {
		t.Errorf("advance=%v balance=%v", settled.Advance, settled.Balance)
	}
	if settled.Status != model.BookingConfirmed {
		t.Errorf("status = %q, want Confirmed", settled.Status)
	}
	if settled.PaymentStatus != model.PaymentPaid {
		t.Errorf("payment status = %q, want Paid", settled.PaymentStatus)
	}
	if settled.GatewayPaymentID != "pay_456" {
		t.Errorf("gateway payment id = %q", settled.GatewayPaymentID)
	}

	if len(ledger.rows) != 1 {
		t.Fatalf("revenue rows = %d, want 1", len(ledger.rows))
	}
	if ledger.rows[0].PaymentMethod != model.PaymentMethodOnline {
		t.Errorf("revenue method = %q, want Online", ledger.rows[0].PaymentMethod)
	}
	if sync.calls == 0 {
		t.Error("room status must be resynchronized after settlement")
	}
}

func TestHandleWebhook_CapturesPaymentAndIgnoresReplay(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	b := pendingBooking()
	b.GatewayOrderID = "order_123"
	repo.bookings[b.ID] = b
	ledger := &mockLedger{}
	svc := newTestService(repo, ledger, &mockSynchronizer{})

	body := []byte(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": "pay_789",
			"order_id": "order_123",
			"amount": 800000,
			"method": "upi"
		}}}
	}`)
	signature := sign(testKeySecret, body)

	if err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.bookings[b.ID]
	if stored.Advance != 8000 {
		t.Errorf("advance = %v, want 8000 (paise converted)", stored.Advance)
	}
	if stored.GatewayPaymentID != "pay_789" {
		t.Errorf("gateway payment id = %q", stored.GatewayPaymentID)
	}
	if len(ledger.rows) != 1 {
		t.Fatalf("revenue rows = %d, want 1", len(ledger.rows))
	}

	// Replay of the same capture must not double apply.
	if err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if len(ledger.rows) != 1 {
		t.Errorf("revenue rows after replay = %d, want 1", len(ledger.rows))
	}
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	svc := newTestService(repo, &mockLedger{}, &mockSynchronizer{})

	body := []byte(`{"event": "payment.captured"}`)
	if err := svc.HandleWebhook(context.Background(), body, "forged"); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	ledger := &mockLedger{}
	svc := newTestService(repo, ledger, &mockSynchronizer{})

	body := []byte(`{"event": "payment.authorized"}`)
	signature := sign(testKeySecret, body)

	if err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.rows) != 0 {
		t.Error("non-captured events must not touch the ledger")
	}
}
