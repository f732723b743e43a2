package service

import (
	"context"
	"errors"
	"innkeep/internal/bookings/repository"
	"innkeep/internal/bookings/validator"
	roomserrors "innkeep/internal/rooms/errors"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/events"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repository for testing
type mockBookingRepository struct {
	createFunc            func(ctx context.Context, booking *model.Booking) error
	findByIDFunc          func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc           func(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	countFunc             func(ctx context.Context, filter repository.BookingFilter) (int64, error)
	updateFunc            func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	setStatusFunc         func(ctx context.Context, id string, status string) error
	deleteFunc            func(ctx context.Context, id string) error
	findOverlappingFunc   func(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error)
	findActiveInRangeFunc func(ctx context.Context, property model.Property, from, to time.Time) ([]*model.Booking, error)
	findExpiredActiveFunc func(ctx context.Context, asOf time.Time) ([]*model.Booking, error)
	findByGatewayFunc     func(ctx context.Context, orderID string) (*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "65a000000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockBookingRepository) SetStatus(ctx context.Context, id string, status string) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, roomNumber, property, checkIn, checkOut, excludeID)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindActiveInRange(ctx context.Context, property model.Property, from, to time.Time) ([]*model.Booking, error) {
	if m.findActiveInRangeFunc != nil {
		return m.findActiveInRangeFunc(ctx, property, from, to)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindExpiredActive(ctx context.Context, asOf time.Time) ([]*model.Booking, error) {
	if m.findExpiredActiveFunc != nil {
		return m.findExpiredActiveFunc(ctx, asOf)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindByGatewayOrder(ctx context.Context, orderID string) (*model.Booking, error) {
	if m.findByGatewayFunc != nil {
		return m.findByGatewayFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockSlotLockRepository struct {
	createFunc func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockSlotLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockSlotLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockRoomFinder struct {
	findByNumberFunc func(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error)
}

func (m *mockRoomFinder) FindByNumber(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error) {
	if m.findByNumberFunc != nil {
		return m.findByNumberFunc(ctx, roomNumber, property)
	}
	return &model.Room{Name: "Deluxe Suite", RoomNumber: roomNumber, Property: property, TotalPrice: 5000}, nil
}

type mockAvailability struct {
	isAvailableFunc func(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error)
	syncCalls       []string
}

func (m *mockAvailability) IsRoomAvailable(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error) {
	if m.isAvailableFunc != nil {
		return m.isAvailableFunc(ctx, roomNumber, property, checkIn, checkOut, excludeBookingID)
	}
	return true, nil
}

func (m *mockAvailability) SynchronizeRoomStatus(ctx context.Context, roomNumber string, property model.Property) error {
	m.syncCalls = append(m.syncCalls, roomNumber)
	return nil
}

type mockRevenueLedger struct {
	created      []*model.Revenue
	existing     *model.Revenue
	refundedFor  []string
	createErr    error
	findErr      error
	refundErr    error
}

func (m *mockRevenueLedger) Create(ctx context.Context, rev *model.Revenue) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, rev)
	return nil
}

func (m *mockRevenueLedger) FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error) {
	return m.existing, m.findErr
}

func (m *mockRevenueLedger) MarkRefundedByBooking(ctx context.Context, bookingID string) error {
	if m.refundErr != nil {
		return m.refundErr
	}
	m.refundedFor = append(m.refundedFor, bookingID)
	return nil
}

type mockGuestLedger struct {
	checkouts []*model.Booking
}

func (m *mockGuestLedger) RecordCheckout(ctx context.Context, booking *model.Booking) error {
	m.checkouts = append(m.checkouts, booking)
	return nil
}

type recordingPublisher struct {
	published []events.BookingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.BookingEvent) {
	p.published = append(p.published, evt)
}

func (p *recordingPublisher) Close() error { return nil }

type testDeps struct {
	repo    *mockBookingRepository
	locks   *mockSlotLockRepository
	rooms   *mockRoomFinder
	avail   *mockAvailability
	revenue *mockRevenueLedger
	guests  *mockGuestLedger
	pub     *recordingPublisher
}

func newTestService(d *testDeps) *bookingService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		SlotLockTTL:  10 * time.Second,
	}

	return &bookingService{
		repo:      d.repo,
		lockRepo:  d.locks,
		rooms:     d.rooms,
		avail:     d.avail,
		revenue:   d.revenue,
		guests:    d.guests,
		validator: validator.NewBookingValidator(log),
		events:    d.pub,
		cfg:       cfg,
	}
}

func defaultDeps() *testDeps {
	return &testDeps{
		repo:    &mockBookingRepository{},
		locks:   &mockSlotLockRepository{},
		rooms:   &mockRoomFinder{},
		avail:   &mockAvailability{},
		revenue: &mockRevenueLedger{},
		guests:  &mockGuestLedger{},
		pub:     &recordingPublisher{},
	}
}

func sampleBooking() *model.Booking {
	return &model.Booking{
		Guest:      "Rohan Mehta",
		Email:      "rohan@example.com",
		Phone:      "+919876543210",
		Property:   model.PropertyPrimeResidency,
		RoomNumber: "101",
		CheckIn:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Amount:     10000,
	}
}

func TestCreate_AdvanceConfirmsAndRecordsRevenue(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	booking := sampleBooking()
	booking.Advance = 4000
	booking.PaymentMethod = model.PaymentMethodUPI

	if err := svc.Create(context.Background(), model.AdminActor(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingConfirmed {
		t.Errorf("status = %q, want %q", booking.Status, model.BookingConfirmed)
	}
	if booking.Balance != 6000 {
		t.Errorf("balance = %v, want 6000", booking.Balance)
	}
	if booking.PaymentStatus != model.PaymentPartial {
		t.Errorf("payment status = %q, want %q", booking.PaymentStatus, model.PaymentPartial)
	}

	if len(deps.revenue.created) != 1 {
		t.Fatalf("revenue rows created = %d, want 1", len(deps.revenue.created))
	}
	rev := deps.revenue.created[0]
	if rev.Amount != 4000 || rev.Status != model.RevenueReceived || rev.Source != model.RevenueSourceRoomBooking {
		t.Errorf("revenue = %+v", rev)
	}
	if rev.PaymentMethod != model.PaymentMethodUPI {
		t.Errorf("revenue method = %q, want UPI", rev.PaymentMethod)
	}

	if len(deps.pub.published) != 1 || deps.pub.published[0].Type != events.TypeBookingCreated {
		t.Errorf("expected one booking.created event, got %+v", deps.pub.published)
	}
}

func TestCreate_WithoutAdvanceStaysPending(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	booking := sampleBooking()

	if err := svc.Create(context.Background(), model.AdminActor(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingPending {
		t.Errorf("status = %q, want %q", booking.Status, model.BookingPending)
	}
	if booking.PaymentStatus != model.PaymentPending {
		t.Errorf("payment status = %q, want %q", booking.PaymentStatus, model.PaymentPending)
	}
	if len(deps.revenue.created) != 0 {
		t.Errorf("revenue rows created = %d, want 0", len(deps.revenue.created))
	}
	// Pending bookings hold no inventory, so no room resync.
	if len(deps.avail.syncCalls) != 0 {
		t.Errorf("room sync calls = %v, want none", deps.avail.syncCalls)
	}
}

func TestCreate_RoomUnavailableConflicts(t *testing.T) {
	deps := defaultDeps()
	deps.avail.isAvailableFunc = func(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error) {
		return false, nil
	}
	created := false
	deps.repo.createFunc = func(ctx context.Context, booking *model.Booking) error {
		created = true
		return nil
	}
	svc := newTestService(deps)

	err := svc.Create(context.Background(), model.AdminActor(), sampleBooking())
	if err == nil {
		t.Fatal("expected conflict error, got nil")
	}
	if created {
		t.Error("booking must not be persisted when the room is unavailable")
	}
	if len(deps.revenue.created) != 0 {
		t.Error("no revenue may be recorded for a rejected booking")
	}
}

func TestCreate_SlotLockHeldConflicts(t *testing.T) {
	deps := defaultDeps()
	deps.locks.createFunc = func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	svc := newTestService(deps)

	err := svc.Create(context.Background(), model.AdminActor(), sampleBooking())
	if err == nil {
		t.Fatal("expected conflict while slot lock is held")
	}
}

func TestCreate_ManagerScopedToOwnProperty(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	booking := sampleBooking()
	booking.Property = model.PropertyPremKunj

	actor := model.ManagerActor(model.PropertyPrimeResidency)
	if err := svc.Create(context.Background(), actor, booking); err == nil {
		t.Fatal("expected forbidden error for cross-property create")
	}
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingConfirmed
	existing.Advance = 4000
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	updated := false
	deps.repo.updateFunc = func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
		updated = true
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := newTestService(deps)

	_, err := svc.UpdateStatus(context.Background(), model.AdminActor(), existing.ID, model.BookingConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("repeated status request must not rewrite the booking")
	}
	if len(deps.revenue.created) != 0 {
		t.Error("repeated status request must not duplicate revenue")
	}
	if len(deps.pub.published) != 0 {
		t.Error("no event for a no-op status request")
	}
}

func TestUpdateStatus_ForbiddenTransitions(t *testing.T) {
	transitions := []struct {
		from, to string
	}{
		{model.BookingCheckedOut, model.BookingConfirmed},
		{model.BookingCancelled, model.BookingCheckedIn},
		{model.BookingPending, model.BookingCheckedIn},
		{model.BookingCheckedOut, model.BookingCancelled},
	}

	for _, tr := range transitions {
		t.Run(tr.from+"_to_"+tr.to, func(t *testing.T) {
			deps := defaultDeps()
			existing := sampleBooking()
			existing.ID = "65a000000000000000000001"
			existing.Status = tr.from
			deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
				copy := *existing
				return &copy, nil
			}
			svc := newTestService(deps)

			_, err := svc.UpdateStatus(context.Background(), model.AdminActor(), existing.ID, tr.to)
			if err == nil {
				t.Errorf("transition %s -> %s must be rejected", tr.from, tr.to)
			}
		})
	}
}

func TestUpdateStatus_ConfirmRecordsRevenueOnce(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingPending
	existing.Advance = 3000
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	svc := newTestService(deps)

	booking, err := svc.UpdateStatus(context.Background(), model.AdminActor(), existing.ID, model.BookingConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("status = %q", booking.Status)
	}
	if len(deps.revenue.created) != 1 {
		t.Fatalf("revenue rows = %d, want 1", len(deps.revenue.created))
	}

	// A second confirm with an existing ledger row must not duplicate it.
	deps2 := defaultDeps()
	deps2.repo.findByIDFunc = deps.repo.findByIDFunc
	deps2.revenue.existing = deps.revenue.created[0]
	svc2 := newTestService(deps2)

	if _, err := svc2.UpdateStatus(context.Background(), model.AdminActor(), existing.ID, model.BookingConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps2.revenue.created) != 0 {
		t.Errorf("revenue rows = %d, want 0 when a row already exists", len(deps2.revenue.created))
	}
}

func TestUpdateStatus_CancelZeroesBalanceAndRefunds(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingConfirmed
	existing.Advance = 4000
	existing.Balance = 6000
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	var persisted *model.Booking
	deps.repo.updateFunc = func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
		persisted = booking
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := newTestService(deps)

	booking, err := svc.UpdateStatus(context.Background(), model.AdminActor(), existing.ID, model.BookingCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Balance != 0 {
		t.Errorf("balance = %v, want 0", booking.Balance)
	}
	if booking.PaymentStatus != model.PaymentCancelled {
		t.Errorf("payment status = %q, want %q", booking.PaymentStatus, model.PaymentCancelled)
	}
	if persisted == nil || persisted.Status != model.BookingCancelled {
		t.Error("cancelled status must be persisted")
	}
	if len(deps.revenue.refundedFor) != 1 || deps.revenue.refundedFor[0] != existing.ID {
		t.Errorf("refunded bookings = %v", deps.revenue.refundedFor)
	}
	if len(deps.avail.syncCalls) == 0 {
		t.Error("room must be resynchronized after cancellation")
	}
}

func TestUpdateStatus_CheckoutRollsUpGuest(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingCheckedIn
	existing.Advance = 10000
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	svc := newTestService(deps)

	if _, err := svc.UpdateStatus(context.Background(), model.AdminActor(), existing.ID, model.BookingCheckedOut); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(deps.guests.checkouts) != 1 {
		t.Fatalf("guest checkouts recorded = %d, want 1", len(deps.guests.checkouts))
	}
	if deps.guests.checkouts[0].Email != "rohan@example.com" {
		t.Errorf("checkout rolled up for %q", deps.guests.checkouts[0].Email)
	}
}

func TestCreate_UnknownRoomIsNotFound(t *testing.T) {
	deps := defaultDeps()
	deps.rooms.findByNumberFunc = func(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error) {
		return nil, roomserrors.ErrNotFound
	}
	svc := newTestService(deps)

	err := svc.Create(context.Background(), model.AdminActor(), sampleBooking())
	if err == nil {
		t.Fatal("expected error for unknown room")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error type = %T, want *AppError", err)
	}
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.CodeNotFound)
	}
}

func TestAddExtraCharge_ReopensSettledBooking(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingCheckedIn
	existing.Advance = 10000
	existing.Reconcile()
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	var persisted *model.Booking
	deps.repo.updateFunc = func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
		persisted = booking
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := newTestService(deps)

	booking, err := svc.AddExtraCharge(context.Background(), model.AdminActor(), existing.ID, ExtraChargeRequest{
		Description: "Laundry",
		Amount:      500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(booking.ExtraCharges) != 1 || booking.ExtraCharges[0].Amount != 500 {
		t.Fatalf("extra charges = %+v", booking.ExtraCharges)
	}
	if booking.Balance != 500 {
		t.Errorf("balance = %v, want 500", booking.Balance)
	}
	if booking.PaymentStatus != model.PaymentPartial {
		t.Errorf("payment status = %q, want %q", booking.PaymentStatus, model.PaymentPartial)
	}
	if persisted == nil || len(persisted.ExtraCharges) != 1 {
		t.Error("extra charge must be persisted")
	}
	if len(deps.pub.published) != 1 || deps.pub.published[0].Type != events.TypeExtraChargeAdded {
		t.Errorf("expected one extra-charge event, got %+v", deps.pub.published)
	}
}

func TestAddExtraCharge_RejectsTerminalBooking(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingCheckedOut
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	updated := false
	deps.repo.updateFunc = func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
		updated = true
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := newTestService(deps)

	_, err := svc.AddExtraCharge(context.Background(), model.AdminActor(), existing.ID, ExtraChargeRequest{
		Description: "Late checkout",
		Amount:      1000,
	})
	if err == nil {
		t.Fatal("expected conflict for checked-out booking")
	}
	if updated {
		t.Error("terminal booking must not be rewritten")
	}
}

func TestAddExtraCharge_RejectsBadInput(t *testing.T) {
	svc := newTestService(defaultDeps())

	if _, err := svc.AddExtraCharge(context.Background(), model.AdminActor(), "65a000000000000000000001", ExtraChargeRequest{Description: "  ", Amount: 500}); err == nil {
		t.Error("expected error for empty description")
	}
	if _, err := svc.AddExtraCharge(context.Background(), model.AdminActor(), "65a000000000000000000001", ExtraChargeRequest{Description: "Minibar", Amount: 0}); err == nil {
		t.Error("expected error for non-positive amount")
	}
}

func TestUpdate_DateChangeChecksAvailabilityExcludingSelf(t *testing.T) {
	deps := defaultDeps()
	existing := sampleBooking()
	existing.ID = "65a000000000000000000001"
	existing.Status = model.BookingConfirmed
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copy := *existing
		return &copy, nil
	}
	var gotExclude string
	deps.avail.isAvailableFunc = func(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error) {
		gotExclude = excludeBookingID
		return true, nil
	}
	svc := newTestService(deps)

	newOut := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	booking, err := svc.Update(context.Background(), model.AdminActor(), existing.ID, &model.BookingUpdate{
		CheckOut: &newOut,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotExclude != existing.ID {
		t.Errorf("availability checked with exclude %q, want %q", gotExclude, existing.ID)
	}
	if booking.Nights != 4 {
		t.Errorf("nights = %d, want 4", booking.Nights)
	}
}
