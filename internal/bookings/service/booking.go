package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/internal/bookings/repository"
	"innkeep/internal/bookings/validator"
	roomserrors "innkeep/internal/rooms/errors"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/events"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityChecker is the slice of the availability engine the booking
// lifecycle needs.
type AvailabilityChecker interface {
	IsRoomAvailable(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error)
	SynchronizeRoomStatus(ctx context.Context, roomNumber string, property model.Property) error
}

// RoomFinder resolves the room a booking claims to occupy.
type RoomFinder interface {
	FindByNumber(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error)
}

// RevenueLedger records the money side effects of booking transitions.
// FindByBooking returns (nil, nil) when no row exists for the booking.
type RevenueLedger interface {
	Create(ctx context.Context, rev *model.Revenue) error
	FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error)
	MarkRefundedByBooking(ctx context.Context, bookingID string) error
}

// GuestLedger rolls completed stays up into guest profiles.
type GuestLedger interface {
	RecordCheckout(ctx context.Context, booking *model.Booking) error
}

// ExtraChargeRequest is an ad-hoc charge (laundry, late checkout, damages)
// billed to a stay after creation.
type ExtraChargeRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type BookingService interface {
	Create(ctx context.Context, actor model.ActorContext, booking *model.Booking) error
	GetByID(ctx context.Context, actor model.ActorContext, id string) (*model.Booking, error)
	GetAll(ctx context.Context, actor model.ActorContext, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, actor model.ActorContext, id string, updates *model.BookingUpdate) (*model.Booking, error)
	UpdateStatus(ctx context.Context, actor model.ActorContext, id string, status string) (*model.Booking, error)
	AddExtraCharge(ctx context.Context, actor model.ActorContext, id string, req ExtraChargeRequest) (*model.Booking, error)
	Delete(ctx context.Context, actor model.ActorContext, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.SlotLockRepository
	rooms     RoomFinder
	avail     AvailabilityChecker
	revenue   RevenueLedger
	guests    GuestLedger
	validator *validator.BookingValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	rooms RoomFinder,
	avail AvailabilityChecker,
	revenue RevenueLedger,
	guests GuestLedger,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		rooms:     rooms,
		avail:     avail,
		revenue:   revenue,
		guests:    guests,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, actor model.ActorContext, booking *model.Booking) error {
	s.sanitize(booking)
	s.applyDefaults(actor, booking)

	if !actor.CanAccess(booking.Property) {
		return apperrors.Forbidden("Cannot create a booking in another property")
	}

	room, err := s.rooms.FindByNumber(ctx, booking.RoomNumber, booking.Property)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Room", booking.RoomNumber)
		}
		return apperrors.Internal("Failed to resolve room", err)
	}
	booking.Room = room.Name
	if booking.Amount == 0 {
		booking.Amount = room.TotalPrice * float64(booking.Nights)
	}

	if err := s.validate(booking); err != nil {
		return err
	}

	// Advisory lock on the slot so two concurrent requests for the same
	// room and check-in cannot both pass the availability check.
	lockID, err := s.acquireSlotLock(ctx, booking.Property, booking.RoomNumber, booking.CheckIn)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	booking.Reconcile()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		available, err := s.avail.IsRoomAvailable(sessCtx, booking.RoomNumber, booking.Property, booking.CheckIn, booking.CheckOut, "")
		if err != nil {
			return err
		}
		if !available {
			return apperrors.Conflict(fmt.Sprintf(
				"Room %s in %s is not available from %s to %s",
				booking.RoomNumber, booking.Property,
				booking.CheckIn.Format("2006-01-02"), booking.CheckOut.Format("2006-01-02"),
			))
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		if booking.Advance > 0 {
			if err := s.recordAdvanceRevenue(sessCtx, booking); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	if booking.Active() {
		if err := s.avail.SynchronizeRoomStatus(ctx, booking.RoomNumber, booking.Property); err != nil {
			s.cfg.Log.Warn("Failed to synchronize room status after create", "booking_id", booking.ID, "error", err)
		}
	}

	s.events.Publish(ctx, events.BookingEvent{
		Type:          events.TypeBookingCreated,
		BookingID:     booking.ID,
		Property:      booking.Property,
		RoomNumber:    booking.RoomNumber,
		ToStatus:      booking.Status,
		PaymentStatus: booking.PaymentStatus,
		Amount:        booking.Advance,
	})

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"property", booking.Property,
		"room_number", booking.RoomNumber,
		"status", booking.Status,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, actor model.ActorContext, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if !actor.CanAccess(booking.Property) {
		return nil, apperrors.Forbidden("Cannot access a booking in another property")
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, actor model.ActorContext, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	filter.Property = actor.ScopeProperty(filter.Property)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, actor model.ActorContext, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	existing, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if updates.Status != "" && updates.Status != existing.Status {
		if !model.AllowedTransition(existing.Status, updates.Status) {
			return nil, apperrors.Conflict(fmt.Sprintf(
				"Cannot transition booking from %s to %s", existing.Status, updates.Status,
			))
		}
	}

	merged := s.mergeBookingUpdates(existing, updates)
	s.sanitize(merged)
	merged.Nights = nightsBetween(merged.CheckIn, merged.CheckOut)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	datesChanged := !merged.CheckIn.Equal(existing.CheckIn) || !merged.CheckOut.Equal(existing.CheckOut)

	merged.Reconcile()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if datesChanged && merged.Active() {
			available, err := s.avail.IsRoomAvailable(sessCtx, merged.RoomNumber, merged.Property, merged.CheckIn, merged.CheckOut, id)
			if err != nil {
				return err
			}
			if !available {
				return apperrors.Conflict(fmt.Sprintf(
					"Room %s in %s is not available from %s to %s",
					merged.RoomNumber, merged.Property,
					merged.CheckIn.Format("2006-01-02"), merged.CheckOut.Format("2006-01-02"),
				))
			}
		}

		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}

		if updates.Status != "" && updates.Status != existing.Status {
			if err := s.applyTransitionSideEffects(sessCtx, existing.Status, merged); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.afterStatusChange(ctx, existing.Status, merged)

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return merged, nil
}

// UpdateStatus moves the booking through its lifecycle. Side effects fire
// exactly once, keyed off the transition actually happening: repeating a
// request for the current status is a no-op.
func (s *bookingService) UpdateStatus(ctx context.Context, actor model.ActorContext, id string, status string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if status == booking.Status {
		return booking, nil
	}
	if !model.AllowedTransition(booking.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Cannot transition booking from %s to %s", booking.Status, status,
		))
	}

	prev := booking.Status
	booking.Status = status
	booking.Reconcile()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, booking); err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}
		return s.applyTransitionSideEffects(sessCtx, prev, booking)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to transition booking", "id", id, "from", prev, "to", status, "error", err)
		return nil, err
	}

	s.afterStatusChange(ctx, prev, booking)

	s.cfg.Log.Info("Booking status changed",
		"id", id,
		"from", prev,
		"to", status,
		"payment_status", booking.PaymentStatus,
	)
	return booking, nil
}

// AddExtraCharge appends an ad-hoc charge line to the booking and re-derives
// its balance and payment status. A settled booking reopens to Partial.
func (s *bookingService) AddExtraCharge(ctx context.Context, actor model.ActorContext, id string, req ExtraChargeRequest) (*model.Booking, error) {
	description := sanitizer.TrimAndNormalize(req.Description)
	if description == "" {
		return nil, apperrors.InvalidInput("Charge description is required")
	}
	if req.Amount <= 0 {
		return nil, apperrors.InvalidInput("Charge amount must be positive")
	}

	booking, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if booking.Terminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot charge a %s booking", booking.Status))
	}

	booking.ExtraCharges = append(booking.ExtraCharges, model.ExtraCharge{
		Description: description,
		Amount:      req.Amount,
		Date:        time.Now().UTC(),
	})
	booking.Reconcile()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, booking); err != nil {
			return apperrors.Internal("Failed to record extra charge", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to add extra charge", "booking_id", id, "error", err)
		return nil, err
	}

	s.events.Publish(ctx, events.BookingEvent{
		Type:          events.TypeExtraChargeAdded,
		BookingID:     booking.ID,
		Property:      booking.Property,
		RoomNumber:    booking.RoomNumber,
		PaymentStatus: booking.PaymentStatus,
		Amount:        req.Amount,
	})

	s.cfg.Log.Info("Extra charge added",
		"booking_id", id,
		"description", description,
		"amount", req.Amount,
		"balance", booking.Balance,
		"payment_status", booking.PaymentStatus,
	)
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, actor model.ActorContext, id string) error {
	booking, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to delete booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.avail.SynchronizeRoomStatus(ctx, booking.RoomNumber, booking.Property); err != nil {
		s.cfg.Log.Warn("Failed to synchronize room status after delete", "booking_id", id, "error", err)
	}

	s.events.Publish(ctx, events.BookingEvent{
		Type:       events.TypeBookingDeleted,
		BookingID:  id,
		Property:   booking.Property,
		RoomNumber: booking.RoomNumber,
		FromStatus: booking.Status,
	})

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// --- Transition side effects ---

// applyTransitionSideEffects runs inside the same transaction as the
// status write. prev is the status before the transition; booking already
// carries the new one.
func (s *bookingService) applyTransitionSideEffects(ctx context.Context, prev string, booking *model.Booking) error {
	switch booking.Status {
	case model.BookingConfirmed:
		if booking.Advance > 0 {
			existing, err := s.revenue.FindByBooking(ctx, booking.ID)
			if err != nil {
				return apperrors.Internal("Failed to check revenue ledger", err)
			}
			if existing == nil {
				return s.recordAdvanceRevenue(ctx, booking)
			}
		}
	case model.BookingCheckedOut:
		if prev != model.BookingCheckedOut {
			if err := s.guests.RecordCheckout(ctx, booking); err != nil {
				// Guest rollups are best effort; the checkout itself
				// must not fail on them.
				s.cfg.Log.Warn("Failed to record guest checkout", "booking_id", booking.ID, "error", err)
			}
		}
	case model.BookingCancelled:
		if err := s.revenue.MarkRefundedByBooking(ctx, booking.ID); err != nil {
			return apperrors.Internal("Failed to mark revenue refunded", err)
		}
	}
	return nil
}

// afterStatusChange handles the non-transactional tail of a transition:
// room status resync and event publishing.
func (s *bookingService) afterStatusChange(ctx context.Context, prev string, booking *model.Booking) {
	if err := s.avail.SynchronizeRoomStatus(ctx, booking.RoomNumber, booking.Property); err != nil {
		s.cfg.Log.Warn("Failed to synchronize room status",
			"booking_id", booking.ID,
			"room_number", booking.RoomNumber,
			"error", err,
		)
	}

	if prev != booking.Status {
		s.events.Publish(ctx, events.BookingEvent{
			Type:          events.TypeBookingStatusChanged,
			BookingID:     booking.ID,
			Property:      booking.Property,
			RoomNumber:    booking.RoomNumber,
			FromStatus:    prev,
			ToStatus:      booking.Status,
			PaymentStatus: booking.PaymentStatus,
		})
	}
}

func (s *bookingService) recordAdvanceRevenue(ctx context.Context, booking *model.Booking) error {
	method := booking.PaymentMethod
	if method == "" {
		method = model.PaymentMethodCash
	}

	rev := &model.Revenue{
		Date:          time.Now().UTC(),
		Source:        model.RevenueSourceRoomBooking,
		BookingSource: booking.Source,
		Amount:        booking.Advance,
		Description:   fmt.Sprintf("Advance for booking %s, room %s", booking.ID, booking.RoomNumber),
		BookingID:     booking.ID,
		PaymentMethod: method,
		Status:        model.RevenueReceived,
		Property:      booking.Property,
	}

	if err := s.revenue.Create(ctx, rev); err != nil {
		return apperrors.Internal("Failed to record booking revenue", err)
	}
	return nil
}

// --- Helpers ---

func (s *bookingService) sanitize(b *model.Booking) {
	b.Guest = sanitizer.NormalizeName(b.Guest)
	b.Email = sanitizer.NormalizeEmail(b.Email)
	b.RoomNumber = sanitizer.TrimAndNormalize(b.RoomNumber)
	b.SpecialRequests = sanitizer.TrimAndNormalize(b.SpecialRequests)
	if normalized := sanitizer.NormalizePhone(b.Phone); normalized != "" {
		b.Phone = normalized
	}
}

func (s *bookingService) applyDefaults(actor model.ActorContext, b *model.Booking) {
	if b.Property == "" {
		b.Property = actor.Property
	}
	if b.Source == "" {
		b.Source = model.SourceDashboard
	}
	if b.Adults == 0 {
		b.Adults = 1
	}
	if b.Nights == 0 {
		b.Nights = nightsBetween(b.CheckIn, b.CheckOut)
	}
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	// A paid advance is a commitment: the booking starts life Confirmed.
	if b.Advance > 0 && b.Status == model.BookingPending {
		b.Status = model.BookingConfirmed
	}
}

func nightsBetween(checkIn, checkOut time.Time) int {
	if !checkOut.After(checkIn) {
		return 0
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if checkOut.Sub(checkIn)%(24*time.Hour) != 0 {
		nights++
	}
	return max(1, nights)
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.Guest != "" {
		merged.Guest = updates.Guest
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.CheckIn != nil {
		merged.CheckIn = *updates.CheckIn
	}
	if updates.CheckOut != nil {
		merged.CheckOut = *updates.CheckOut
	}
	if updates.Adults != nil {
		merged.Adults = *updates.Adults
	}
	if updates.Children != nil {
		merged.Children = *updates.Children
	}
	if updates.Amount != nil {
		merged.Amount = *updates.Amount
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.SpecialRequests != "" {
		merged.SpecialRequests = updates.SpecialRequests
	}

	return &merged
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// acquireSlotLock creates an advisory lock to prevent concurrent booking
// creation for the same slot. Returns the lock ID if successful, or a
// conflict error if the lock is already held.
func (s *bookingService) acquireSlotLock(ctx context.Context, property model.Property, roomNumber string, checkIn time.Time) (string, error) {
	lockID := fmt.Sprintf("booking_slot_%s_%s_%d", property, roomNumber, checkIn.Unix())

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This room and date is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
