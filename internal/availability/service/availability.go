package service

import (
	"context"
	"errors"
	roomserrors "innkeep/internal/rooms/errors"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/events"
	"innkeep/pkg/model"
	"time"
)

// farHorizon bounds "any future booking" range queries.
const farHorizon = 10 * 365 * 24 * time.Hour

// BookingStore is the slice of the booking repository the availability
// engine needs. The Mongo booking repository satisfies it.
type BookingStore interface {
	FindOverlapping(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error)
	FindActiveInRange(ctx context.Context, property model.Property, from, to time.Time) ([]*model.Booking, error)
	FindExpiredActive(ctx context.Context, asOf time.Time) ([]*model.Booking, error)
	SetStatus(ctx context.Context, id string, status string) error
}

// RoomStore is the slice of the room repository the availability engine
// needs.
type RoomStore interface {
	FindByNumber(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error)
	FindAll(ctx context.Context, property model.Property, limit int, offset int64) ([]*model.Room, error)
	UpdateStatus(ctx context.Context, roomNumber string, property model.Property, status string) error
}

// CheckoutRecorder rolls a completed stay into the guest ledger. The guest
// service satisfies it.
type CheckoutRecorder interface {
	RecordCheckout(ctx context.Context, booking *model.Booking) error
}

type AvailabilityService interface {
	IsRoomAvailable(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error)
	AvailableRooms(ctx context.Context, property model.Property, checkIn, checkOut *time.Time) ([]*model.Room, error)
	SynchronizeRoomStatus(ctx context.Context, roomNumber string, property model.Property) error
	ExpireStaleBookings(ctx context.Context) (int, error)
	RunSweeper(ctx context.Context)
}

type availabilityService struct {
	bookings BookingStore
	rooms    RoomStore
	guests   CheckoutRecorder
	events   events.Publisher
	cfg      *config.Config
	now      func() time.Time
}

func NewAvailabilityService(bookings BookingStore, rooms RoomStore, guests CheckoutRecorder, publisher events.Publisher, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		bookings: bookings,
		rooms:    rooms,
		guests:   guests,
		events:   publisher,
		cfg:      cfg,
		now:      time.Now,
	}
}

// IsRoomAvailable reports whether the room has no Confirmed or Checked-in
// booking overlapping [checkIn, checkOut). Back-to-back stays where one
// booking's check-out equals the next one's check-in do not collide.
// Pending bookings never block.
func (s *availabilityService) IsRoomAvailable(ctx context.Context, roomNumber string, property model.Property, checkIn, checkOut time.Time, excludeBookingID string) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, apperrors.InvalidInput("check_out must be after check_in")
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, roomNumber, property, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return false, apperrors.Internal("Failed to check room availability", err)
	}

	return len(overlapping) == 0, nil
}

// AvailableRooms lists rooms with no blocking booking. With dates it uses
// the requested window; without dates any active booking that has not yet
// checked out blocks the room. Rooms under Maintenance are never offered.
// An expiry sweep runs first so a booking past its check-out date never
// blocks a room between sweeper ticks.
func (s *availabilityService) AvailableRooms(ctx context.Context, property model.Property, checkIn, checkOut *time.Time) ([]*model.Room, error) {
	if _, err := s.ExpireStaleBookings(ctx); err != nil {
		s.cfg.Log.Warn("Pre-listing expiry sweep failed", "error", err)
	}

	from := s.now()
	to := from.Add(farHorizon)
	if checkIn != nil && checkOut != nil {
		if !checkOut.After(*checkIn) {
			return nil, apperrors.InvalidInput("check_out must be after check_in")
		}
		from = *checkIn
		to = *checkOut
	}

	blocking, err := s.bookings.FindActiveInRange(ctx, property, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load bookings for availability", err)
	}

	occupied := make(map[string]bool, len(blocking))
	for _, b := range blocking {
		occupied[occupancyKey(b.RoomNumber, b.Property)] = true
	}

	rooms, err := s.rooms.FindAll(ctx, property, config.DefaultPaginationLimit, 0)
	if err != nil {
		return nil, apperrors.Internal("Failed to load rooms", err)
	}

	available := make([]*model.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Status == model.RoomMaintenance {
			continue
		}
		if occupied[occupancyKey(room.RoomNumber, room.Property)] {
			continue
		}
		available = append(available, room)
	}

	return available, nil
}

// SynchronizeRoomStatus recomputes the room's cached status from the
// booking ledger: Booked while any active booking has not yet checked out,
// Available otherwise. Maintenance is operator-set and always preserved.
func (s *availabilityService) SynchronizeRoomStatus(ctx context.Context, roomNumber string, property model.Property) error {
	room, err := s.rooms.FindByNumber(ctx, roomNumber, property)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFound("Room")
		}
		return apperrors.Internal("Failed to load room", err)
	}

	if room.Status == model.RoomMaintenance {
		return nil
	}

	now := s.now()
	current, err := s.bookings.FindOverlapping(ctx, roomNumber, property, now, now.Add(farHorizon), "")
	if err != nil {
		return apperrors.Internal("Failed to load bookings for room", err)
	}

	status := model.RoomAvailable
	if len(current) > 0 {
		status = model.RoomBooked
	}

	if room.Status == status {
		return nil
	}

	if err := s.rooms.UpdateStatus(ctx, roomNumber, property, status); err != nil {
		return apperrors.Internal("Failed to update room status", err)
	}

	s.cfg.Log.Info("Room status synchronized",
		"room_number", roomNumber,
		"property", property,
		"status", status,
	)
	return nil
}

// ExpireStaleBookings checks out every Confirmed or Checked-in booking
// whose check-out date has passed and frees its room. An auto-checkout
// carries the same side effects as a manual one: the guest rollup and the
// status-changed event. Each booking is handled independently; a failure is
// logged and the sweep continues, so a poisoned document cannot stall the
// rest. Re-running is harmless.
func (s *availabilityService) ExpireStaleBookings(ctx context.Context) (int, error) {
	expired, err := s.bookings.FindExpiredActive(ctx, s.now())
	if err != nil {
		return 0, apperrors.Internal("Failed to find expired bookings", err)
	}

	swept := 0
	for _, b := range expired {
		if err := s.bookings.SetStatus(ctx, b.ID, model.BookingCheckedOut); err != nil {
			s.cfg.Log.Error("Failed to auto-checkout expired booking",
				"booking_id", b.ID,
				"room_number", b.RoomNumber,
				"property", b.Property,
				"error", err,
			)
			continue
		}

		prev := b.Status
		b.Status = model.BookingCheckedOut

		if err := s.guests.RecordCheckout(ctx, b); err != nil {
			s.cfg.Log.Warn("Failed to roll up guest after auto-checkout",
				"booking_id", b.ID,
				"email", b.Email,
				"error", err,
			)
		}

		if err := s.SynchronizeRoomStatus(ctx, b.RoomNumber, b.Property); err != nil {
			s.cfg.Log.Error("Failed to free room after auto-checkout",
				"booking_id", b.ID,
				"room_number", b.RoomNumber,
				"property", b.Property,
				"error", err,
			)
		}

		s.events.Publish(ctx, events.BookingEvent{
			Type:       events.TypeBookingStatusChanged,
			BookingID:  b.ID,
			Property:   b.Property,
			RoomNumber: b.RoomNumber,
			FromStatus: prev,
			ToStatus:   model.BookingCheckedOut,
		})

		s.cfg.Log.Info("Expired booking auto-checked out",
			"booking_id", b.ID,
			"room_number", b.RoomNumber,
			"property", b.Property,
			"check_out", b.CheckOut,
		)
		swept++
	}

	return swept, nil
}

// RunSweeper runs the expiry sweep on the configured interval until the
// context is cancelled. One immediate pass runs at startup so a restart
// does not leave stale bookings waiting a full interval.
func (s *availabilityService) RunSweeper(ctx context.Context) {
	if _, err := s.ExpireStaleBookings(ctx); err != nil {
		s.cfg.Log.Error("Availability sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Availability sweeper stopped")
			return
		case <-ticker.C:
			swept, err := s.ExpireStaleBookings(ctx)
			if err != nil {
				s.cfg.Log.Error("Availability sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				s.cfg.Log.Info("Availability sweep completed", "expired_bookings", swept)
			}
		}
	}
}

func occupancyKey(roomNumber string, property model.Property) string {
	return roomNumber + "_" + property.String()
}
