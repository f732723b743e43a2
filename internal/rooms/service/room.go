package service

import (
	"context"
	"errors"
	roomserrors "innkeep/internal/rooms/errors"
	"innkeep/internal/rooms/repository"
	"innkeep/internal/rooms/validator"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"
	"sync"
)

type RoomService interface {
	Create(ctx context.Context, actor model.ActorContext, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetAll(ctx context.Context, actor model.ActorContext, property model.Property, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, actor model.ActorContext, id string, updates *model.RoomUpdate) (*model.Room, error)
	Delete(ctx context.Context, actor model.ActorContext, id string) error
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(repo repository.RoomRepository, validator *validator.RoomValidator, cfg *config.Config) RoomService {
	return &roomService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *roomService) Create(ctx context.Context, actor model.ActorContext, room *model.Room) error {
	s.applyDefaults(actor, room)
	s.sanitize(room)

	if err := s.validate(room); err != nil {
		return err
	}
	if !actor.CanAccess(room.Property) {
		return apperrors.Forbidden("Cannot create a room in another property")
	}

	room.TotalPrice = room.ComputeTotalPrice()

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateRoom) {
			return apperrors.Conflict("Room number " + room.RoomNumber + " already exists in " + room.Property.String())
		}
		s.cfg.Log.Error("Failed to create room", "room_number", room.RoomNumber, "property", room.Property, "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully",
		"id", room.ID,
		"room_number", room.RoomNumber,
		"property", room.Property,
		"total_price", room.TotalPrice,
	)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, actor model.ActorContext, property model.Property, limit int, offset int64) ([]*model.Room, int64, error) {
	scoped := actor.ScopeProperty(property)

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, scoped)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rooms", "property", scoped, "error", errCount)
			errCount = apperrors.Internal("Failed to count rooms", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.repo.FindAll(ctx, scoped, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rooms", "property", scoped, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rooms", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

func (s *roomService) Update(ctx context.Context, actor model.ActorContext, id string, updates *model.RoomUpdate) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(existing.Property) {
		return nil, apperrors.Forbidden("Cannot modify a room in another property")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeRoomUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	merged.TotalPrice = merged.ComputeTotalPrice()

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		s.cfg.Log.Error("Failed to update room", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update room", err)
	}

	s.cfg.Log.Info("Room updated successfully", "id", id, "room_number", merged.RoomNumber, "property", merged.Property)
	return merged, nil
}

func (s *roomService) Delete(ctx context.Context, actor model.ActorContext, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(existing.Property) {
		return apperrors.Forbidden("Cannot delete a room in another property")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Room", id)
		}
		return apperrors.Internal("Failed to delete room", err)
	}

	s.cfg.Log.Info("Room deleted successfully", "id", id, "room_number", existing.RoomNumber, "property", existing.Property)
	return nil
}

// --- Helpers ---

func (s *roomService) sanitize(room *model.Room) {
	room.Name = sanitizer.NormalizeName(room.Name)
	room.RoomNumber = sanitizer.TrimAndNormalize(room.RoomNumber)
	room.Type = sanitizer.TrimAndNormalize(room.Type)
	room.Description = sanitizer.TrimAndNormalize(room.Description)
	room.Amenities = sanitizer.NormalizeAmenities(room.Amenities)
}

func (s *roomService) applyDefaults(actor model.ActorContext, room *model.Room) {
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	if room.Category == "" {
		room.Category = model.RoomCategoryRoom
	}
	if room.Property == "" && actor.Property != "" {
		room.Property = actor.Property
	}
}

func (s *roomService) mergeRoomUpdates(existing *model.Room, updates *model.RoomUpdate) *model.Room {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Type != "" {
		merged.Type = updates.Type
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Discount != nil {
		merged.Discount = *updates.Discount
	}
	if updates.ExtraBedPrice != nil {
		merged.ExtraBedPrice = *updates.ExtraBedPrice
	}
	if updates.TaxGST != nil {
		merged.TaxGST = *updates.TaxGST
	}
	if updates.EnableExtraCharges != nil {
		merged.EnableExtraCharges = *updates.EnableExtraCharges
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.Amenities != nil {
		merged.Amenities = updates.Amenities
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.MaxAdults != nil {
		merged.MaxAdults = *updates.MaxAdults
	}
	if updates.MaxChildren != nil {
		merged.MaxChildren = *updates.MaxChildren
	}
	if updates.Featured != nil {
		merged.Featured = *updates.Featured
	}
	if updates.Visibility != nil {
		merged.Visibility = *updates.Visibility
	}

	return &merged
}

func (s *roomService) validate(room *model.Room) error {
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
