package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "innkeep/internal/bookings/errors"
	fooderrors "innkeep/internal/food/errors"
	"innkeep/internal/food/repository"
	"innkeep/internal/food/validator"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/events"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingLedger is the slice of the booking store a food order touches:
// orders charge against a booking by appending food lines to it.
type BookingLedger interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
}

// SlotLocker holds advisory locks while stock is validated and decremented.
type SlotLocker interface {
	Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	Delete(ctx context.Context, lockID string) error
}

type FoodService interface {
	CreateItem(ctx context.Context, actor model.ActorContext, item *model.FoodItem) error
	GetItem(ctx context.Context, actor model.ActorContext, id string) (*model.FoodItem, error)
	GetAllItems(ctx context.Context, actor model.ActorContext, property model.Property, category string, limit int, offset int64) ([]*model.FoodItem, int64, error)
	UpdateItem(ctx context.Context, actor model.ActorContext, id string, updates *model.FoodItemUpdate) (*model.FoodItem, error)
	DeleteItem(ctx context.Context, actor model.ActorContext, id string) error

	CreateOrder(ctx context.Context, actor model.ActorContext, order *model.FoodOrder) error
	GetOrder(ctx context.Context, actor model.ActorContext, id string) (*model.FoodOrder, error)
	GetAllOrders(ctx context.Context, actor model.ActorContext, property model.Property, bookingID string, limit int, offset int64) ([]*model.FoodOrder, int64, error)
	UpdateOrderStatus(ctx context.Context, actor model.ActorContext, id string, status string) (*model.FoodOrder, error)
}

type foodService struct {
	items     repository.FoodItemRepository
	orders    repository.FoodOrderRepository
	bookings  BookingLedger
	lockRepo  SlotLocker
	validator *validator.FoodValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewFoodService(
	items repository.FoodItemRepository,
	orders repository.FoodOrderRepository,
	bookings BookingLedger,
	lockRepo SlotLocker,
	validator *validator.FoodValidator,
	publisher events.Publisher,
	cfg *config.Config,
) FoodService {
	return &foodService{
		items:     items,
		orders:    orders,
		bookings:  bookings,
		lockRepo:  lockRepo,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

// --- Items ---

func (s *foodService) CreateItem(ctx context.Context, actor model.ActorContext, item *model.FoodItem) error {
	s.sanitizeItem(item)
	if item.Property == "" {
		item.Property = actor.Property
	}
	if item.Category == "" {
		item.Category = model.FoodCategoryOther
	}

	if !actor.CanAccess(item.Property) {
		return apperrors.Forbidden("Cannot create a food item in another property")
	}

	if err := s.validator.ValidateItem(item); err != nil {
		s.cfg.Log.Warn("Food item validation failed", "error", err)
		return apperrors.Validation("Food item validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.items.Create(ctx, item); err != nil {
		s.cfg.Log.Error("Failed to create food item", "name", item.Name, "error", err)
		return apperrors.Internal("Failed to create food item", err)
	}

	s.cfg.Log.Info("Food item created", "id", item.ID, "name", item.Name, "property", item.Property)
	return nil
}

func (s *foodService) GetItem(ctx context.Context, actor model.ActorContext, id string) (*model.FoodItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, fooderrors.ErrItemNotFound) {
			return nil, apperrors.NotFoundWithID("Food item", id)
		}
		if errors.Is(err, fooderrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid food item ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve food item", err)
	}

	if !actor.CanAccess(item.Property) {
		return nil, apperrors.Forbidden("Cannot access a food item in another property")
	}

	return item, nil
}

func (s *foodService) GetAllItems(ctx context.Context, actor model.ActorContext, property model.Property, category string, limit int, offset int64) ([]*model.FoodItem, int64, error) {
	property = actor.ScopeProperty(property)

	var count int64
	var items []*model.FoodItem
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.items.Count(ctx, property, category)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count food items", "error", errCount)
			errCount = apperrors.Internal("Failed to count food items", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		items, errFind = s.items.FindAll(ctx, property, category, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list food items", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve food items", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return items, count, nil
}

func (s *foodService) UpdateItem(ctx context.Context, actor model.ActorContext, id string, updates *model.FoodItemUpdate) (*model.FoodItem, error) {
	existing, err := s.GetItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateItemUpdate(updates); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeItemUpdates(existing, updates)
	s.sanitizeItem(merged)
	if err := s.validator.ValidateItem(merged); err != nil {
		return nil, apperrors.Validation("Food item validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.items.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update food item", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update food item", err)
	}

	s.cfg.Log.Info("Food item updated", "id", id)
	return merged, nil
}

func (s *foodService) DeleteItem(ctx context.Context, actor model.ActorContext, id string) error {
	if _, err := s.GetItem(ctx, actor, id); err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, fooderrors.ErrItemNotFound) {
			return apperrors.NotFoundWithID("Food item", id)
		}
		return apperrors.Internal("Failed to delete food item", err)
	}

	s.cfg.Log.Info("Food item deleted", "id", id)
	return nil
}

// --- Orders ---

// CreateOrder places a food order against a booking. Every requested line
// is validated against the catalog and current stock before any stock is
// decremented, so a multi-item order is all-or-nothing: a single shortfall
// fails the whole order with no mutation.
func (s *foodService) CreateOrder(ctx context.Context, actor model.ActorContext, order *model.FoodOrder) error {
	if order.Property == "" {
		order.Property = actor.Property
	}
	if order.Status == "" {
		order.Status = model.OrderPending
	}
	mergeDuplicateLines(order)

	if !actor.CanAccess(order.Property) {
		return apperrors.Forbidden("Cannot place a food order in another property")
	}

	if err := s.validator.ValidateOrder(order); err != nil {
		s.cfg.Log.Warn("Food order validation failed", "error", err)
		return apperrors.Validation("Food order validation failed", map[string]any{"error": err.Error()})
	}

	booking, err := s.bookings.FindByID(ctx, order.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", order.BookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to load booking", err)
	}

	if !actor.CanAccess(booking.Property) {
		return apperrors.Forbidden("Cannot charge a booking in another property")
	}
	if booking.Terminal() {
		return apperrors.Conflict(fmt.Sprintf("Cannot add a food order to a %s booking", booking.Status))
	}

	// One advisory lock per distinct item keeps two concurrent orders from
	// both passing stock validation before either decrements.
	lockIDs, err := s.acquireStockLocks(ctx, order)
	if err != nil {
		return err
	}
	defer s.releaseStockLocks(ctx, lockIDs)

	if err := s.priceOrderLines(ctx, order); err != nil {
		return err
	}

	order.RoomNumber = booking.RoomNumber
	order.GuestName = booking.Guest
	order.OrderDate = time.Now().UTC()

	orderedAt := order.OrderDate
	for _, line := range order.Items {
		booking.FoodOrders = append(booking.FoodOrders, model.FoodLine{
			Item:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
			Amount:   line.Amount,
			Date:     orderedAt,
		})
	}
	booking.Reconcile()

	err = s.items.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, line := range order.Items {
			if err := s.items.DecrementStock(sessCtx, line.FoodItemID, line.Quantity); err != nil {
				if errors.Is(err, fooderrors.ErrStockConflict) {
					return apperrors.Conflict(fmt.Sprintf("Stock for %s changed while ordering, please retry", line.Name))
				}
				return apperrors.Internal("Failed to decrement stock", err)
			}
		}

		if err := s.orders.Create(sessCtx, order); err != nil {
			return apperrors.Internal("Failed to create food order", err)
		}

		if _, err := s.bookings.Update(sessCtx, booking.ID, booking); err != nil {
			return apperrors.Internal("Failed to charge booking for food order", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to place food order", "booking_id", order.BookingID, "error", err)
		return err
	}

	s.events.Publish(ctx, events.BookingEvent{
		Type:          events.TypeFoodOrderPlaced,
		BookingID:     booking.ID,
		Property:      booking.Property,
		RoomNumber:    booking.RoomNumber,
		PaymentStatus: booking.PaymentStatus,
		Amount:        order.TotalAmount,
	})

	s.cfg.Log.Info("Food order placed",
		"id", order.ID,
		"booking_id", booking.ID,
		"property", order.Property,
		"total", order.TotalAmount,
		"lines", len(order.Items),
	)
	return nil
}

func (s *foodService) GetOrder(ctx context.Context, actor model.ActorContext, id string) (*model.FoodOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, fooderrors.ErrOrderNotFound) {
			return nil, apperrors.NotFoundWithID("Food order", id)
		}
		if errors.Is(err, fooderrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid food order ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve food order", err)
	}

	if !actor.CanAccess(order.Property) {
		return nil, apperrors.Forbidden("Cannot access a food order in another property")
	}

	return order, nil
}

func (s *foodService) GetAllOrders(ctx context.Context, actor model.ActorContext, property model.Property, bookingID string, limit int, offset int64) ([]*model.FoodOrder, int64, error) {
	property = actor.ScopeProperty(property)

	var count int64
	var orders []*model.FoodOrder
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.orders.Count(ctx, property, bookingID)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count food orders", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		orders, errFind = s.orders.FindAll(ctx, property, bookingID, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve food orders", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return orders, count, nil
}

func (s *foodService) UpdateOrderStatus(ctx context.Context, actor model.ActorContext, id string, status string) (*model.FoodOrder, error) {
	if !validOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid order status: %s", status))
	}

	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if order.Status == status {
		return order, nil
	}
	if order.Status == model.OrderDelivered || order.Status == model.OrderCancelled {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot change a %s order", order.Status))
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		s.cfg.Log.Error("Failed to update food order status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update food order status", err)
	}

	order.Status = status
	s.cfg.Log.Info("Food order status changed", "id", id, "status", status)
	return order, nil
}

// --- Helpers ---

// priceOrderLines resolves every line against the catalog and fails the
// whole order on the first missing, unavailable or short-stocked item.
// Prices always come from the catalog, never from the caller.
func (s *foodService) priceOrderLines(ctx context.Context, order *model.FoodOrder) error {
	var total float64
	for i := range order.Items {
		line := &order.Items[i]

		item, err := s.items.FindByID(ctx, line.FoodItemID)
		if err != nil {
			if errors.Is(err, fooderrors.ErrItemNotFound) {
				return apperrors.NotFoundWithID("Food item", line.FoodItemID)
			}
			if errors.Is(err, fooderrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid food item ID format")
			}
			return apperrors.Internal("Failed to resolve food item", err)
		}

		if item.Property != order.Property {
			return apperrors.InvalidInput(fmt.Sprintf("Food item %s belongs to %s", item.Name, item.Property))
		}
		if !item.IsAvailable {
			return apperrors.Conflict(fmt.Sprintf("Food item %s is not available", item.Name))
		}
		if item.Stock < line.Quantity {
			return apperrors.InsufficientStock(item.Name, item.Stock, line.Quantity)
		}

		line.Name = item.Name
		line.Price = item.Price
		line.Amount = item.Price * float64(line.Quantity)
		total += line.Amount
	}
	order.TotalAmount = total
	return nil
}

func (s *foodService) acquireStockLocks(ctx context.Context, order *model.FoodOrder) ([]string, error) {
	var held []string
	for _, line := range order.Items {
		lockID := fmt.Sprintf("food_stock_%s", line.FoodItemID)
		lock := &model.SlotLock{
			ID:        lockID,
			ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
		}
		if _, err := s.lockRepo.Create(ctx, lock); err != nil {
			s.releaseStockLocks(ctx, held)
			if mongo.IsDuplicateKeyError(err) {
				return nil, apperrors.Conflict("Another order for one of these items is in flight. Please try again.")
			}
			return nil, apperrors.Internal("Failed to acquire stock lock", err)
		}
		held = append(held, lockID)
	}
	return held, nil
}

func (s *foodService) releaseStockLocks(ctx context.Context, lockIDs []string) {
	for _, lockID := range lockIDs {
		if err := s.lockRepo.Delete(ctx, lockID); err != nil {
			s.cfg.Log.Warn("Failed to release stock lock", "lock_id", lockID, "error", err)
		}
	}
}

// mergeDuplicateLines collapses repeated item IDs into one line so stock is
// validated against the summed quantity.
func mergeDuplicateLines(order *model.FoodOrder) {
	seen := make(map[string]int, len(order.Items))
	merged := order.Items[:0]
	for _, line := range order.Items {
		if idx, ok := seen[line.FoodItemID]; ok {
			merged[idx].Quantity += line.Quantity
			continue
		}
		seen[line.FoodItemID] = len(merged)
		merged = append(merged, line)
	}
	order.Items = merged
}

func (s *foodService) sanitizeItem(item *model.FoodItem) {
	item.Name = sanitizer.NormalizeName(item.Name)
	item.Unit = sanitizer.TrimAndNormalize(item.Unit)
	item.Description = sanitizer.TrimAndNormalize(item.Description)
}

func (s *foodService) mergeItemUpdates(existing *model.FoodItem, updates *model.FoodItemUpdate) *model.FoodItem {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Stock != nil {
		merged.Stock = *updates.Stock
	}
	if updates.Unit != "" {
		merged.Unit = updates.Unit
	}
	if updates.IsAvailable != nil {
		merged.IsAvailable = *updates.IsAvailable
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}

	return &merged
}

func validOrderStatus(status string) bool {
	switch status {
	case model.OrderPending, model.OrderAccepted, model.OrderPreparing, model.OrderDelivered, model.OrderCancelled:
		return true
	}
	return false
}
