package service

import (
	"context"
	"errors"
	"fmt"
	guesterrors "innkeep/internal/guests/errors"
	"innkeep/internal/guests/repository"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"sync"
	"time"
)

// regularStayThreshold is the stay count at which a New guest is promoted
// to Regular.
const regularStayThreshold = 3

type GuestService interface {
	GetByID(ctx context.Context, actor model.ActorContext, id string) (*model.Guest, error)
	GetAll(ctx context.Context, actor model.ActorContext, property model.Property, status string, limit int, offset int64) ([]*model.Guest, int64, error)
	UpdateStatus(ctx context.Context, actor model.ActorContext, id string, status string) (*model.Guest, error)
	RecordCheckout(ctx context.Context, booking *model.Booking) error
}

type guestService struct {
	repo repository.GuestRepository
	cfg  *config.Config
}

func NewGuestService(repo repository.GuestRepository, cfg *config.Config) GuestService {
	return &guestService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *guestService) GetByID(ctx context.Context, actor model.ActorContext, id string) (*model.Guest, error) {
	guest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, guesterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Guest", id)
		}
		if errors.Is(err, guesterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid guest ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve guest", err)
	}

	if !actor.CanAccess(guest.Property) {
		return nil, apperrors.Forbidden("Cannot access a guest in another property")
	}

	return guest, nil
}

func (s *guestService) GetAll(ctx context.Context, actor model.ActorContext, property model.Property, status string, limit int, offset int64) ([]*model.Guest, int64, error) {
	property = actor.ScopeProperty(property)

	var count int64
	var guests []*model.Guest
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, property, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count guests", "error", errCount)
			errCount = apperrors.Internal("Failed to count guests", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		guests, errFind = s.repo.FindAll(ctx, property, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list guests", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve guests", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return guests, count, nil
}

func (s *guestService) UpdateStatus(ctx context.Context, actor model.ActorContext, id string, status string) (*model.Guest, error) {
	switch status {
	case model.GuestNew, model.GuestRegular, model.GuestVIP, model.GuestBlacklisted:
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid guest status: %s", status))
	}

	guest, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if guest.Status == status {
		return guest, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.cfg.Log.Error("Failed to update guest status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update guest status", err)
	}

	guest.Status = status
	s.cfg.Log.Info("Guest status changed", "id", id, "status", status)
	return guest, nil
}

// RecordCheckout folds one completed stay into the guest's per-property
// rollup and promotes New guests to Regular once they cross the stay
// threshold. Called from the booking checkout transition; failures are the
// caller's to log, a checkout never aborts on them.
func (s *guestService) RecordCheckout(ctx context.Context, booking *model.Booking) error {
	if booking.Email == "" {
		return fmt.Errorf("booking %s has no guest email", booking.ID)
	}

	guest := &model.Guest{
		Name:     booking.Guest,
		Email:    booking.Email,
		Phone:    booking.Phone,
		Property: booking.Property,
	}

	updated, err := s.repo.ApplyStay(ctx, guest, booking.Advance, time.Now().UTC())
	if err != nil {
		return err
	}

	if updated.Status == model.GuestNew && updated.TotalStay >= regularStayThreshold {
		if err := s.repo.UpdateStatus(ctx, updated.ID, model.GuestRegular); err != nil {
			s.cfg.Log.Warn("Failed to promote guest to Regular", "id", updated.ID, "error", err)
		} else {
			s.cfg.Log.Info("Guest promoted to Regular", "id", updated.ID, "total_stay", updated.TotalStay)
		}
	}

	s.cfg.Log.Info("Guest checkout recorded",
		"email", booking.Email,
		"property", booking.Property,
		"spent", booking.Advance,
		"total_stay", updated.TotalStay,
	)
	return nil
}
