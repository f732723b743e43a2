package service

import (
	"context"
	"errors"
	revenueerrors "innkeep/internal/revenue/errors"
	"innkeep/internal/revenue/repository"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"sync"
	"time"
)

// RevenueService serves the reporting side of the ledger. Rows are written
// by the booking and payment flows, never directly through this service.
type RevenueService interface {
	GetByID(ctx context.Context, actor model.ActorContext, id string) (*model.Revenue, error)
	GetAll(ctx context.Context, actor model.ActorContext, filter repository.RevenueFilter, limit int, offset int64) ([]*model.Revenue, int64, error)
	Analytics(ctx context.Context, actor model.ActorContext, property model.Property) (*model.RevenueAnalytics, error)
}

type revenueService struct {
	repo repository.RevenueRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewRevenueService(repo repository.RevenueRepository, cfg *config.Config) RevenueService {
	return &revenueService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *revenueService) GetByID(ctx context.Context, actor model.ActorContext, id string) (*model.Revenue, error) {
	rev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, revenueerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Revenue record", id)
		}
		if errors.Is(err, revenueerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid revenue ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve revenue record", err)
	}

	if !actor.CanAccess(rev.Property) {
		return nil, apperrors.Forbidden("Cannot access revenue in another property")
	}

	return rev, nil
}

func (s *revenueService) GetAll(ctx context.Context, actor model.ActorContext, filter repository.RevenueFilter, limit int, offset int64) ([]*model.Revenue, int64, error) {
	filter.Property = actor.ScopeProperty(filter.Property)

	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return nil, 0, apperrors.InvalidInput("Date range end must be after start")
	}

	var count int64
	var revenues []*model.Revenue
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count revenue records", "error", errCount)
			errCount = apperrors.Internal("Failed to count revenue records", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		revenues, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list revenue records", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve revenue records", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return revenues, count, nil
}

func (s *revenueService) Analytics(ctx context.Context, actor model.ActorContext, property model.Property) (*model.RevenueAnalytics, error) {
	property = actor.ScopeProperty(property)

	analytics, err := s.repo.Analytics(ctx, property, s.now())
	if err != nil {
		s.cfg.Log.Error("Failed to compute revenue analytics", "property", property, "error", err)
		return nil, apperrors.Internal("Failed to compute revenue analytics", err)
	}

	return analytics, nil
}
