package service

import (
	"context"
	"errors"
	"innkeep/internal/revenue/repository"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
	"testing"
	"time"
)

type mockRevenueRepository struct {
	findByIDFunc  func(ctx context.Context, id string) (*model.Revenue, error)
	findAllFunc   func(ctx context.Context, filter repository.RevenueFilter, limit int, offset int64) ([]*model.Revenue, error)
	countFunc     func(ctx context.Context, filter repository.RevenueFilter) (int64, error)
	analyticsFunc func(ctx context.Context, property model.Property, now time.Time) (*model.RevenueAnalytics, error)
}

func (m *mockRevenueRepository) Create(ctx context.Context, rev *model.Revenue) error { return nil }

func (m *mockRevenueRepository) FindByID(ctx context.Context, id string) (*model.Revenue, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Revenue{ID: id, Property: model.PropertyPrimeResidency}, nil
}

func (m *mockRevenueRepository) FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error) {
	return nil, nil
}

func (m *mockRevenueRepository) FindAll(ctx context.Context, filter repository.RevenueFilter, limit int, offset int64) ([]*model.Revenue, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	return []*model.Revenue{}, nil
}

func (m *mockRevenueRepository) Count(ctx context.Context, filter repository.RevenueFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockRevenueRepository) UpdateAmount(ctx context.Context, id string, amount float64, method string) error {
	return nil
}

func (m *mockRevenueRepository) MarkRefundedByBooking(ctx context.Context, bookingID string) error {
	return nil
}

func (m *mockRevenueRepository) Analytics(ctx context.Context, property model.Property, now time.Time) (*model.RevenueAnalytics, error) {
	if m.analyticsFunc != nil {
		return m.analyticsFunc(ctx, property, now)
	}
	return &model.RevenueAnalytics{}, nil
}

func newTestRevenueService(repo *mockRevenueRepository) *revenueService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &revenueService{
		repo: repo,
		cfg:  &config.Config{Log: log},
		now:  func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) },
	}
}

func TestGetAll_ManagerScopedToOwnProperty(t *testing.T) {
	var seenFilter repository.RevenueFilter
	repo := &mockRevenueRepository{
		findAllFunc: func(ctx context.Context, filter repository.RevenueFilter, limit int, offset int64) ([]*model.Revenue, error) {
			seenFilter = filter
			return []*model.Revenue{}, nil
		},
	}
	svc := newTestRevenueService(repo)

	// A manager asking for all properties still gets only their own.
	_, _, err := svc.GetAll(context.Background(), model.ManagerActor(model.PropertyPremKunj), repository.RevenueFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if seenFilter.Property != model.PropertyPremKunj {
		t.Errorf("expected filter pinned to Prem Kunj, got %q", seenFilter.Property)
	}
}

func TestGetAll_InvalidDateRangeRejected(t *testing.T) {
	svc := newTestRevenueService(&mockRevenueRepository{})

	from := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -5)

	_, _, err := svc.GetAll(context.Background(), model.AdminActor(), repository.RevenueFilter{From: from, To: to}, 10, 0)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input for inverted range, got %v", err)
	}
}

func TestGetByID_CrossPropertyForbidden(t *testing.T) {
	repo := &mockRevenueRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Revenue, error) {
			return &model.Revenue{ID: id, Property: model.PropertyPrimeResidency}, nil
		},
	}
	svc := newTestRevenueService(repo)

	_, err := svc.GetByID(context.Background(), model.ManagerActor(model.PropertyPremKunj), "65d000000000000000000001")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAnalytics_ScopesAndPassesClock(t *testing.T) {
	var seenProperty model.Property
	var seenNow time.Time
	repo := &mockRevenueRepository{
		analyticsFunc: func(ctx context.Context, property model.Property, now time.Time) (*model.RevenueAnalytics, error) {
			seenProperty = property
			seenNow = now
			return &model.RevenueAnalytics{Daily: 5000, Monthly: 80000, Yearly: 900000}, nil
		},
	}
	svc := newTestRevenueService(repo)

	analytics, err := svc.Analytics(context.Background(), model.ManagerActor(model.PropertyPrimeResidency), "")
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if seenProperty != model.PropertyPrimeResidency {
		t.Errorf("expected property scoped to Prime Residency, got %q", seenProperty)
	}
	if seenNow.IsZero() {
		t.Error("expected clock passed through")
	}
	if analytics.Daily != 5000 {
		t.Errorf("unexpected analytics: %+v", analytics)
	}
}
