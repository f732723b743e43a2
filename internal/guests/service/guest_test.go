package service

import (
	"context"
	"errors"
	guesterrors "innkeep/internal/guests/errors"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
	"testing"
	"time"
)

type mockGuestRepository struct {
	guests        map[string]*model.Guest
	statusUpdates map[string]string
}

func newMockGuestRepo() *mockGuestRepository {
	return &mockGuestRepository{
		guests:        make(map[string]*model.Guest),
		statusUpdates: make(map[string]string),
	}
}

func guestKey(email string, property model.Property) string {
	return email + "_" + string(property)
}

func (m *mockGuestRepository) FindByID(ctx context.Context, id string) (*model.Guest, error) {
	for _, g := range m.guests {
		if g.ID == id {
			copied := *g
			return &copied, nil
		}
	}
	return nil, guesterrors.ErrNotFound
}

func (m *mockGuestRepository) FindByEmail(ctx context.Context, email string, property model.Property) (*model.Guest, error) {
	if g, ok := m.guests[guestKey(email, property)]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, guesterrors.ErrNotFound
}

func (m *mockGuestRepository) FindAll(ctx context.Context, property model.Property, status string, limit int, offset int64) ([]*model.Guest, error) {
	var out []*model.Guest
	for _, g := range m.guests {
		if property != "" && g.Property != property {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *mockGuestRepository) Count(ctx context.Context, property model.Property, status string) (int64, error) {
	guests, _ := m.FindAll(ctx, property, status, 0, 0)
	return int64(len(guests)), nil
}

func (m *mockGuestRepository) ApplyStay(ctx context.Context, guest *model.Guest, spent float64, stayedAt time.Time) (*model.Guest, error) {
	key := guestKey(guest.Email, guest.Property)
	existing, ok := m.guests[key]
	if !ok {
		existing = &model.Guest{
			ID:       "65e00000000000000000000" + string(rune('1'+len(m.guests))),
			Email:    guest.Email,
			Property: guest.Property,
			Status:   model.GuestNew,
		}
		m.guests[key] = existing
	}
	existing.Name = guest.Name
	existing.Phone = guest.Phone
	existing.TotalStay++
	existing.TotalSpent += spent
	existing.LastBooking = stayedAt

	copied := *existing
	return &copied, nil
}

func (m *mockGuestRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	m.statusUpdates[id] = status
	for _, g := range m.guests {
		if g.ID == id {
			g.Status = status
			return nil
		}
	}
	return guesterrors.ErrNotFound
}

func newTestGuestService(repo *mockGuestRepository) *guestService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &guestService{
		repo: repo,
		cfg:  &config.Config{Log: log},
	}
}

func checkedOutBooking(email string, advance float64) *model.Booking {
	return &model.Booking{
		ID:       "65a000000000000000000001",
		Guest:    "Asha Verma",
		Email:    email,
		Phone:    "+919876543210",
		Property: model.PropertyPrimeResidency,
		Advance:  advance,
		Status:   model.BookingCheckedOut,
	}
}

func TestRecordCheckout_CreatesProfileOnFirstStay(t *testing.T) {
	repo := newMockGuestRepo()
	svc := newTestGuestService(repo)

	err := svc.RecordCheckout(context.Background(), checkedOutBooking("asha@example.com", 8000))
	if err != nil {
		t.Fatalf("RecordCheckout failed: %v", err)
	}

	guest := repo.guests[guestKey("asha@example.com", model.PropertyPrimeResidency)]
	if guest == nil {
		t.Fatal("expected guest profile created")
	}
	if guest.TotalStay != 1 || guest.TotalSpent != 8000 {
		t.Errorf("unexpected rollup: stay=%d spent=%v", guest.TotalStay, guest.TotalSpent)
	}
	if guest.Status != model.GuestNew {
		t.Errorf("expected New status, got %s", guest.Status)
	}
}

func TestRecordCheckout_AccumulatesAndPromotesToRegular(t *testing.T) {
	repo := newMockGuestRepo()
	svc := newTestGuestService(repo)

	for i := 0; i < 3; i++ {
		if err := svc.RecordCheckout(context.Background(), checkedOutBooking("asha@example.com", 5000)); err != nil {
			t.Fatalf("RecordCheckout %d failed: %v", i, err)
		}
	}

	guest := repo.guests[guestKey("asha@example.com", model.PropertyPrimeResidency)]
	if guest.TotalStay != 3 || guest.TotalSpent != 15000 {
		t.Errorf("unexpected rollup: stay=%d spent=%v", guest.TotalStay, guest.TotalSpent)
	}
	if guest.Status != model.GuestRegular {
		t.Errorf("expected promotion to Regular after 3 stays, got %s", guest.Status)
	}
}

func TestRecordCheckout_SeparateRollupPerProperty(t *testing.T) {
	repo := newMockGuestRepo()
	svc := newTestGuestService(repo)

	first := checkedOutBooking("asha@example.com", 5000)
	second := checkedOutBooking("asha@example.com", 3000)
	second.Property = model.PropertyPremKunj

	if err := svc.RecordCheckout(context.Background(), first); err != nil {
		t.Fatalf("RecordCheckout failed: %v", err)
	}
	if err := svc.RecordCheckout(context.Background(), second); err != nil {
		t.Fatalf("RecordCheckout failed: %v", err)
	}

	prime := repo.guests[guestKey("asha@example.com", model.PropertyPrimeResidency)]
	prem := repo.guests[guestKey("asha@example.com", model.PropertyPremKunj)]
	if prime == nil || prem == nil {
		t.Fatal("expected one profile per property")
	}
	if prime.TotalSpent != 5000 || prem.TotalSpent != 3000 {
		t.Errorf("rollups crossed properties: prime=%v prem=%v", prime.TotalSpent, prem.TotalSpent)
	}
}

func TestRecordCheckout_MissingEmailRejected(t *testing.T) {
	svc := newTestGuestService(newMockGuestRepo())

	booking := checkedOutBooking("", 5000)
	if err := svc.RecordCheckout(context.Background(), booking); err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestUpdateStatus_InvalidStatusRejected(t *testing.T) {
	svc := newTestGuestService(newMockGuestRepo())

	_, err := svc.UpdateStatus(context.Background(), model.AdminActor(), "65e000000000000000000001", "Gold")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateStatus_ManagerCrossPropertyForbidden(t *testing.T) {
	repo := newMockGuestRepo()
	_, _ = repo.ApplyStay(context.Background(), &model.Guest{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Phone:    "+919876543210",
		Property: model.PropertyPrimeResidency,
	}, 5000, time.Now())
	svc := newTestGuestService(repo)

	guest := repo.guests[guestKey("asha@example.com", model.PropertyPrimeResidency)]
	_, err := svc.UpdateStatus(context.Background(), model.ManagerActor(model.PropertyPremKunj), guest.ID, model.GuestVIP)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
