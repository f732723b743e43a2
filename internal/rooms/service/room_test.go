package service

import (
	"context"
	"innkeep/internal/rooms/validator"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repository for testing
type mockRoomRepository struct {
	createFunc       func(ctx context.Context, room *model.Room) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Room, error)
	findByNumberFunc func(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error)
	findAllFunc      func(ctx context.Context, property model.Property, limit int, offset int64) ([]*model.Room, error)
	countFunc        func(ctx context.Context, property model.Property) (int64, error)
	updateFunc       func(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error)
	updateStatusFunc func(ctx context.Context, roomNumber string, property model.Property, status string) error
	deleteFunc       func(ctx context.Context, id string) error
}

func (m *mockRoomRepository) Create(ctx context.Context, room *model.Room) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, room)
	}
	return nil
}

func (m *mockRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Room{}, nil
}

func (m *mockRoomRepository) FindByNumber(ctx context.Context, roomNumber string, property model.Property) (*model.Room, error) {
	if m.findByNumberFunc != nil {
		return m.findByNumberFunc(ctx, roomNumber, property)
	}
	return &model.Room{}, nil
}

func (m *mockRoomRepository) FindAll(ctx context.Context, property model.Property, limit int, offset int64) ([]*model.Room, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, property, limit, offset)
	}
	return []*model.Room{}, nil
}

func (m *mockRoomRepository) Count(ctx context.Context, property model.Property) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, property)
	}
	return 0, nil
}

func (m *mockRoomRepository) Update(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, room)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockRoomRepository) UpdateStatus(ctx context.Context, roomNumber string, property model.Property, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, roomNumber, property, status)
	}
	return nil
}

func (m *mockRoomRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockRoomRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newTestService(repo *mockRoomRepository) *roomService {
	cfg := testConfig()
	return &roomService{
		repo:      repo,
		validator: validator.NewRoomValidator(cfg.Log),
		cfg:       cfg,
	}
}

func TestCreate_ComputesTotalPrice(t *testing.T) {
	tests := []struct {
		name string
		room model.Room
		want float64
	}{
		{
			name: "extra charges disabled uses base price",
			room: model.Room{
				Price:    5000,
				Discount: 10,
				TaxGST:   18,
			},
			want: 5000,
		},
		{
			name: "discount then gst then extra bed",
			room: model.Room{
				Price:              5000,
				Discount:           10,
				ExtraBedPrice:      500,
				TaxGST:             18,
				EnableExtraCharges: true,
			},
			// 5000 - 500 discount = 4500, +18% GST = 5310, +500 bed = 5810
			want: 5810,
		},
		{
			name: "extra charges enabled with zero modifiers",
			room: model.Room{
				Price:              3200,
				EnableExtraCharges: true,
			},
			want: 3200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *model.Room
			repo := &mockRoomRepository{
				createFunc: func(ctx context.Context, room *model.Room) error {
					captured = room
					return nil
				},
			}
			svc := newTestService(repo)

			room := tt.room
			room.Name = "Deluxe Suite"
			room.RoomNumber = "101"
			room.Type = "Deluxe"
			room.Property = model.PropertyPrimeResidency

			if err := svc.Create(context.Background(), model.AdminActor(), &room); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if captured == nil {
				t.Fatal("expected room to be persisted")
			}
			if captured.TotalPrice != tt.want {
				t.Errorf("TotalPrice = %v, want %v", captured.TotalPrice, tt.want)
			}
			if captured.Status != model.RoomAvailable {
				t.Errorf("Status = %q, want %q", captured.Status, model.RoomAvailable)
			}
		})
	}
}

func TestCreate_ManagerCannotCreateInOtherProperty(t *testing.T) {
	svc := newTestService(&mockRoomRepository{})

	room := model.Room{
		Name:       "Garden Lawn",
		RoomNumber: "L1",
		Type:       "Lawn",
		Category:   model.RoomCategoryLawn,
		Price:      25000,
		Property:   model.PropertyPremKunj,
	}

	actor := model.ManagerActor(model.PropertyPrimeResidency)
	err := svc.Create(context.Background(), actor, &room)
	if err == nil {
		t.Fatal("expected forbidden error, got nil")
	}
}

func TestGetAll_ManagerScopedToOwnProperty(t *testing.T) {
	var capturedProperty model.Property
	repo := &mockRoomRepository{
		findAllFunc: func(ctx context.Context, property model.Property, limit int, offset int64) ([]*model.Room, error) {
			capturedProperty = property
			return []*model.Room{}, nil
		},
	}
	svc := newTestService(repo)

	actor := model.ManagerActor(model.PropertyPremKunj)
	// Manager asks for the other property; scoping must override.
	_, _, err := svc.GetAll(context.Background(), actor, model.PropertyPrimeResidency, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedProperty != model.PropertyPremKunj {
		t.Errorf("repository queried with property %q, want %q", capturedProperty, model.PropertyPremKunj)
	}
}

func TestUpdate_RecomputesTotalPrice(t *testing.T) {
	existing := &model.Room{
		ID:         "656e6b65657020726f6f6d31",
		Name:       "Deluxe Suite",
		RoomNumber: "101",
		Type:       "Deluxe",
		Category:   model.RoomCategoryRoom,
		Property:   model.PropertyPrimeResidency,
		Price:      5000,
		Status:     model.RoomAvailable,
		TotalPrice: 5000,
	}

	var captured *model.Room
	repo := &mockRoomRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Room, error) {
			copy := *existing
			return &copy, nil
		},
		updateFunc: func(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error) {
			captured = room
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo)

	newPrice := 6000.0
	enable := true
	gst := 18.0
	updated, err := svc.Update(context.Background(), model.AdminActor(), existing.ID, &model.RoomUpdate{
		Price:              &newPrice,
		TaxGST:             &gst,
		EnableExtraCharges: &enable,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 6000 + 18% GST = 7080
	if captured.TotalPrice != 7080 {
		t.Errorf("persisted TotalPrice = %v, want 7080", captured.TotalPrice)
	}
	if updated.TotalPrice != 7080 {
		t.Errorf("returned TotalPrice = %v, want 7080", updated.TotalPrice)
	}
}

func TestUpdate_MaintenanceStatusSticks(t *testing.T) {
	existing := &model.Room{
		ID:         "656e6b65657020726f6f6d32",
		Name:       "Standard Room",
		RoomNumber: "102",
		Type:       "Standard",
		Category:   model.RoomCategoryRoom,
		Property:   model.PropertyPremKunj,
		Price:      3000,
		Status:     model.RoomAvailable,
	}

	var captured *model.Room
	repo := &mockRoomRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Room, error) {
			copy := *existing
			return &copy, nil
		},
		updateFunc: func(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error) {
			captured = room
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), model.AdminActor(), existing.ID, &model.RoomUpdate{
		Status: model.RoomMaintenance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Status != model.RoomMaintenance {
		t.Errorf("Status = %q, want %q", captured.Status, model.RoomMaintenance)
	}
}
