package repository

import (
	"context"
	"errors"
	"fmt"
	fooderrors "innkeep/internal/food/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	OrderCollectionName = "Food_orders"
)

type mongoFoodOrderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type FoodOrderRepository interface {
	Create(ctx context.Context, order *model.FoodOrder) error
	FindByID(ctx context.Context, id string) (*model.FoodOrder, error)
	FindAll(ctx context.Context, property model.Property, bookingID string, limit int, offset int64) ([]*model.FoodOrder, error)
	Count(ctx context.Context, property model.Property, bookingID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

func NewMongoFoodOrderRepository(cfg *config.Config) FoodOrderRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoFoodOrderRepository{
		cfg:        cfg,
		collection: db.Collection(OrderCollectionName),
	}
}

func (r *mongoFoodOrderRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoFoodOrderRepository) Create(ctx context.Context, order *model.FoodOrder) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	order.CreatedAt = now
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}

	result, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create food order: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid.Hex()
	}
	return nil
}

func (r *mongoFoodOrderRepository) FindByID(ctx context.Context, id string) (*model.FoodOrder, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fooderrors.ErrInvalidID, id)
	}

	var order model.FoodOrder
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fooderrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find food order: %w", err)
	}

	return &order, nil
}

func (r *mongoFoodOrderRepository) FindAll(ctx context.Context, property model.Property, bookingID string, limit int, offset int64) ([]*model.FoodOrder, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "order_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildOrderFilter(property, bookingID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find food orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*model.FoodOrder
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode food orders: %w", err)
	}

	return orders, nil
}

func (r *mongoFoodOrderRepository) Count(ctx context.Context, property model.Property, bookingID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildOrderFilter(property, bookingID))
	if err != nil {
		return 0, fmt.Errorf("failed to count food orders: %w", err)
	}
	return count, nil
}

func (r *mongoFoodOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", fooderrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{"status": status},
	})
	if err != nil {
		return fmt.Errorf("failed to update food order status: %w", err)
	}

	if result.MatchedCount == 0 {
		return fooderrors.ErrOrderNotFound
	}

	return nil
}

func buildOrderFilter(property model.Property, bookingID string) bson.M {
	filter := bson.M{}
	if property != "" {
		filter["property"] = property
	}
	if bookingID != "" {
		filter["booking_id"] = bookingID
	}
	return filter
}
