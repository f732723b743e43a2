package repository

import (
	"context"
	"errors"
	"fmt"
	fooderrors "innkeep/internal/food/errors"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	"innkeep/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ItemCollectionName = "Food_items"
)

type mongoFoodItemRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type FoodItemRepository interface {
	Create(ctx context.Context, item *model.FoodItem) error
	FindByID(ctx context.Context, id string) (*model.FoodItem, error)
	FindAll(ctx context.Context, property model.Property, category string, limit int, offset int64) ([]*model.FoodItem, error)
	Count(ctx context.Context, property model.Property, category string) (int64, error)
	Update(ctx context.Context, id string, item *model.FoodItem) (*mongo.UpdateResult, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoFoodItemRepository(cfg *config.Config) FoodItemRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoFoodItemRepository{
		cfg:        cfg,
		collection: db.Collection(ItemCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoFoodItemRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoFoodItemRepository) Create(ctx context.Context, item *model.FoodItem) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create food item: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid.Hex()
	}
	return nil
}

func (r *mongoFoodItemRepository) FindByID(ctx context.Context, id string) (*model.FoodItem, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fooderrors.ErrInvalidID, id)
	}

	var item model.FoodItem
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fooderrors.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find food item: %w", err)
	}

	return &item, nil
}

func (r *mongoFoodItemRepository) FindAll(ctx context.Context, property model.Property, category string, limit int, offset int64) ([]*model.FoodItem, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildItemFilter(property, category), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find food items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*model.FoodItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode food items: %w", err)
	}

	return items, nil
}

func (r *mongoFoodItemRepository) Count(ctx context.Context, property model.Property, category string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildItemFilter(property, category))
	if err != nil {
		return 0, fmt.Errorf("failed to count food items: %w", err)
	}
	return count, nil
}

func (r *mongoFoodItemRepository) Update(ctx context.Context, id string, item *model.FoodItem) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fooderrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":         item.Name,
			"category":     item.Category,
			"price":        item.Price,
			"stock":        item.Stock,
			"unit":         item.Unit,
			"is_available": item.IsAvailable,
			"description":  item.Description,
			"updated_at":   time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update food item: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, fooderrors.ErrItemNotFound
	}

	return result, nil
}

// DecrementStock atomically takes quantity units off the item. The filter
// requires enough stock, so a concurrent order that drained it surfaces as
// ErrStockConflict rather than negative inventory.
func (r *mongoFoodItemRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", fooderrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":   objectID,
		"stock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if result.MatchedCount == 0 {
		return fooderrors.ErrStockConflict
	}

	return nil
}

func (r *mongoFoodItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", fooderrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete food item: %w", err)
	}

	if result.DeletedCount == 0 {
		return fooderrors.ErrItemNotFound
	}

	return nil
}

func buildItemFilter(property model.Property, category string) bson.M {
	filter := bson.M{}
	if property != "" {
		filter["property"] = property
	}
	if category != "" {
		filter["category"] = category
	}
	return filter
}

func (r *mongoFoodItemRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
