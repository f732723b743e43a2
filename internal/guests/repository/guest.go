package repository

import (
	"context"
	"errors"
	"fmt"
	guesterrors "innkeep/internal/guests/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Guests"
)

type mongoGuestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type GuestRepository interface {
	FindByID(ctx context.Context, id string) (*model.Guest, error)
	FindByEmail(ctx context.Context, email string, property model.Property) (*model.Guest, error)
	FindAll(ctx context.Context, property model.Property, status string, limit int, offset int64) ([]*model.Guest, error)
	Count(ctx context.Context, property model.Property, status string) (int64, error)
	ApplyStay(ctx context.Context, guest *model.Guest, spent float64, stayedAt time.Time) (*model.Guest, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

func NewMongoGuestRepository(cfg *config.Config) GuestRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoGuestRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoGuestRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoGuestRepository) FindByID(ctx context.Context, id string) (*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", guesterrors.ErrInvalidID, id)
	}

	var guest model.Guest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&guest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guesterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}

	return &guest, nil
}

func (r *mongoGuestRepository) FindByEmail(ctx context.Context, email string, property model.Property) (*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var guest model.Guest
	err := r.collection.FindOne(ctx, bson.M{"email": email, "property": property}).Decode(&guest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guesterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find guest by email: %w", err)
	}

	return &guest, nil
}

func (r *mongoGuestRepository) FindAll(ctx context.Context, property model.Property, status string, limit int, offset int64) ([]*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "last_booking", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildGuestFilter(property, status), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find guests: %w", err)
	}
	defer cursor.Close(ctx)

	var guests []*model.Guest
	if err = cursor.All(ctx, &guests); err != nil {
		return nil, fmt.Errorf("failed to decode guests: %w", err)
	}

	return guests, nil
}

func (r *mongoGuestRepository) Count(ctx context.Context, property model.Property, status string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildGuestFilter(property, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count guests: %w", err)
	}
	return count, nil
}

// ApplyStay upserts the guest keyed by (email, property) and folds one
// completed stay into the rollup in a single atomic operation. Returns the
// profile as it stands after the update.
func (r *mongoGuestRepository) ApplyStay(ctx context.Context, guest *model.Guest, spent float64, stayedAt time.Time) (*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.M{"email": guest.Email, "property": guest.Property}
	update := bson.M{
		"$inc": bson.M{
			"total_stay":  1,
			"total_spent": spent,
		},
		"$set": bson.M{
			"name":         guest.Name,
			"phone":        guest.Phone,
			"last_booking": stayedAt,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"status":     model.GuestNew,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var updated model.Guest
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to apply guest stay: %w", err)
	}

	return &updated, nil
}

func (r *mongoGuestRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", guesterrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update guest status: %w", err)
	}

	if result.MatchedCount == 0 {
		return guesterrors.ErrNotFound
	}

	return nil
}

func buildGuestFilter(property model.Property, status string) bson.M {
	filter := bson.M{}
	if property != "" {
		filter["property"] = property
	}
	if status != "" {
		filter["status"] = status
	}
	return filter
}
