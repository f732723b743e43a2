package repository

import (
	"context"
	"errors"
	"fmt"
	revenueerrors "innkeep/internal/revenue/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Revenues"
)

// RevenueFilter narrows list queries. Zero values mean "no constraint".
type RevenueFilter struct {
	Property model.Property
	Source   string
	Status   string
	From     time.Time
	To       time.Time
}

type mongoRevenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type RevenueRepository interface {
	Create(ctx context.Context, rev *model.Revenue) error
	FindByID(ctx context.Context, id string) (*model.Revenue, error)
	FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error)
	FindAll(ctx context.Context, filter RevenueFilter, limit int, offset int64) ([]*model.Revenue, error)
	Count(ctx context.Context, filter RevenueFilter) (int64, error)
	UpdateAmount(ctx context.Context, id string, amount float64, method string) error
	MarkRefundedByBooking(ctx context.Context, bookingID string) error
	Analytics(ctx context.Context, property model.Property, now time.Time) (*model.RevenueAnalytics, error)
}

func NewMongoRevenueRepository(cfg *config.Config) RevenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRevenueRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRevenueRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoRevenueRepository) Create(ctx context.Context, rev *model.Revenue) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	rev.CreatedAt = now
	if rev.Date.IsZero() {
		rev.Date = now
	}
	if rev.Status == "" {
		rev.Status = model.RevenueReceived
	}

	result, err := r.collection.InsertOne(ctx, rev)
	if err != nil {
		return fmt.Errorf("failed to create revenue record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rev.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRevenueRepository) FindByID(ctx context.Context, id string) (*model.Revenue, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", revenueerrors.ErrInvalidID, id)
	}

	var rev model.Revenue
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&rev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, revenueerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find revenue record: %w", err)
	}

	return &rev, nil
}

// FindByBooking returns the most recent revenue row for the booking, or
// (nil, nil) when none exists.
func (r *mongoRevenueRepository) FindByBooking(ctx context.Context, bookingID string) (*model.Revenue, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var rev model.Revenue
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}, opts).Decode(&rev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find revenue for booking: %w", err)
	}

	return &rev, nil
}

func (r *mongoRevenueRepository) FindAll(ctx context.Context, filter RevenueFilter, limit int, offset int64) ([]*model.Revenue, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildRevenueFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find revenue records: %w", err)
	}
	defer cursor.Close(ctx)

	var revenues []*model.Revenue
	if err = cursor.All(ctx, &revenues); err != nil {
		return nil, fmt.Errorf("failed to decode revenue records: %w", err)
	}

	return revenues, nil
}

func (r *mongoRevenueRepository) Count(ctx context.Context, filter RevenueFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildRevenueFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count revenue records: %w", err)
	}
	return count, nil
}

// UpdateAmount replaces the row's amount and payment method, refreshing the
// date so cumulative rows reflect the latest payment.
func (r *mongoRevenueRepository) UpdateAmount(ctx context.Context, id string, amount float64, method string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", revenueerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{
			"amount":         amount,
			"payment_method": method,
			"status":         model.RevenueReceived,
			"date":           time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update revenue amount: %w", err)
	}

	if result.MatchedCount == 0 {
		return revenueerrors.ErrNotFound
	}

	return nil
}

// MarkRefundedByBooking flips every row for the booking to Refunded. Marking
// an already-refunded or absent booking is a no-op, not an error.
func (r *mongoRevenueRepository) MarkRefundedByBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateMany(ctx, bson.M{"booking_id": bookingID}, bson.M{
		"$set": bson.M{"status": model.RevenueRefunded},
	})
	if err != nil {
		return fmt.Errorf("failed to mark revenue refunded: %w", err)
	}
	return nil
}

type analyticsResult struct {
	Daily   []totalBucket           `bson:"daily"`
	Monthly []totalBucket           `bson:"monthly"`
	Yearly  []totalBucket           `bson:"yearly"`
	Sources []model.SourceBreakdown `bson:"sources"`
}

type totalBucket struct {
	Total float64 `bson:"total"`
}

// Analytics aggregates Received revenue into day/month/year-to-date totals
// plus a per-source breakdown, in a single pipeline round trip.
func (r *mongoRevenueRepository) Analytics(ctx context.Context, property model.Property, now time.Time) (*model.RevenueAnalytics, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	match := bson.M{"status": model.RevenueReceived}
	if property != "" {
		match["property"] = property
	}

	sumSince := func(since time.Time) bson.A {
		return bson.A{
			bson.M{"$match": bson.M{"date": bson.M{"$gte": since}}},
			bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}},
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"daily":   sumSince(dayStart),
			"monthly": sumSince(monthStart),
			"yearly":  sumSince(yearStart),
			"sources": bson.A{
				bson.M{"$group": bson.M{
					"_id":   "$source",
					"total": bson.M{"$sum": "$amount"},
					"count": bson.M{"$sum": 1},
				}},
				bson.M{"$sort": bson.M{"total": -1}},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue analytics: %w", err)
	}
	defer cursor.Close(ctx)

	var results []analyticsResult
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode revenue analytics: %w", err)
	}

	analytics := &model.RevenueAnalytics{SourceBreakdown: []model.SourceBreakdown{}}
	if len(results) == 0 {
		return analytics, nil
	}

	res := results[0]
	if len(res.Daily) > 0 {
		analytics.Daily = res.Daily[0].Total
	}
	if len(res.Monthly) > 0 {
		analytics.Monthly = res.Monthly[0].Total
	}
	if len(res.Yearly) > 0 {
		analytics.Yearly = res.Yearly[0].Total
	}
	if len(res.Sources) > 0 {
		analytics.SourceBreakdown = res.Sources
	}

	return analytics, nil
}

func buildRevenueFilter(filter RevenueFilter) bson.M {
	query := bson.M{}
	if filter.Property != "" {
		query["property"] = filter.Property
	}
	if filter.Source != "" {
		query["source"] = filter.Source
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lt"] = filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	return query
}
