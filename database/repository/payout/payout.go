package payoutRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundihub/database"
	"fundihub/errs"
	"fundihub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateBooking is returned by Create when a payout already exists for
// the booking; callers re-fetch the existing record instead of failing.
var ErrDuplicateBooking = errors.New("payout already exists for booking")

// PayoutRepository defines payout data access.
type PayoutRepository interface {
	// GetByID retrieves a payout by its unique ID.
	GetByID(id string) (*models.Payout, error)
	// FindByBookingID retrieves the payout for a booking, if one exists.
	FindByBookingID(bookingID string) (*models.Payout, error)
	// Create inserts a new payout; returns ErrDuplicateBooking if one
	// already exists for the same booking.
	Create(payout *models.Payout) error
	// Update replaces a stored payout.
	Update(payout *models.Payout) error
	// ClaimProcessing atomically moves a pending payout to processing and
	// stamps the attempt. A payout that is no longer pending is not claimed,
	// so two sweepers can never process the same payout twice.
	ClaimProcessing(id string, now time.Time) (*models.Payout, error)
	// FindReady returns payouts with status pending and scheduledAt <= now.
	FindReady(now time.Time) ([]models.Payout, error)
	// ListByProvider returns a provider's payouts, newest first, with total count.
	ListByProvider(providerID string, limit, offset int64) ([]models.Payout, int64, error)
	// Stats aggregates payout counts and volumes, optionally for one provider.
	Stats(providerID string) (*models.PayoutStats, error)
}

// MongoPayoutRepo implements PayoutRepository using MongoDB.
type MongoPayoutRepo struct {
	coll *mongo.Collection
}

// NewMongoPayoutRepo creates a PayoutRepository backed by the payouts collection.
func NewMongoPayoutRepo() PayoutRepository {
	return &MongoPayoutRepo{coll: database.Collection("payouts")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoPayoutRepo) GetByID(id string) (*models.Payout, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var payout models.Payout
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&payout); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFound("payout", id)
		}
		return nil, fmt.Errorf("failed to fetch payout %s: %w", id, err)
	}
	return &payout, nil
}

func (r *MongoPayoutRepo) FindByBookingID(bookingID string) (*models.Payout, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var payout models.Payout
	if err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&payout); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFound("payout", bookingID)
		}
		return nil, fmt.Errorf("failed to fetch payout for booking %s: %w", bookingID, err)
	}
	return &payout, nil
}

func (r *MongoPayoutRepo) Create(payout *models.Payout) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, payout); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create payout for booking %s: %w", payout.BookingID, err)
	}
	return nil
}

func (r *MongoPayoutRepo) Update(payout *models.Payout) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.ReplaceOne(ctx, bson.M{"id": payout.ID}, payout)
	if err != nil {
		return fmt.Errorf("failed to update payout %s: %w", payout.ID, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFound("payout", payout.ID)
	}
	return nil
}

func (r *MongoPayoutRepo) ClaimProcessing(id string, now time.Time) (*models.Payout, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.PayoutStatusPending}
	update := bson.M{
		"$set": bson.M{
			"status":        models.PayoutStatusProcessing,
			"processedAt":   now,
			"lastAttemptAt": now,
			"updatedAt":     now,
		},
		"$inc": bson.M{"attemptCount": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var payout models.Payout
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&payout); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Already claimed by a concurrent sweep, or no longer pending.
			return nil, errs.NewConcurrencyConflict("payout", id)
		}
		return nil, fmt.Errorf("failed to claim payout %s: %w", id, err)
	}
	return &payout, nil
}

func (r *MongoPayoutRepo) FindReady(now time.Time) ([]models.Payout, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":      models.PayoutStatusPending,
		"scheduledAt": bson.M{"$lte": now},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query ready payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var payouts []models.Payout
	for cursor.Next(ctx) {
		var p models.Payout
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, nil
}

func (r *MongoPayoutRepo) ListByProvider(providerID string, limit, offset int64) ([]models.Payout, int64, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts for provider %s: %w", providerID, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payouts for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var payouts []models.Payout
	for cursor.Next(ctx) {
		var p models.Payout
		if err := cursor.Decode(&p); err != nil {
			return nil, 0, fmt.Errorf("failed to decode payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, total, nil
}

func (r *MongoPayoutRepo) Stats(providerID string) (*models.PayoutStats, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	match := bson.M{}
	if providerID != "" {
		match["providerId"] = providerID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"paid":  bson.M{"$sum": "$amounts.payoutAmount"},
			"fees":  bson.M{"$sum": "$amounts.commissionAmount"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payout stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := &models.PayoutStats{ProviderID: providerID}
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
			Paid   int64  `bson:"paid"`
			Fees   int64  `bson:"fees"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode stats row: %w", err)
		}
		stats.TotalCount += row.Count
		switch row.Status {
		case models.PayoutStatusCompleted:
			stats.CompletedCount = row.Count
			stats.TotalPaidOut = row.Paid
			stats.TotalFees = row.Fees
		case models.PayoutStatusFailed:
			stats.FailedCount = row.Count
		case models.PayoutStatusPending, models.PayoutStatusAwaitingPayment:
			stats.PendingCount += row.Count
		}
	}
	return stats, nil
}
