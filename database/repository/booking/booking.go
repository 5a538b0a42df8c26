package bookingRepo

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

// BookingRepository defines booking data access.
type BookingRepository interface {
	// GetByID retrieves a booking by its unique ID.
	GetByID(id string) (*models.Booking, error)
	// Create inserts a new booking record.
	Create(booking *models.Booking) error
	// Update saves a booking under optimistic concurrency: the write only
	// applies if the stored version still matches booking.Version.
	Update(booking *models.Booking) error
	// ListByClient returns a client's bookings, newest first.
	ListByClient(clientID string, limit, offset int64) ([]models.Booking, error)
	// ListByProvider returns a provider's bookings, newest first.
	ListByProvider(providerID string, limit, offset int64) ([]models.Booking, error)
}

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a BookingRepository backed by the bookings collection.
func NewMongoBookingRepo() BookingRepository {
	return &MongoBookingRepo{coll: database.Collection("bookings")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoBookingRepo) GetByID(id string) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFound("booking", id)
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) Create(booking *models.Booking) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Update(booking *models.Booking) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": booking.ID, "version": booking.Version}
	next := *booking
	next.Version = booking.Version + 1
	result, err := r.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", booking.ID, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewConcurrencyConflict("booking", booking.ID)
	}
	booking.Version = next.Version
	return nil
}

func (r *MongoBookingRepo) ListByClient(clientID string, limit, offset int64) ([]models.Booking, error) {
	return r.list(bson.M{"clientId": clientID}, limit, offset)
}

func (r *MongoBookingRepo) ListByProvider(providerID string, limit, offset int64) ([]models.Booking, error) {
	return r.list(bson.M{"providerId": providerID}, limit, offset)
}

func (r *MongoBookingRepo) list(filter bson.M, limit, offset int64) ([]models.Booking, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
