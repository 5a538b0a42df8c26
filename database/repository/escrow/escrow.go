package escrowRepo

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
)

// EscrowRepository defines escrow payment data access.
type EscrowRepository interface {
	// GetByID retrieves a live escrow by its unique ID.
	GetByID(id string) (*models.EscrowPayment, error)
	// FindByBookingID retrieves the live escrow held against a booking.
	FindByBookingID(bookingID string) (*models.EscrowPayment, error)
	// Create inserts a new escrow record.
	Create(escrow *models.EscrowPayment) error
	// Update saves an escrow under optimistic concurrency.
	Update(escrow *models.EscrowPayment) error
	// SoftDelete marks an escrow deleted; records are never removed.
	SoftDelete(id string) error
}

// MongoEscrowRepo implements EscrowRepository using MongoDB.
type MongoEscrowRepo struct {
	coll *mongo.Collection
}

// NewMongoEscrowRepo creates an EscrowRepository backed by the escrows collection.
func NewMongoEscrowRepo() EscrowRepository {
	return &MongoEscrowRepo{coll: database.Collection("escrows")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoEscrowRepo) GetByID(id string) (*models.EscrowPayment, error) {
	return r.findOne(bson.M{"id": id, "deleted": false}, id)
}

func (r *MongoEscrowRepo) FindByBookingID(bookingID string) (*models.EscrowPayment, error) {
	return r.findOne(bson.M{"bookingId": bookingID, "deleted": false}, bookingID)
}

func (r *MongoEscrowRepo) findOne(filter bson.M, ref string) (*models.EscrowPayment, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var escrow models.EscrowPayment
	if err := r.coll.FindOne(ctx, filter).Decode(&escrow); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFound("escrow", ref)
		}
		return nil, fmt.Errorf("failed to fetch escrow %s: %w", ref, err)
	}
	return &escrow, nil
}

func (r *MongoEscrowRepo) Create(escrow *models.EscrowPayment) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, escrow); err != nil {
		return fmt.Errorf("failed to create escrow for booking %s: %w", escrow.BookingID, err)
	}
	return nil
}

func (r *MongoEscrowRepo) Update(escrow *models.EscrowPayment) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": escrow.ID, "version": escrow.Version}
	next := *escrow
	next.Version = escrow.Version + 1
	result, err := r.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("failed to update escrow %s: %w", escrow.ID, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewConcurrencyConflict("escrow", escrow.ID)
	}
	escrow.Version = next.Version
	return nil
}

func (r *MongoEscrowRepo) SoftDelete(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return fmt.Errorf("failed to soft-delete escrow %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFound("escrow", id)
	}
	return nil
}
