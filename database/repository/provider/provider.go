package providerRepo

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

// ProviderSearchCriteria defines criteria for a provider directory search.
type ProviderSearchCriteria struct {
	Category     string
	Area         string
	ApprovedOnly bool
}

// ProviderRepository defines provider data access.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(id string) (*models.Provider, error)
	// Create inserts a new provider record.
	Create(provider *models.Provider) error
	// Update modifies an existing provider record.
	Update(provider *models.Provider) error
	// Search returns candidate providers matching the criteria. Area
	// filtering is coarse here; precise area scoring happens in matching.
	Search(criteria ProviderSearchCriteria) ([]models.Provider, error)
	// IncrementEarnings adds amount to the provider's cumulative earnings.
	IncrementEarnings(id string, amount int64) error
	// UpdateWithDocument patches a provider document with a custom update.
	UpdateWithDocument(id string, updateDoc bson.M) error
}

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo creates a ProviderRepository backed by the providers collection.
func NewMongoProviderRepo() ProviderRepository {
	return &MongoProviderRepo{coll: database.Collection("providers")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoProviderRepo) GetByID(id string) (*models.Provider, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFound("provider", id)
		}
		return nil, fmt.Errorf("failed to fetch provider %s: %w", id, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) Create(provider *models.Provider) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, provider); err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *MongoProviderRepo) Update(provider *models.Provider) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": provider.ID}, bson.M{"$set": provider})
	if err != nil {
		return fmt.Errorf("failed to update provider %s: %w", provider.ID, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFound("provider", provider.ID)
	}
	return nil
}

func (r *MongoProviderRepo) Search(criteria ProviderSearchCriteria) ([]models.Provider, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{}
	if criteria.Category != "" {
		filter["categories"] = criteria.Category
	}
	if criteria.ApprovedOnly {
		filter["approved"] = true
	}
	if criteria.Area != "" {
		filter["serviceAreas"] = bson.M{"$in": []string{criteria.Area, "All Areas"}}
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("provider search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []models.Provider
	for cursor.Next(ctx) {
		var p models.Provider
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func (r *MongoProviderRepo) IncrementEarnings(id string, amount int64) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"totalEarned": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment earnings for provider %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFound("provider", id)
	}
	return nil
}

func (r *MongoProviderRepo) UpdateWithDocument(id string, updateDoc bson.M) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, updateDoc)
	if err != nil {
		return fmt.Errorf("failed to update provider %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFound("provider", id)
	}
	return nil
}
