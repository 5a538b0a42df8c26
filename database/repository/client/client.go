package clientRepo

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

// ClientRepository defines the minimal client lookups the core needs.
type ClientRepository interface {
	GetByID(id string) (*models.Client, error)
	Create(client *models.Client) error
}

// MongoClientRepo implements ClientRepository using MongoDB.
type MongoClientRepo struct {
	coll *mongo.Collection
}

// NewMongoClientRepo creates a ClientRepository backed by the clients collection.
func NewMongoClientRepo() ClientRepository {
	return &MongoClientRepo{coll: database.Collection("clients")}
}

func (r *MongoClientRepo) GetByID(id string) (*models.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var client models.Client
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&client); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFound("client", id)
		}
		return nil, fmt.Errorf("failed to fetch client %s: %w", id, err)
	}
	return &client, nil
}

func (r *MongoClientRepo) Create(client *models.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, client); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}
