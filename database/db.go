package database

import (
	"context"
	"log"
	"time"

	"fundihub/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// InitDB initializes the MongoDB connection.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping MongoDB: %v", err)
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")

	if err := ensureIndexes(client); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}
}

// Collection returns a handle in the configured application database.
func Collection(name string) *mongo.Collection {
	return MongoClient.Database(config.AppConfig.DatabaseName).Collection(name)
}

// ensureIndexes creates the indexes the financial core depends on. The unique
// index on payouts.booking_id backs the find-or-create idempotency of payout
// creation; the partial unique index on escrows enforces one live escrow per
// booking.
func ensureIndexes(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := client.Database(config.AppConfig.DatabaseName)

	_, err := db.Collection("payouts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("escrows").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bookingId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"deleted": false}),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("payouts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("providers").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "categories", Value: 1}, {Key: "approved", Value: 1}},
	})
	return err
}
