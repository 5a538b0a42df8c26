package models

import "time"

// Actor identifies the party requesting a state change.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"` // "client", "provider" or "admin"
}

func (a Actor) IsAdmin() bool { return a.Role == "admin" }

// TimelineEntry is one immutable audit record on a booking's history.
type TimelineEntry struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ActorID   string    `bson:"actorId" json:"actorId"`
	ActorRole string    `bson:"actorRole" json:"actorRole"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Client is the minimal view of a platform user the core needs
// (notification targets and booking references).
type Client struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email,omitempty"`
	Phone     string    `bson:"phone" json:"phone,omitempty"`
	FCMToken  string    `bson:"fcmToken" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
