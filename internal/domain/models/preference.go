// internal/domain/models/preference.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPreference holds per-user UI state kept across sessions.
// LoginID is the email the user signed in with.
type UserPreference struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	LoginID       string             `bson:"login_id"`
	LastWorkspace string             `bson:"last_workspace,omitempty"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// FormSubmission records that a form token has been dispatched once.
type FormSubmission struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	LoginID   string             `bson:"login_id"`
	Operation string             `bson:"operation"`
	CreatedAt time.Time          `bson:"created_at"`
}
