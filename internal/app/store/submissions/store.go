// internal/app/store/submissions/store.go
package submissions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/sudhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned by Claim when the token was already used.
var ErrDuplicate = errors.New("form already submitted")

// ErrEmptyToken is returned by Claim for a blank token.
var ErrEmptyToken = errors.New("form token is empty")

// DefaultTTL is how long a claimed token is remembered.
const DefaultTTL = 24 * time.Hour

// Store records dispatched form tokens so a resubmitted form is dropped.
type Store struct {
	c *mongo.Collection
}

// New creates a submissions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("form_submissions")}
}

// EnsureIndexes creates the unique token index and the TTL index that
// expires claims after ttl.
func (s *Store) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_submission_token"),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(ttl.Seconds())).
				SetName("idx_submission_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Claim marks token as used by loginID for op. A second claim of the same
// token returns ErrDuplicate.
func (s *Store) Claim(ctx context.Context, token, loginID, op string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	_, err := s.c.InsertOne(ctx, models.FormSubmission{
		Token:     token,
		LoginID:   loginID,
		Operation: op,
		CreatedAt: time.Now().UTC(),
	})
	if wafflemongo.IsDup(err) {
		return ErrDuplicate
	}
	return err
}

// Release forgets a claim so the same form can be sent again. Used when the
// backend call failed and the user is expected to correct and resubmit.
func (s *Store) Release(ctx context.Context, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"token": strings.TrimSpace(token)})
	return err
}

// Get returns the claim for token, or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, token string) (models.FormSubmission, error) {
	var sub models.FormSubmission
	err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&sub)
	return sub, err
}
