// internal/app/store/preferences/store.go
package preferences

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/sudhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store keeps per-user UI preferences keyed by login id.
type Store struct {
	c *mongo.Collection
}

// New creates a preferences Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_preferences")}
}

// EnsureIndexes creates the unique login_id index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "login_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_pref_login"),
	})
	return err
}

func normalize(loginID string) string {
	return strings.ToLower(strings.TrimSpace(loginID))
}

// Get returns the stored preferences. A user with none gets a zero value
// and a nil error.
func (s *Store) Get(ctx context.Context, loginID string) (models.UserPreference, error) {
	var p models.UserPreference
	err := s.c.FindOne(ctx, bson.M{"login_id": normalize(loginID)}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserPreference{LoginID: normalize(loginID)}, nil
	}
	return p, err
}

// LastWorkspace returns the workspace the user last opened, or "".
func (s *Store) LastWorkspace(ctx context.Context, loginID string) (models.ID, error) {
	p, err := s.Get(ctx, loginID)
	if err != nil {
		return "", err
	}
	return models.ID(p.LastWorkspace), nil
}

// SetLastWorkspace records the workspace the user last opened.
func (s *Store) SetLastWorkspace(ctx context.Context, loginID string, id models.ID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"login_id": normalize(loginID)},
		bson.M{"$set": bson.M{
			"last_workspace": id.String(),
			"updated_at":     time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// ClearLastWorkspace forgets the remembered workspace, e.g. after it was
// deleted.
func (s *Store) ClearLastWorkspace(ctx context.Context, loginID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"login_id": normalize(loginID)},
		bson.M{
			"$unset": bson.M{"last_workspace": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}
