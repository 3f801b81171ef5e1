// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. It reconciles the indexes of every
collection sudhub owns and aggregates the failures so startup can fail
fast with the whole picture. submissionTTL is how long a dispatched form
token is remembered.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, submissionTTL time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if submissionTTL <= 0 {
		submissionTTL = 24 * time.Hour
	}

	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"audit_events", auditEvents()},
		{"form_submissions", formSubmissions(submissionTTL)},
		{"user_preferences", userPreferences()},
	}

	var problems []string
	for _, s := range sets {
		if err := reconcile(ctx, db.Collection(s.coll), s.models, logger); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Desired index sets                                                         */
/* -------------------------------------------------------------------------- */

func auditEvents() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Recent activity on the admin overview
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_ts"),
		},
		{
			Keys:    bson.D{{Key: "actor", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_ts"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_cat_type_ts"),
		},
	}
}

func formSubmissions(ttl time.Duration) []mongo.IndexModel {
	return []mongo.IndexModel{
		// A token is dispatched at most once
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
}

func userPreferences() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_pref_login"),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconciliation                                                             */
/* -------------------------------------------------------------------------- */

// spec is the part of an index definition that reconcile compares.
type spec struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
	TTL    *int32 `bson:"expireAfterSeconds,omitempty"`
}

func (s spec) sig() string {
	parts := make([]string, 0, len(s.Key))
	for _, kv := range s.Key {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ",")
}

func (s spec) matches(o spec) bool {
	if s.Name != o.Name || s.Unique != o.Unique {
		return false
	}
	if (s.TTL == nil) != (o.TTL == nil) {
		return false
	}
	return s.TTL == nil || *s.TTL == *o.TTL
}

func desired(m mongo.IndexModel) spec {
	s := spec{Key: m.Keys.(bson.D)}
	if o := m.Options; o != nil {
		if o.Name != nil {
			s.Name = *o.Name
		}
		if o.Unique != nil {
			s.Unique = *o.Unique
		}
		s.TTL = o.ExpireAfterSeconds
	}
	return s
}

func existing(ctx context.Context, coll *mongo.Collection) (map[string]spec, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]spec{}
	for cur.Next(ctx) {
		var s spec
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out[s.sig()] = s
	}
	return out, cur.Err()
}

// reconcile creates each desired index, replacing one with the same keys
// when its name, uniqueness or TTL differs.
func reconcile(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	have, err := existing(ctx, coll)
	if err != nil {
		// A collection that does not exist yet lists as an error on some servers.
		have = map[string]spec{}
	}

	var errs []string
	for _, m := range models {
		want := desired(m)
		log := logger.With(zap.String("collection", coll.Name()), zap.String("name", want.Name))

		if cur, ok := have[want.sig()]; ok {
			if cur.matches(want) {
				log.Debug("index up to date")
				continue
			}
			log.Info("replacing index", zap.String("old_name", cur.Name))
			if _, err := coll.Indexes().DropOne(ctx, cur.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s: %v", want.Name, cur.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				errs = append(errs, fmt.Sprintf("%s: duplicates prevent a unique index", want.Name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", want.Name, err))
			}
			continue
		}
		log.Info("index ensured", zap.String("keys", want.sig()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
