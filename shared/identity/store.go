// shared/identity/store.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps identifier mappings in one collection keyed by the raw identifier.
type MongoStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection, now: time.Now}
}

// Lookup returns the stored canonical ID for identifier, if any.
func (s *MongoStore) Lookup(ctx context.Context, identifier string) (string, bool, error) {
	var mapping models.IdentityMapping
	err := s.collection.FindOne(ctx, bson.M{"_id": identifier}).Decode(&mapping)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up identity %s: %w", identifier, err)
	}
	return mapping.CFToolsID, true, nil
}

// Remember upserts the mapping for identifier.
func (s *MongoStore) Remember(ctx context.Context, identifier, canonicalID string) error {
	filter := bson.M{"_id": identifier}
	update := bson.M{"$set": bson.M{"cftools_id": canonicalID, "resolved_at": s.now().UTC()}}
	_, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store identity %s: %w", identifier, err)
	}
	return nil
}
