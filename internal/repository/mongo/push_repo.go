package mongo

import (
	"context"
	"errors"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pushSubscriptionCollectionName = "push_subscriptions"

// mongoPushSubscriptionRepository implements repository.PushSubscriptionRepository.
type mongoPushSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoPushSubscriptionRepository creates a new instance of mongoPushSubscriptionRepository.
func NewMongoPushSubscriptionRepository(db *mongo.Database) repository.PushSubscriptionRepository {
	return &mongoPushSubscriptionRepository{
		collection: db.Collection(pushSubscriptionCollectionName),
	}
}

// Create registers a push endpoint for a client.
func (r *mongoPushSubscriptionRepository) Create(ctx context.Context, sub *domain.PushSubscription) (primitive.ObjectID, error) {
	if sub.ClientID == primitive.NilObjectID || sub.Endpoint == "" {
		return primitive.NilObjectID, errors.New("subscription client ID and endpoint are required")
	}

	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, errors.New("subscription endpoint already registered")
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByClientID returns all push subscriptions registered by a client.
func (r *mongoPushSubscriptionRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.PushSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []domain.PushSubscription
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []domain.PushSubscription{}
	}
	return subs, nil
}

// ListSubscribedClientIDs returns the distinct client ids holding at least
// one subscription. The reminder scheduler sweeps exactly these clients.
func (r *mongoPushSubscriptionRepository) ListSubscribedClientIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := r.collection.Distinct(ctx, "clientId", bson.M{})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes a subscription, e.g. after the push gateway reports the
// endpoint expired.
func (r *mongoPushSubscriptionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePushSubscriptionIndexes creates necessary indexes for the push_subscriptions collection.
func EnsurePushSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal; see EnsureUserIndexes.
	}
}
