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

const eventCollectionName = "progress_events"

// mongoEventRepository implements the repository.EventRepository interface
// using MongoDB. The collection is append-only in normal operation.
type mongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates a new instance of mongoEventRepository.
func NewMongoEventRepository(db *mongo.Database) repository.EventRepository {
	return &mongoEventRepository{
		collection: db.Collection(eventCollectionName),
	}
}

// Create appends a new progress event. The event must already be validated.
func (r *mongoEventRepository) Create(ctx context.Context, event *domain.ProgressEvent) (primitive.ObjectID, error) {
	if event.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("event client ID is required")
	}
	if err := event.Validate(); err != nil {
		return primitive.NilObjectID, err
	}

	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now().UTC()
	if event.DateForMetric.IsZero() {
		event.DateForMetric = event.CreatedAt
	}

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an event by its ObjectID.
func (r *mongoEventRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgressEvent, error) {
	var event domain.ProgressEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListByTypeInRange returns a client's events of one type with dateForMetric
// in [from, to), sorted ascending by dateForMetric. The trend analyzer
// depends on this ordering.
func (r *mongoEventRepository) ListByTypeInRange(ctx context.Context, clientID primitive.ObjectID, eventType domain.EventType, from, to time.Time) ([]domain.ProgressEvent, error) {
	filter := bson.M{
		"clientId":  clientID,
		"eventType": eventType,
		"dateForMetric": bson.M{
			"$gte": from.UTC(),
			"$lt":  to.UTC(),
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "dateForMetric", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.ProgressEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.ProgressEvent{}
	}
	return events, nil
}

// Delete removes a single event. Reserved for explicit coach correction.
func (r *mongoEventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEventIndexes creates necessary indexes for the progress_events collection.
func EnsureEventIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "eventType", Value: 1}, {Key: "dateForMetric", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal; see EnsureUserIndexes.
	}
}
