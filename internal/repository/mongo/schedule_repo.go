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

const (
	scheduleItemCollectionName = "schedule_items"
	planCollectionName         = "wellness_plans"
)

// mongoScheduleRepository implements the repository.ScheduleRepository
// interface using MongoDB, spanning schedule items and wellness plans.
type mongoScheduleRepository struct {
	items *mongo.Collection
	plans *mongo.Collection
}

// NewMongoScheduleRepository creates a new instance of mongoScheduleRepository.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		items: db.Collection(scheduleItemCollectionName),
		plans: db.Collection(planCollectionName),
	}
}

// CreateItem inserts a new schedule item.
func (r *mongoScheduleRepository) CreateItem(ctx context.Context, item *domain.WeeklyScheduleItem) (primitive.ObjectID, error) {
	if item.ClientID == primitive.NilObjectID || item.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("schedule item client ID and coach ID are required")
	}
	if item.Title == "" || item.ScheduledOn.IsZero() {
		return primitive.NilObjectID, errors.New("schedule item title and scheduled date are required")
	}

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.items.InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetItemByID retrieves a schedule item by its ObjectID.
func (r *mongoScheduleRepository) GetItemByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyScheduleItem, error) {
	var item domain.WeeklyScheduleItem
	err := r.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListItemsInRange returns a client's items with scheduledOn in [from, to),
// sorted ascending by date.
func (r *mongoScheduleRepository) ListItemsInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error) {
	filter := bson.M{
		"clientId": clientID,
		"scheduledOn": bson.M{
			"$gte": from.UTC(),
			"$lt":  to.UTC(),
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledOn", Value: 1}})

	cursor, err := r.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []domain.WeeklyScheduleItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.WeeklyScheduleItem{}
	}
	return items, nil
}

// SetItemCompleted toggles completion on a schedule item, verifying the item
// belongs to the acting client.
func (r *mongoScheduleRepository) SetItemCompleted(ctx context.Context, itemID, clientID primitive.ObjectID, completed bool, at time.Time) error {
	filter := bson.M{"_id": itemID, "clientId": clientID}

	set := bson.M{
		"completed": completed,
		"updatedAt": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if completed {
		set["completedAt"] = at.UTC()
	} else {
		update["$unset"] = bson.M{"completedAt": ""}
	}

	result, err := r.items.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreatePlan inserts a new wellness plan. Marking a plan active deactivates
// the client's previously active plan.
func (r *mongoScheduleRepository) CreatePlan(ctx context.Context, plan *domain.WellnessPlan) (primitive.ObjectID, error) {
	if plan.ClientID == primitive.NilObjectID || plan.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan client ID and coach ID are required")
	}
	if plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan name is required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if plan.IsActive {
		_, err := r.plans.UpdateMany(ctx,
			bson.M{"clientId": plan.ClientID, "isActive": true},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}},
		)
		if err != nil {
			return primitive.NilObjectID, err
		}
	}

	result, err := r.plans.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetActivePlan retrieves the client's currently active plan, if any.
func (r *mongoScheduleRepository) GetActivePlan(ctx context.Context, clientID primitive.ObjectID) (*domain.WellnessPlan, error) {
	var plan domain.WellnessPlan
	filter := bson.M{"clientId": clientID, "isActive": true}

	err := r.plans.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetPlansByClientID retrieves all plans for a client, newest first.
func (r *mongoScheduleRepository) GetPlansByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WellnessPlan, error) {
	filter := bson.M{"clientId": clientID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.plans.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.WellnessPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []domain.WellnessPlan{}
	}
	return plans, nil
}

// EnsureScheduleIndexes creates necessary indexes for schedule items and plans.
func EnsureScheduleIndexes(ctx context.Context, items, plans *mongo.Collection) {
	itemIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "scheduledOn", Value: 1}},
			Options: options.Index(),
		},
	}
	planIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := items.Indexes().CreateMany(ctx, itemIndexes); err != nil {
		// Non-fatal; see EnsureUserIndexes.
	}
	if _, err := plans.Indexes().CreateMany(ctx, planIndexes); err != nil {
		// Non-fatal.
	}
}
