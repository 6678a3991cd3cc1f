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

const goalCollectionName = "goals"

// mongoGoalRepository implements the repository.GoalRepository interface using MongoDB.
type mongoGoalRepository struct {
	collection *mongo.Collection
}

// NewMongoGoalRepository creates a new instance of mongoGoalRepository.
func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{
		collection: db.Collection(goalCollectionName),
	}
}

// Create inserts a new goal.
func (r *mongoGoalRepository) Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	if goal.ClientID == primitive.NilObjectID || goal.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("goal client ID and coach ID are required")
	}
	if goal.Title == "" {
		return primitive.NilObjectID, errors.New("goal title is required")
	}

	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if goal.Status == "" {
		goal.Status = domain.GoalActive
	}
	if goal.Scope == "" {
		goal.Scope = domain.ScopeLongTerm
	}

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a goal by its ObjectID.
func (r *mongoGoalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	var goal domain.Goal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// GetByClientID retrieves all goals for a client, newest first.
func (r *mongoGoalRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Goal, error) {
	filter := bson.M{"clientId": clientID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var goals []domain.Goal
	if err = cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	return goals, nil
}

// GetActiveByScope retrieves a client's active goals of the given scope.
// The progress service feeds long_term results into the composite score.
func (r *mongoGoalRepository) GetActiveByScope(ctx context.Context, clientID primitive.ObjectID, scope domain.GoalScope) ([]domain.Goal, error) {
	filter := bson.M{
		"clientId": clientID,
		"scope":    scope,
		"status":   domain.GoalActive,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var goals []domain.Goal
	if err = cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	return goals, nil
}

// Update replaces the mutable fields of a goal.
func (r *mongoGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == primitive.NilObjectID {
		return errors.New("goal ID is required for update")
	}

	goal.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": goal.ID}
	update := bson.M{
		"$set": bson.M{
			"title":         goal.Title,
			"goalType":      goal.GoalType,
			"scope":         goal.Scope,
			"status":        goal.Status,
			"baselineValue": goal.BaselineValue,
			"currentValue":  goal.CurrentValue,
			"targetValue":   goal.TargetValue,
			"unit":          goal.Unit,
			"deadline":      goal.Deadline,
			"updatedAt":     goal.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a goal, verifying the coach owns it.
func (r *mongoGoalRepository) Delete(ctx context.Context, id, coachID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "coachId": coachID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureGoalIndexes creates necessary indexes for the goals collection.
func EnsureGoalIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "scope", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal; see EnsureUserIndexes.
	}
}
