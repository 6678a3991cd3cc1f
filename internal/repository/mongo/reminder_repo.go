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
	reminderSettingsCollectionName = "reminder_settings"
	sentReminderCollectionName     = "sent_reminders"
)

// mongoReminderSettingsRepository implements repository.ReminderSettingsRepository.
type mongoReminderSettingsRepository struct {
	collection *mongo.Collection
}

// NewMongoReminderSettingsRepository creates a new instance of mongoReminderSettingsRepository.
func NewMongoReminderSettingsRepository(db *mongo.Database) repository.ReminderSettingsRepository {
	return &mongoReminderSettingsRepository{
		collection: db.Collection(reminderSettingsCollectionName),
	}
}

// GetByClientID retrieves a client's reminder settings.
func (r *mongoReminderSettingsRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientReminderSettings, error) {
	var settings domain.ClientReminderSettings
	err := r.collection.FindOne(ctx, bson.M{"clientId": clientID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// Create inserts a settings document for a client.
func (r *mongoReminderSettingsRepository) Create(ctx context.Context, settings *domain.ClientReminderSettings) (primitive.ObjectID, error) {
	if settings.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("settings client ID is required")
	}

	settings.ID = primitive.NewObjectID()
	settings.UpdatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, settings)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// Update replaces the mutable fields of a settings document.
func (r *mongoReminderSettingsRepository) Update(ctx context.Context, settings *domain.ClientReminderSettings) error {
	if settings.ClientID == primitive.NilObjectID {
		return errors.New("settings client ID is required for update")
	}

	settings.UpdatedAt = time.Now().UTC()
	filter := bson.M{"clientId": settings.ClientID}
	update := bson.M{
		"$set": bson.M{
			"remindersEnabled":           settings.RemindersEnabled,
			"goalRemindersEnabled":       settings.GoalRemindersEnabled,
			"planRemindersEnabled":       settings.PlanRemindersEnabled,
			"inactivityRemindersEnabled": settings.InactivityRemindersEnabled,
			"inactivityThresholdDays":    settings.InactivityThresholdDays,
			"quietHoursStart":            settings.QuietHoursStart,
			"quietHoursEnd":              settings.QuietHoursEnd,
			"maxRemindersPerDay":         settings.MaxRemindersPerDay,
			"updatedAt":                  settings.UpdatedAt,
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

// mongoSentReminderRepository implements repository.SentReminderRepository.
// The collection is an append-only dispatch ledger.
type mongoSentReminderRepository struct {
	collection *mongo.Collection
}

// NewMongoSentReminderRepository creates a new instance of mongoSentReminderRepository.
func NewMongoSentReminderRepository(db *mongo.Database) repository.SentReminderRepository {
	return &mongoSentReminderRepository{
		collection: db.Collection(sentReminderCollectionName),
	}
}

// Create appends a sent-reminder row. Called only after a dispatch succeeds.
func (r *mongoSentReminderRepository) Create(ctx context.Context, reminder *domain.SentReminder) (primitive.ObjectID, error) {
	if reminder.ClientID == primitive.NilObjectID || reminder.ReminderType == "" || reminder.SentDate == "" {
		return primitive.NilObjectID, errors.New("sent reminder client ID, type, and sent date are required")
	}

	reminder.ID = primitive.NewObjectID()
	reminder.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, reminder)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// CountSentOn counts reminders dispatched to a client on a calendar day.
func (r *mongoSentReminderRepository) CountSentOn(ctx context.Context, clientID primitive.ObjectID, day string) (int64, error) {
	filter := bson.M{"clientId": clientID, "sentDate": day}
	return r.collection.CountDocuments(ctx, filter)
}

// ExistsSentOn reports whether a reminder of the given type was already
// dispatched to the client on the given calendar day.
func (r *mongoSentReminderRepository) ExistsSentOn(ctx context.Context, clientID primitive.ObjectID, reminderType domain.ReminderType, day string) (bool, error) {
	filter := bson.M{"clientId": clientID, "reminderType": reminderType, "sentDate": day}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListSentOn returns the reminders dispatched to a client on a calendar day.
func (r *mongoSentReminderRepository) ListSentOn(ctx context.Context, clientID primitive.ObjectID, day string) ([]domain.SentReminder, error) {
	filter := bson.M{"clientId": clientID, "sentDate": day}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reminders []domain.SentReminder
	if err = cursor.All(ctx, &reminders); err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []domain.SentReminder{}
	}
	return reminders, nil
}

// EnsureReminderIndexes creates necessary indexes for the reminder collections.
func EnsureReminderIndexes(ctx context.Context, settings, sent *mongo.Collection) {
	settingsIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	sentIndexes := []mongo.IndexModel{
		{
			// The dedup key: one reminder of a type per client per day.
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "reminderType", Value: 1}, {Key: "sentDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "sentDate", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := settings.Indexes().CreateMany(ctx, settingsIndexes); err != nil {
		// Non-fatal; see EnsureUserIndexes.
	}
	if _, err := sent.Indexes().CreateMany(ctx, sentIndexes); err != nil {
		// Non-fatal.
	}
}
