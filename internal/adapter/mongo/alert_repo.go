package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
)

const alertsCollectionName = "alerts"

type AlertMongoRepository struct {
	db *mongo.Database
}

func NewAlertMongoRepository(client *mongo.Client, dbName string) *AlertMongoRepository {
	return &AlertMongoRepository{db: client.Database(dbName)}
}

type alertDocument struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	UserID         string              `bson:"user_id"`
	Email          string              `bson:"email"`
	Brand          string              `bson:"brand,omitempty"`
	Model          string              `bson:"model,omitempty"`
	MaxPrice       float64             `bson:"max_price"`
	MinYear        int                 `bson:"min_year,omitempty"`
	MaxKM          int                 `bson:"max_km,omitempty"`
	Fuel           string              `bson:"fuel,omitempty"`
	Location       string              `bson:"location,omitempty"`
	IsActive       bool                `bson:"is_active"`
	LastNotifiedAt *primitive.DateTime `bson:"last_notified_at,omitempty"`
	CreatedAt      primitive.DateTime  `bson:"created_at"`
}

func toAlertEntity(doc *alertDocument) *entity.Alert {
	alert := &entity.Alert{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		Email:     doc.Email,
		Brand:     doc.Brand,
		Model:     doc.Model,
		MaxPrice:  doc.MaxPrice,
		MinYear:   doc.MinYear,
		MaxKM:     doc.MaxKM,
		Fuel:      doc.Fuel,
		Location:  doc.Location,
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt.Time(),
	}
	if doc.LastNotifiedAt != nil {
		t := doc.LastNotifiedAt.Time()
		alert.LastNotifiedAt = &t
	}
	return alert
}

func (r *AlertMongoRepository) Create(ctx context.Context, alert *entity.Alert) (string, error) {
	doc := alertDocument{
		UserID:    alert.UserID,
		Email:     alert.Email,
		Brand:     alert.Brand,
		Model:     alert.Model,
		MaxPrice:  alert.MaxPrice,
		MinYear:   alert.MinYear,
		MaxKM:     alert.MaxKM,
		Fuel:      alert.Fuel,
		Location:  alert.Location,
		IsActive:  alert.IsActive,
		CreatedAt: primitive.NewDateTimeFromTime(alert.CreatedAt),
	}

	res, err := r.db.Collection(alertsCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create alert in mongo: %w", err)
	}
	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *AlertMongoRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.db.Collection(alertsCollectionName).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete alert from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AlertMongoRepository) SetActive(ctx context.Context, id string, active bool) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.db.Collection(alertsCollectionName).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"is_active": active}},
	)
	if err != nil {
		return fmt.Errorf("failed to update alert active flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AlertMongoRepository) FindByUser(ctx context.Context, userID string) ([]*entity.Alert, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.db.Collection(alertsCollectionName).Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for user: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []alertDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	alerts := make([]*entity.Alert, len(docs))
	for i := range docs {
		alerts[i] = toAlertEntity(&docs[i])
	}
	return alerts, nil
}

// FindDue returns active alerts outside their renotification cooldown: never
// notified, or last notified before the cutoff.
func (r *AlertMongoRepository) FindDue(ctx context.Context, cutoff time.Time) ([]*entity.Alert, error) {
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"last_notified_at": nil},
			bson.M{"last_notified_at": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)}},
		},
	}

	cursor, err := r.db.Collection(alertsCollectionName).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list due alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []alertDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode due alerts: %w", err)
	}

	alerts := make([]*entity.Alert, len(docs))
	for i := range docs {
		alerts[i] = toAlertEntity(&docs[i])
	}
	return alerts, nil
}

func (r *AlertMongoRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.db.Collection(alertsCollectionName).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"last_notified_at": primitive.NewDateTimeFromTime(at)}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark alert notified: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
