package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
)

const (
	carsCollectionName         = "cars"
	priceHistoryCollectionName = "price_history"
)

type CarMongoRepository struct {
	db *mongo.Database
}

func NewCarMongoRepository(client *mongo.Client, dbName string) *CarMongoRepository {
	return &CarMongoRepository{db: client.Database(dbName)}
}

type carDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ExternalID   string             `bson:"external_id"`
	Source       string             `bson:"source"`
	URL          string             `bson:"url"`
	Brand        string             `bson:"brand"`
	Model        string             `bson:"model"`
	Version      string             `bson:"version,omitempty"`
	Year         int                `bson:"year"`
	Price        float64            `bson:"price"`
	KM           int                `bson:"km"`
	Fuel         string             `bson:"fuel"`
	Transmission string             `bson:"transmission"`
	Power        int                `bson:"power,omitempty"`
	Doors        int                `bson:"doors,omitempty"`
	Color        string             `bson:"color,omitempty"`
	BodyType     string             `bson:"body_type,omitempty"`
	Location     string             `bson:"location"`
	Province     string             `bson:"province,omitempty"`
	SellerType   string             `bson:"seller_type"`
	SellerName   string             `bson:"seller_name,omitempty"`
	Description  string             `bson:"description,omitempty"`
	ImageURL     string             `bson:"image_url,omitempty"`
	Images       []string           `bson:"images,omitempty"`
	IsActive     bool               `bson:"is_active"`
	ScrapedAt    primitive.DateTime `bson:"scraped_at"`
	UpdatedAt    primitive.DateTime `bson:"updated_at"`
}

type priceHistoryDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ListingID  primitive.ObjectID `bson:"listing_id"`
	Price      float64            `bson:"price"`
	RecordedAt primitive.DateTime `bson:"recorded_at"`
}

func toCarDocument(l *entity.Listing) *carDocument {
	return &carDocument{
		ExternalID:   l.ExternalID,
		Source:       l.Source,
		URL:          l.URL,
		Brand:        l.Brand,
		Model:        l.Model,
		Version:      l.Version,
		Year:         l.Year,
		Price:        l.Price,
		KM:           l.KM,
		Fuel:         l.Fuel,
		Transmission: l.Transmission,
		Power:        l.Power,
		Doors:        l.Doors,
		Color:        l.Color,
		BodyType:     l.BodyType,
		Location:     l.Location,
		Province:     l.Province,
		SellerType:   l.SellerType,
		SellerName:   l.SellerName,
		Description:  l.Description,
		ImageURL:     l.ImageURL,
		Images:       l.Images,
		IsActive:     l.IsActive,
		ScrapedAt:    primitive.NewDateTimeFromTime(l.ScrapedAt),
		UpdatedAt:    primitive.NewDateTimeFromTime(l.UpdatedAt),
	}
}

func toListingEntity(doc *carDocument) *entity.Listing {
	return &entity.Listing{
		ID:           doc.ID.Hex(),
		ExternalID:   doc.ExternalID,
		Source:       doc.Source,
		URL:          doc.URL,
		Brand:        doc.Brand,
		Model:        doc.Model,
		Version:      doc.Version,
		Year:         doc.Year,
		Price:        doc.Price,
		KM:           doc.KM,
		Fuel:         doc.Fuel,
		Transmission: doc.Transmission,
		Power:        doc.Power,
		Doors:        doc.Doors,
		Color:        doc.Color,
		BodyType:     doc.BodyType,
		Location:     doc.Location,
		Province:     doc.Province,
		SellerType:   doc.SellerType,
		SellerName:   doc.SellerName,
		Description:  doc.Description,
		ImageURL:     doc.ImageURL,
		Images:       doc.Images,
		IsActive:     doc.IsActive,
		ScrapedAt:    doc.ScrapedAt.Time(),
		UpdatedAt:    doc.UpdatedAt.Time(),
	}
}

// EnsureIndexes creates the indexes the query paths rely on, most importantly
// the unique (source, external_id) pair that makes upserts idempotent.
func (r *CarMongoRepository) EnsureIndexes(ctx context.Context) error {
	cars := r.db.Collection(carsCollectionName)
	_, err := cars.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "source", Value: 1}, {Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "brand", Value: 1}, {Key: "model", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "year", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "scraped_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create cars indexes: %w", err)
	}

	history := r.db.Collection(priceHistoryCollectionName)
	_, err = history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "recorded_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create price_history index: %w", err)
	}
	return nil
}

// Upsert keys on (source, external_id). On a re-sighting the mutable technical
// fields are touched and scraped_at is advanced to the new observation, which
// is what keeps the listing out of the stale sweep. The orchestrator never runs
// the same source twice in
// parallel, so find-then-write is safe here; the unique index is the backstop.
func (r *CarMongoRepository) Upsert(ctx context.Context, listing *entity.Listing) (repository.UpsertResult, error) {
	cars := r.db.Collection(carsCollectionName)
	key := bson.M{"source": listing.Source, "external_id": listing.ExternalID}

	var existing carDocument
	err := cars.FindOne(ctx, key).Decode(&existing)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return repository.UpsertResult{}, fmt.Errorf("failed to look up car %s/%s: %w", listing.Source, listing.ExternalID, err)
		}

		doc := toCarDocument(listing)
		res, insertErr := cars.InsertOne(ctx, doc)
		if insertErr != nil {
			return repository.UpsertResult{}, fmt.Errorf("failed to insert car %s/%s: %w", listing.Source, listing.ExternalID, insertErr)
		}
		id, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			return repository.UpsertResult{}, fmt.Errorf("failed to convert inserted_id to ObjectID")
		}
		doc.ID = id
		return repository.UpsertResult{Listing: toListingEntity(doc), Created: true}, nil
	}

	priceChanged := existing.Price != listing.Price
	now := primitive.NewDateTimeFromTime(listing.UpdatedAt)

	update := bson.M{"$set": bson.M{
		"price":        listing.Price,
		"km":           listing.KM,
		"year":         listing.Year,
		"fuel":         listing.Fuel,
		"transmission": listing.Transmission,
		"location":     listing.Location,
		"image_url":    listing.ImageURL,
		"is_active":    true,
		"scraped_at":   primitive.NewDateTimeFromTime(listing.ScrapedAt),
		"updated_at":   now,
	}}
	if _, err := cars.UpdateOne(ctx, bson.M{"_id": existing.ID}, update); err != nil {
		return repository.UpsertResult{}, fmt.Errorf("failed to update car %s/%s: %w", listing.Source, listing.ExternalID, err)
	}

	oldPrice := existing.Price
	existing.Price = listing.Price
	existing.KM = listing.KM
	existing.Year = listing.Year
	existing.Fuel = listing.Fuel
	existing.Transmission = listing.Transmission
	existing.Location = listing.Location
	existing.ImageURL = listing.ImageURL
	existing.IsActive = true
	existing.ScrapedAt = primitive.NewDateTimeFromTime(listing.ScrapedAt)
	existing.UpdatedAt = now

	return repository.UpsertResult{
		Listing:      toListingEntity(&existing),
		Created:      false,
		PriceChanged: priceChanged,
		OldPrice:     oldPrice,
	}, nil
}

func (r *CarMongoRepository) AppendPriceHistory(ctx context.Context, listingID string, price float64, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return fmt.Errorf("invalid listing ID %q: %w", listingID, err)
	}

	doc := priceHistoryDocument{
		ListingID:  objID,
		Price:      price,
		RecordedAt: primitive.NewDateTimeFromTime(at),
	}
	if _, err := r.db.Collection(priceHistoryCollectionName).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append price history for %s: %w", listingID, err)
	}
	return nil
}

func (r *CarMongoRepository) FindByID(ctx context.Context, id string) (*entity.Listing, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc carDocument
	err = r.db.Collection(carsCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car by id from mongo: %w", err)
	}
	return toListingEntity(&doc), nil
}

func (r *CarMongoRepository) FindActive(ctx context.Context, filter repository.ListingFilter) ([]*entity.Listing, error) {
	mongoFilter := bson.M{"is_active": true}
	if filter.Source != "" {
		mongoFilter["source"] = filter.Source
	}
	if filter.Brand != "" {
		mongoFilter["brand"] = filter.Brand
	}
	if filter.Model != "" {
		mongoFilter["model"] = filter.Model
	}
	price := bson.M{}
	if filter.MinPrice > 0 {
		price["$gte"] = filter.MinPrice
	}
	if filter.MaxPrice > 0 {
		price["$lte"] = filter.MaxPrice
	}
	if len(price) > 0 {
		mongoFilter["price"] = price
	}
	if filter.MinYear > 0 {
		mongoFilter["year"] = bson.M{"$gte": filter.MinYear}
	}
	if filter.MaxKM > 0 {
		mongoFilter["km"] = bson.M{"$lte": filter.MaxKM}
	}
	if filter.Fuel != "" {
		mongoFilter["fuel"] = filter.Fuel
	}
	if filter.Location != "" {
		mongoFilter["location"] = filter.Location
	}
	if !filter.ScrapedAfter.IsZero() {
		mongoFilter["scraped_at"] = bson.M{"$gt": primitive.NewDateTimeFromTime(filter.ScrapedAfter)}
	}

	sortField := "scraped_at"
	switch filter.SortBy {
	case "price", "year", "km":
		sortField = filter.SortBy
	}
	sortDir := -1
	if filter.SortOrder == "asc" {
		sortDir = 1
	}

	findOptions := options.Find().SetSort(bson.D{{Key: sortField, Value: sortDir}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
		if filter.Page > 1 {
			findOptions.SetSkip(int64((filter.Page - 1) * filter.Limit))
		}
	}

	cursor, err := r.db.Collection(carsCollectionName).Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []carDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode car list from mongo: %w", err)
	}

	listings := make([]*entity.Listing, len(docs))
	for i := range docs {
		listings[i] = toListingEntity(&docs[i])
	}
	return listings, nil
}

func (r *CarMongoRepository) PriceHistory(ctx context.Context, listingID string) ([]*entity.PriceHistoryEntry, error) {
	objID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})
	cursor, err := r.db.Collection(priceHistoryCollectionName).Find(ctx, bson.M{"listing_id": objID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list price history from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []priceHistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode price history from mongo: %w", err)
	}

	entries := make([]*entity.PriceHistoryEntry, len(docs))
	for i, doc := range docs {
		entries[i] = &entity.PriceHistoryEntry{
			ID:         doc.ID.Hex(),
			ListingID:  doc.ListingID.Hex(),
			Price:      doc.Price,
			RecordedAt: doc.RecordedAt.Time(),
		}
	}
	return entries, nil
}

func (r *CarMongoRepository) Brands(ctx context.Context) ([]repository.BrandCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$brand", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.db.Collection(carsCollectionName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate brands: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Brand string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode brand counts: %w", err)
	}

	counts := make([]repository.BrandCount, len(rows))
	for i, row := range rows {
		counts[i] = repository.BrandCount{Brand: row.Brand, Count: row.Count}
	}
	return counts, nil
}

func (r *CarMongoRepository) DeactivateStale(ctx context.Context, notSeenSince time.Time) (int64, error) {
	res, err := r.db.Collection(carsCollectionName).UpdateMany(ctx,
		bson.M{"is_active": true, "scraped_at": bson.M{"$lt": primitive.NewDateTimeFromTime(notSeenSince)}},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": primitive.NewDateTimeFromTime(time.Now().UTC())}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale cars: %w", err)
	}
	return res.ModifiedCount, nil
}
