package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
)

const scrapeRunsCollectionName = "scrape_runs"

type ScrapeRunMongoRepository struct {
	db *mongo.Database
}

func NewScrapeRunMongoRepository(client *mongo.Client, dbName string) *ScrapeRunMongoRepository {
	return &ScrapeRunMongoRepository{db: client.Database(dbName)}
}

type scrapeRunDocument struct {
	ID         string              `bson:"_id"`
	Source     string              `bson:"source"`
	StartedAt  primitive.DateTime  `bson:"started_at"`
	FinishedAt *primitive.DateTime `bson:"finished_at,omitempty"`
	Status     string              `bson:"status"`
	Found      int                 `bson:"found"`
	Added      int                 `bson:"added"`
	Updated    int                 `bson:"updated"`
	Errors     string              `bson:"errors,omitempty"`
}

func toRunEntity(doc *scrapeRunDocument) *entity.ScrapeRun {
	run := &entity.ScrapeRun{
		ID:        doc.ID,
		Source:    doc.Source,
		StartedAt: doc.StartedAt.Time(),
		Status:    entity.RunStatus(doc.Status),
		Found:     doc.Found,
		Added:     doc.Added,
		Updated:   doc.Updated,
		Errors:    doc.Errors,
	}
	if doc.FinishedAt != nil {
		t := doc.FinishedAt.Time()
		run.FinishedAt = &t
	}
	return run
}

// StartRun persists the run in Running state before any scraping happens, so
// a crash mid-run leaves a visible Running record.
func (r *ScrapeRunMongoRepository) StartRun(ctx context.Context, source string) (*entity.ScrapeRun, error) {
	run := &entity.ScrapeRun{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: time.Now().UTC(),
		Status:    entity.RunStatusRunning,
	}

	doc := scrapeRunDocument{
		ID:        run.ID,
		Source:    run.Source,
		StartedAt: primitive.NewDateTimeFromTime(run.StartedAt),
		Status:    string(run.Status),
	}
	if _, err := r.db.Collection(scrapeRunsCollectionName).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to start scrape run for %s: %w", source, err)
	}
	return run, nil
}

// CompleteRun performs the terminal transition. The filter requires
// finished_at to be unset so the transition can only ever happen once.
func (r *ScrapeRunMongoRepository) CompleteRun(ctx context.Context, run *entity.ScrapeRun) error {
	if !run.Terminal() {
		return fmt.Errorf("run %s must have a terminal status, got %q", run.ID, run.Status)
	}

	finishedAt := primitive.NewDateTimeFromTime(time.Now().UTC())
	res, err := r.db.Collection(scrapeRunsCollectionName).UpdateOne(ctx,
		bson.M{"_id": run.ID, "finished_at": nil},
		bson.M{"$set": bson.M{
			"status":      string(run.Status),
			"found":       run.Found,
			"added":       run.Added,
			"updated":     run.Updated,
			"errors":      run.Errors,
			"finished_at": finishedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to complete scrape run %s: %w", run.ID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrRunAlreadyFinished
	}

	t := finishedAt.Time()
	run.FinishedAt = &t
	return nil
}

func (r *ScrapeRunMongoRepository) FindByID(ctx context.Context, id string) (*entity.ScrapeRun, error) {
	var doc scrapeRunDocument
	err := r.db.Collection(scrapeRunsCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scrape run by id: %w", err)
	}
	return toRunEntity(&doc), nil
}

func (r *ScrapeRunMongoRepository) Recent(ctx context.Context, limit int) ([]*entity.ScrapeRun, error) {
	if limit <= 0 {
		limit = 10
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(scrapeRunsCollectionName).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scrapeRunDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode scrape runs: %w", err)
	}

	runs := make([]*entity.ScrapeRun, len(docs))
	for i := range docs {
		runs[i] = toRunEntity(&docs[i])
	}
	return runs, nil
}
