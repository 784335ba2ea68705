package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/infrastructure/repository/entity"
	"catalog-content-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const runsCollection = "sync_runs"

// MongoRunRepository implements RunRepository using MongoDB
type MongoRunRepository struct {
	collection *mongo.Collection
}

var _ ports.RunRepository = (*MongoRunRepository)(nil)

// NewMongoRunRepository creates a run repository backed by db
func NewMongoRunRepository(db *mongo.Database) *MongoRunRepository {
	return &MongoRunRepository{
		collection: db.Collection(runsCollection),
	}
}

// EnsureIndexes creates the unique runId index and the startedAt index used by ListRuns
func (r *MongoRunRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "runId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "startedAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create run indexes: %w", err)
	}
	return nil
}

// SaveRun creates or replaces a run report
func (r *MongoRunRepository) SaveRun(ctx context.Context, report *domain.RunReport) error {
	doc := entity.MongoRunDocFromDomain(report)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"runId": report.RunID}
	update := bson.M{"$set": doc}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run report by run ID
func (r *MongoRunRepository) GetRun(ctx context.Context, runID string) (*domain.RunReport, error) {
	var doc entity.MongoRunDoc
	filter := bson.M{"runId": runID}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return doc.ToDomain(), nil
}

// ListRuns retrieves the most recent run reports
func (r *MongoRunRepository) ListRuns(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := make([]*domain.RunReport, 0, limit)
	for cursor.Next(ctx) {
		var doc entity.MongoRunDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode run: %w", err)
		}
		runs = append(runs, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return runs, nil
}
