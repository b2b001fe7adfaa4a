package requestRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecocycle/database"
	"ecocycle/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const requestColl = "collection_requests"

// MongoRequestRepo implements RequestRepository using MongoDB.
type MongoRequestRepo struct {
	coll *mongo.Collection
}

// NewMongoRequestRepo creates a new RequestRepository backed by MongoDB.
func NewMongoRequestRepo() *MongoRequestRepo {
	return &MongoRequestRepo{coll: database.Collection(requestColl)}
}

func (r *MongoRequestRepo) Create(ctx context.Context, req *models.CollectionRequest) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create collection request: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetByID(ctx context.Context, id string) (*models.CollectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var req models.CollectionRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch request %s: %w", id, err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) ListPending(ctx context.Context, filter PendingFilter) ([]models.CollectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{"status": models.StatusPending}
	if filter.Category != "" {
		query["items.category"] = filter.Category
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []models.CollectionRequest
	for cursor.Next(ctx) {
		var req models.CollectionRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return requests, nil
}

func (r *MongoRequestRepo) ListByCollector(ctx context.Context, collectorID string, statuses []string) ([]models.CollectionRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{"collector_id": collectorID}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}
	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for collector %s: %w", collectorID, err)
	}
	defer cursor.Close(ctx)

	var requests []models.CollectionRequest
	for cursor.Next(ctx) {
		var req models.CollectionRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, cursor.Err()
}

func (r *MongoRequestRepo) CountActiveByCollector(ctx context.Context, collectorID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"collector_id": collectorID,
		"status":       bson.M{"$in": models.ActiveStatuses},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active requests for collector %s: %w", collectorID, err)
	}
	return count, nil
}

func (r *MongoRequestRepo) AttachEvidence(ctx context.Context, requestID string, refs []string, notes string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"evidence_refs": bson.M{"$each": refs}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	if notes != "" {
		update["$set"].(bson.M)["collector_notes"] = notes
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": requestID, "status": models.StatusInProgress}, update)
	if err != nil {
		return fmt.Errorf("failed to attach evidence to request %s: %w", requestID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}
