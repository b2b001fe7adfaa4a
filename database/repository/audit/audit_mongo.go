package auditRepo

import (
	"context"
	"fmt"
	"time"

	"ecocycle/database"
	"ecocycle/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditColl = "audit_log"

// AuditRepository persists the append-only transition audit trail.
type AuditRepository interface {
	// Insert appends one audit entry.
	Insert(ctx context.Context, entry *models.AuditEntry) error
	// ListByRequest returns a request's audit trail in event order.
	ListByRequest(ctx context.Context, requestID string) ([]models.AuditEntry, error)
}

// MongoAuditRepo implements AuditRepository using MongoDB.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo creates a new AuditRepository backed by MongoDB.
func NewMongoAuditRepo() *MongoAuditRepo {
	return &MongoAuditRepo{coll: database.Collection(auditColl)}
}

func (r *MongoAuditRepo) Insert(ctx context.Context, entry *models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *MongoAuditRepo) ListByRequest(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx,
		bson.M{"request_id": requestID},
		options.Find().SetSort(bson.D{{Key: "at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for request %s: %w", requestID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.AuditEntry
	for cursor.Next(ctx) {
		var e models.AuditEntry
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, cursor.Err()
}
