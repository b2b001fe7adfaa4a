package ledgerRepo

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

const (
	commissionColl = "commission_records"
	fundColl       = "sustainability_fund"
	revenueColl    = "platform_revenue"
)

// MongoLedgerRepo implements LedgerRepository using MongoDB.
type MongoLedgerRepo struct {
	commissions *mongo.Collection
	fund        *mongo.Collection
	revenue     *mongo.Collection
}

// NewMongoLedgerRepo creates a new LedgerRepository backed by MongoDB.
func NewMongoLedgerRepo() *MongoLedgerRepo {
	return &MongoLedgerRepo{
		commissions: database.Collection(commissionColl),
		fund:        database.Collection(fundColl),
		revenue:     database.Collection(revenueColl),
	}
}

// InsertSplit writes each record with an upsert keyed on
// collection_request_id and $setOnInsert, so an existing record is left
// untouched and a missing one is created. Combined with the unique index this
// makes the whole split write exactly-once per request.
func (r *MongoLedgerRepo) InsertSplit(ctx context.Context, split RevenueSplit) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	upsert := options.Update().SetUpsert(true)

	filter := bson.M{"collection_request_id": split.Commission.CollectionRequestID}
	if _, err := r.commissions.UpdateOne(ctx, filter, bson.M{"$setOnInsert": split.Commission}, upsert); err != nil {
		return fmt.Errorf("failed to insert commission record: %w", err)
	}
	if _, err := r.fund.UpdateOne(ctx, filter, bson.M{"$setOnInsert": split.Fund}, upsert); err != nil {
		return fmt.Errorf("failed to insert sustainability fund entry: %w", err)
	}
	if _, err := r.revenue.UpdateOne(ctx, filter, bson.M{"$setOnInsert": split.Revenue}, upsert); err != nil {
		return fmt.Errorf("failed to insert platform revenue entry: %w", err)
	}
	return nil
}

func (r *MongoLedgerRepo) GetCommissionByRequest(ctx context.Context, requestID string) (*models.CommissionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var rec models.CommissionRecord
	if err := r.commissions.FindOne(ctx, bson.M{"collection_request_id": requestID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch commission for request %s: %w", requestID, err)
	}
	return &rec, nil
}

func (r *MongoLedgerRepo) GetSplit(ctx context.Context, requestID string) (*RevenueSplit, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"collection_request_id": requestID}
	var split RevenueSplit
	if err := r.commissions.FindOne(ctx, filter).Decode(&split.Commission); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch commission for request %s: %w", requestID, err)
	}
	if err := r.fund.FindOne(ctx, filter).Decode(&split.Fund); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch fund entry for request %s: %w", requestID, err)
	}
	if err := r.revenue.FindOne(ctx, filter).Decode(&split.Revenue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch revenue entry for request %s: %w", requestID, err)
	}
	return &split, nil
}

func (r *MongoLedgerRepo) MarkCommissionPaid(ctx context.Context, requestID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.commissions.UpdateOne(ctx,
		bson.M{"collection_request_id": requestID, "status": models.CommissionPending},
		bson.M{"$set": bson.M{"status": models.CommissionPaid, "paid_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark commission paid for request %s: %w", requestID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (r *MongoLedgerRepo) ListCommissionsByCollector(ctx context.Context, collectorID string) ([]models.CommissionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.commissions.Find(ctx,
		bson.M{"collector_id": collectorID},
		options.Find().SetSort(bson.D{{Key: "earned_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions for collector %s: %w", collectorID, err)
	}
	defer cursor.Close(ctx)

	var records []models.CommissionRecord
	for cursor.Next(ctx) {
		var rec models.CommissionRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode commission record: %w", err)
		}
		records = append(records, rec)
	}
	return records, cursor.Err()
}

// EnsureIndexes creates the unique per-request indexes that enforce
// exactly-once ledger writes.
func (r *MongoLedgerRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "collection_request_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{r.commissions, r.fund, r.revenue} {
		if _, err := coll.Indexes().CreateOne(ctx, unique); err != nil {
			return fmt.Errorf("failed to create ledger index on %s: %w", coll.Name(), err)
		}
	}
	if _, err := r.commissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collector_id", Value: 1}, {Key: "earned_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create commission collector index: %w", err)
	}
	return nil
}
