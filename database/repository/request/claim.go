package requestRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecocycle/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClaimPending assigns a pending, unclaimed request to a collector. The
// one-active-task count and the conditional claim write run inside a single
// MongoDB session transaction, so concurrent claims on the same request
// resolve to exactly one winner and a busy collector can never slip a second
// claim in between check and write.
func (r *MongoRequestRepo) ClaimPending(ctx context.Context, requestID, collectorID string) (*models.CollectionRequest, error) {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var claimed models.CollectionRequest

	txnFn := func(sc mongo.SessionContext) error {
		active, err := r.coll.CountDocuments(sc, bson.M{
			"collector_id": collectorID,
			"status":       bson.M{"$in": models.ActiveStatuses},
		})
		if err != nil {
			return fmt.Errorf("active task count failed: %w", err)
		}
		if active > 0 {
			return ErrActiveTask
		}

		now := time.Now().UTC()
		filter := bson.M{
			"id":           requestID,
			"status":       models.StatusPending,
			"collector_id": bson.M{"$in": bson.A{nil, ""}},
		}
		update := bson.M{"$set": bson.M{
			"status":       models.StatusAssigned,
			"collector_id": collectorID,
			"assigned_at":  now,
			"updated_at":   now,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := r.coll.FindOneAndUpdate(sc, filter, update, opts).Decode(&claimed); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNoMatch
			}
			return fmt.Errorf("claim update failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrActiveTask) || errors.Is(err, ErrNoMatch) {
			return nil, err
		}
		return nil, fmt.Errorf("claim transaction failed: %w", err)
	}

	return &claimed, nil
}

// ReleaseClaim rolls an assigned request back to pending and clears the
// collector reference. Used when center assignment finds no eligible center
// and the claim must be handed back to the pool.
func (r *MongoRequestRepo) ReleaseClaim(ctx context.Context, requestID, collectorID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":           requestID,
		"status":       models.StatusAssigned,
		"collector_id": collectorID,
	}
	update := bson.M{
		"$set":   bson.M{"status": models.StatusPending, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"collector_id": "", "assigned_at": ""},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release claim on request %s: %w", requestID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}
