package requestRepo

import (
	"context"
	"fmt"
	"time"

	"ecocycle/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransitionStatus performs a compare-and-swap on the request's status. The
// filter pins the expected current status, so concurrent transition attempts
// on the same request are serialized by the store: exactly one write matches,
// the rest see ErrNoMatch.
func (r *MongoRequestRepo) TransitionStatus(ctx context.Context, requestID, from, to string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range set {
		fields[k] = v
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": requestID, "status": from}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("transition %s->%s failed for request %s: %w", from, to, requestID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

// AssignCenter binds a recycling center to an assigned request. The filter
// requires the center to be unset, which makes the binding set-once for the
// life of the request.
func (r *MongoRequestRepo) AssignCenter(ctx context.Context, requestID, centerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":                  requestID,
		"status":              models.StatusAssigned,
		"recycling_center_id": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{"$set": bson.M{
		"recycling_center_id": centerID,
		"updated_at":          time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to assign center %s to request %s: %w", centerID, requestID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

// Reschedule mutates the scheduling fields of a non-terminal request in a
// single aggregation-pipeline update: the original date/time are captured only
// when reschedule_count is still zero, and the counter increments in the same
// write.
func (r *MongoRequestRepo) Reschedule(ctx context.Context, requestID, date, timeOfDay string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     requestID,
		"status": bson.M{"$nin": bson.A{models.StatusConfirmed, models.StatusCancelled}},
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "original_scheduled_date", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$reschedule_count", 0}}},
				"$scheduled_date",
				"$original_scheduled_date",
			}}}},
			{Key: "original_scheduled_time", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$reschedule_count", 0}}},
				"$scheduled_time",
				"$original_scheduled_time",
			}}}},
			{Key: "scheduled_date", Value: date},
			{Key: "scheduled_time", Value: timeOfDay},
			{Key: "reschedule_count", Value: bson.D{{Key: "$add", Value: bson.A{"$reschedule_count", 1}}}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	}

	res, err := r.coll.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return fmt.Errorf("failed to reschedule request %s: %w", requestID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}
