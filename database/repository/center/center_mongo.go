package centerRepo

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

const centerColl = "recycling_centers"

// MongoCenterRepo implements CenterRepository using MongoDB.
type MongoCenterRepo struct {
	coll *mongo.Collection
}

// NewMongoCenterRepo creates a new CenterRepository backed by MongoDB.
func NewMongoCenterRepo() *MongoCenterRepo {
	return &MongoCenterRepo{coll: database.Collection(centerColl)}
}

func (r *MongoCenterRepo) GetByID(ctx context.Context, id string) (*models.RecyclingCenter, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var center models.RecyclingCenter
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&center); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch center %s: %w", id, err)
	}
	return &center, nil
}

func (r *MongoCenterRepo) ListActive(ctx context.Context) ([]models.RecyclingCenter, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *MongoCenterRepo) ListAcceptingAny(ctx context.Context, categories []string) ([]models.RecyclingCenter, error) {
	return r.find(ctx, bson.M{
		"active":              true,
		"accepted_categories": bson.M{"$in": categories},
	})
}

func (r *MongoCenterRepo) find(ctx context.Context, filter bson.M) ([]models.RecyclingCenter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list centers: %w", err)
	}
	defer cursor.Close(ctx)

	var centers []models.RecyclingCenter
	for cursor.Next(ctx) {
		var c models.RecyclingCenter
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode center: %w", err)
		}
		centers = append(centers, c)
	}
	return centers, cursor.Err()
}
