package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/repository"
)

const snapshotCollectionName = "plan_snapshots"

// mongoSnapshotRepository implements repository.SnapshotRepository.
// Snapshots are insert-only.
type mongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewMongoSnapshotRepository creates a new PlanSnapshot repository.
func NewMongoSnapshotRepository(db *mongo.Database) repository.SnapshotRepository {
	return &mongoSnapshotRepository{
		collection: db.Collection(snapshotCollectionName),
	}
}

// Create inserts a new snapshot.
func (r *mongoSnapshotRepository) Create(ctx context.Context, snap *domain.PlanSnapshot) (primitive.ObjectID, error) {
	if snap.UserID.IsZero() {
		return primitive.NilObjectID, errors.New("snapshot requires user_id")
	}
	if snap.ID.IsZero() {
		snap.ID = primitive.NewObjectID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, snap)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted snapshot ID")
	}
	return insertedID, nil
}

// Latest retrieves the newest snapshot of a user.
func (r *mongoSnapshotRepository) Latest(ctx context.Context, userID primitive.ObjectID) (*domain.PlanSnapshot, error) {
	var snap domain.PlanSnapshot
	filter := bson.M{"user_id": userID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// ListByUser returns up to limit snapshots, newest first.
func (r *mongoSnapshotRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanSnapshot, error) {
	var snaps []domain.PlanSnapshot
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &snaps); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Delete removes a snapshot. It is only used to undo an insert whose commit
// failed.
func (r *mongoSnapshotRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSnapshotIndexes creates necessary indexes. Call during startup.
func EnsureSnapshotIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Main query pattern: newest snapshot of a user.
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
