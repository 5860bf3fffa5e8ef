package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"wellnest/pkg/config"
	"wellnest/pkg/model"
)

const (
	LockCollectionName = "Appointment_locks"
)

// AppointmentLockRepository holds advisory commit locks. The lock _id
// is derived from the specialist and date, so a concurrent insert for
// the same specialist-day fails with a duplicate key error. A TTL index
// on expires_at reclaims locks left behind by crashed requests.
type AppointmentLockRepository interface {
	Create(ctx context.Context, lock *model.AppointmentLock) (*model.AppointmentLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoAppointmentLockRepository struct {
	collection *mongo.Collection
}

func NewAppointmentLockRepository(cfg *config.Config) AppointmentLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Create returns a duplicate key error when the lock is already held.
func (r *mongoAppointmentLockRepository) Create(ctx context.Context, lock *model.AppointmentLock) (*model.AppointmentLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoAppointmentLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
