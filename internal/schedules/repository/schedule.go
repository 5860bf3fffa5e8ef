package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	scheduleserrors "wellnest/internal/schedules/errors"
	"wellnest/pkg/config"
	mongotx "wellnest/pkg/db/mongo"
	"wellnest/pkg/model"
)

const (
	CollectionName = "Work_schedules"
)

type mongoWorkScheduleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type WorkScheduleRepository interface {
	Upsert(ctx context.Context, ws *model.WorkSchedule) error
	FindBySpecialistID(ctx context.Context, specialistID string) (*model.WorkSchedule, error)
	FindAll(ctx context.Context, limit int, offset int) ([]*model.WorkSchedule, error)
	Delete(ctx context.Context, specialistID string) error
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoWorkScheduleRepository(cfg *config.Config) WorkScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWorkScheduleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction. A SessionContext cannot be wrapped without breaking
// transaction semantics, so it is returned unchanged with a no-op cancel.
func (r *mongoWorkScheduleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Upsert replaces the specialist's schedule wholesale. The schedule is
// keyed by specialist_id, so the first write creates and later writes
// overwrite.
func (r *mongoWorkScheduleRepository) Upsert(ctx context.Context, ws *model.WorkSchedule) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	ws.UpdatedAt = now
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}

	filter := bson.M{"specialist_id": ws.SpecialistID}
	update := bson.M{
		"$set": bson.M{
			"specialist_id":          ws.SpecialistID,
			"enabled":                ws.Enabled,
			"booking_horizon_months": ws.BookingHorizonMonths,
			"work_days":              ws.WorkDays,
			"vacations":              ws.Vacations,
			"updated_at":             ws.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": ws.CreatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert work schedule: %w", err)
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		ws.ID = oid.Hex()
	}
	return nil
}

func (r *mongoWorkScheduleRepository) FindBySpecialistID(ctx context.Context, specialistID string) (*model.WorkSchedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if specialistID == "" {
		return nil, scheduleserrors.ErrInvalidID
	}

	filter := bson.M{"specialist_id": specialistID}

	var ws model.WorkSchedule
	err := r.collection.FindOne(ctx, filter).Decode(&ws)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, specialistID)
		}
		return nil, fmt.Errorf("failed to find work schedule: %w", err)
	}

	return &ws, nil
}

func (r *mongoWorkScheduleRepository) FindAll(ctx context.Context, limit int, offset int) ([]*model.WorkSchedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query work schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []*model.WorkSchedule
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode work schedules: %w", err)
	}
	return schedules, nil
}

func (r *mongoWorkScheduleRepository) Delete(ctx context.Context, specialistID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if specialistID == "" {
		return scheduleserrors.ErrInvalidID
	}

	filter := bson.M{"specialist_id": specialistID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete work schedule: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, specialistID)
	}
	return nil
}

func (r *mongoWorkScheduleRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count work schedules: %w", err)
	}
	return count, nil
}

func (r *mongoWorkScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
