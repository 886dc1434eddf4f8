package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	reservationserrors "stayhub/internal/reservations/errors"
	"stayhub/pkg/config"
	"stayhub/pkg/model"
)

const (
	LockCollectionName = "Reservation_locks"
)

// ReservationLockRepository provides operations for per-room advisory locks.
type ReservationLockRepository interface {
	Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoReservationLockRepository struct {
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Create inserts the lock document. A unique _id collision means the
// lock is already held, surfaced as ErrLockHeld so the service can
// retry. Abandoned locks are reaped by the TTL index on expires_at.
func (r *mongoReservationLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockHeld, lock.ID)
		}
		return nil, fmt.Errorf("failed to create reservation lock: %w", err)
	}

	return lock, nil
}

func (r *mongoReservationLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
