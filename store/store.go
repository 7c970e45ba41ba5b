// Package store is the persistence port consumed by the service layer, plus its gorm implementation.
package store

import (
	"context"

	"github.com/mmdatafocus/servicecenter_backend/utils"
)

type Filter = utils.Filter

// Session is the CRUD surface shared by a store and an open transaction.
// dest/entity arguments are pointers to gorm models (or to slices of them).
type Session interface {
	// Get loads the row with the given id into dest; found is false when it does not exist.
	Get(ctx context.Context, dest any, id int) (found bool, err error)
	Find(ctx context.Context, dest any, filter Filter) error
	Count(ctx context.Context, model any, filter Filter) (int64, error)
	Add(ctx context.Context, entity any) error
	AddBatch(ctx context.Context, entities any) error
	Update(ctx context.Context, entity any) error
	// UpdateVersioned writes entity only if its stored version equals expected, bumping it by one.
	UpdateVersioned(ctx context.Context, entity Versioned, expected int) error
	Delete(ctx context.Context, entity any) error
}

type Tx interface {
	Session
	Commit() error
	Rollback() error
}

type Store interface {
	Session
	Begin(ctx context.Context) (Tx, error)
}

type Versioned interface {
	GetId() int
	GetVersion() int
	SetVersion(int)
}

// Get is the typed form of Session.Get; a missing row is a NotFound AppError.
func Get[T any](ctx context.Context, s Session, entity string, id int) (*T, error) {
	var result T
	found, err := s.Get(ctx, &result, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NewNotFoundError(entity, id)
	}
	return &result, nil
}

// GetLive is Get that also treats a soft-deleted row (IsLive false) as absent.
func GetLive[T any](ctx context.Context, s Session, entity string, id int) (*T, error) {
	if id <= 0 {
		return nil, utils.NewNotFoundError(entity, id)
	}
	row, err := Get[T](ctx, s, entity, id)
	if err != nil {
		return nil, err
	}
	if lv, ok := any(row).(interface{ IsLive() bool }); ok && !lv.IsLive() {
		return nil, utils.NewNotFoundError(entity, id)
	}
	return row, nil
}

func Find[T any](ctx context.Context, s Session, filter Filter) ([]T, error) {
	var results []T
	if err := s.Find(ctx, &results, filter); err != nil {
		return nil, err
	}
	return results, nil
}

// InTransaction runs fn in a fresh transaction: commit when fn returns nil, rollback on error or panic.
func InTransaction(ctx context.Context, s Store, fn func(tx Tx) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
