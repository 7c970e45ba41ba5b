package store

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on a *gorm.DB. Associations are never written implicitly.
type GormStore struct {
	gormSession
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormSession{db: db}}
}

func (s *GormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "begin transaction")
	}
	return &gormTx{gormSession: gormSession{db: tx}}, nil
}

type gormTx struct {
	gormSession
	done bool
}

func (t *gormTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	return translate("commit", t.db.Commit().Error)
}

// Rollback after Commit or a previous Rollback is a no-op.
func (t *gormTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return translate("rollback", t.db.Rollback().Error)
}

type gormSession struct {
	db *gorm.DB
}

func (s gormSession) Get(ctx context.Context, dest any, id int) (bool, error) {
	err := s.db.WithContext(ctx).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate("get", err)
	}
	return true, nil
}

func (s gormSession) Find(ctx context.Context, dest any, filter Filter) error {
	return translate("find", s.scoped(ctx, filter).Find(dest).Error)
}

func (s gormSession) Count(ctx context.Context, model any, filter Filter) (int64, error) {
	var count int64
	filter.Order, filter.Limit = "", 0
	err := s.scoped(ctx, filter).Model(model).Count(&count).Error
	return count, translate("count", err)
}

func (s gormSession) Add(ctx context.Context, entity any) error {
	return translate("add", s.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error)
}

func (s gormSession) AddBatch(ctx context.Context, entities any) error {
	v := reflect.Indirect(reflect.ValueOf(entities))
	if v.Kind() == reflect.Slice && v.Len() == 0 {
		return nil
	}
	return translate("add batch", s.db.WithContext(ctx).Omit(clause.Associations).Create(entities).Error)
}

func (s gormSession) Update(ctx context.Context, entity any) error {
	return translate("update", s.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error)
}

func (s gormSession) UpdateVersioned(ctx context.Context, entity Versioned, expected int) error {
	entity.SetVersion(expected + 1)
	res := s.db.WithContext(ctx).
		Model(entity).
		Where("version = ?", expected).
		Select("*").
		Omit(clause.Associations).
		Updates(entity)
	if res.Error != nil {
		entity.SetVersion(expected)
		return translate("update versioned", res.Error)
	}
	if res.RowsAffected == 0 {
		entity.SetVersion(expected)
		return utils.NewConflictError("record was modified by another request", nil)
	}
	return nil
}

func (s gormSession) Delete(ctx context.Context, entity any) error {
	return translate("delete", s.db.WithContext(ctx).Omit(clause.Associations).Delete(entity).Error)
}

func (s gormSession) scoped(ctx context.Context, filter Filter) *gorm.DB {
	q := s.db.WithContext(ctx)
	if filter.Cond != "" {
		q = q.Where(filter.Cond, filter.Values...)
	}
	if filter.Order != "" {
		q = q.Order(filter.Order)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}

// translate turns unique-key violations into Conflict and wraps everything else.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateKeyErr(err) {
		return utils.NewConflictError("duplicate record", err)
	}
	return errors.Wrap(err, op)
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite3 reports constraint failures only through the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
