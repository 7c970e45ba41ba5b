package utils

import (
	"context"
)

// Filter is a storage-agnostic predicate: a SQL-style condition plus ordering.
type Filter struct {
	Cond   string
	Values []interface{}
	Order  string
	Limit  int
}

func Where(cond string, values ...interface{}) Filter {
	return Filter{Cond: cond, Values: values}
}

// And appends cond to the filter with AND.
func (f Filter) And(cond string, values ...interface{}) Filter {
	if f.Cond == "" {
		return Filter{Cond: cond, Values: values, Order: f.Order, Limit: f.Limit}
	}
	merged := make([]interface{}, 0, len(f.Values)+len(values))
	merged = append(merged, f.Values...)
	merged = append(merged, values...)
	return Filter{Cond: "(" + f.Cond + ") AND (" + cond + ")", Values: merged, Order: f.Order, Limit: f.Limit}
}

func (f Filter) OrderBy(order string) Filter {
	f.Order = order
	return f
}

// Take caps the number of rows returned; 0 means no cap.
func (f Filter) Take(n int) Filter {
	f.Limit = n
	return f
}

type ResourceCounter interface {
	Count(ctx context.Context, model interface{}, filter Filter) (int64, error)
}

// check if id exists under the given scope, return a NotFound AppError otherwise
func ValidateResourceId[T any](ctx context.Context, c ResourceCounter, entity string, id int, scope Filter) error {
	var model T
	count, err := c.Count(ctx, &model, scope.And("id = ?", id))
	if err != nil {
		return err
	}
	if count <= 0 {
		return NewNotFoundError(entity, id)
	}
	return nil
}

// check if ALL ids exist under the given scope; reports the first missing one
func ValidateResourcesId[T any](ctx context.Context, c ResourceCounter, entity string, ids []int, scope Filter) error {
	unqIds := UniqueSlice(ids)
	if len(unqIds) == 0 {
		return nil
	}
	var model T
	count, err := c.Count(ctx, &model, scope.And("id IN ?", unqIds))
	if err != nil {
		return err
	}
	if count == int64(len(unqIds)) {
		return nil
	}
	for _, id := range unqIds {
		if err := ValidateResourceId[T](ctx, c, entity, id, scope); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUnique fails with a Conflict when another row in scope already holds value.
func ValidateUnique[T any](ctx context.Context, c ResourceCounter, column string, value interface{}, exceptId int, scope Filter) error {
	var model T
	filter := scope.And(column+" = ?", value)
	if exceptId > 0 {
		filter = filter.And("id <> ?", exceptId)
	}
	count, err := c.Count(ctx, &model, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return NewConflictError("duplicate "+column, nil)
	}
	return nil
}
