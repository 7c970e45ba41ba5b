package hierarchy

import (
	"context"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

func isSoftDeletable[T any]() bool {
	var zero T
	_, ok := any(&zero).(models.SoftDeletable)
	return ok
}

// liveChildren is the only way children are read: rows owned by any of parentIds
// through foreignKey, minus soft-deleted ones, ordered by id.
func liveChildren[T any](ctx context.Context, s store.Session, foreignKey string, parentIds ...int) ([]T, error) {
	if len(parentIds) == 0 {
		return nil, nil
	}
	filter := utils.Where(foreignKey+" IN ?", parentIds)
	if isSoftDeletable[T]() {
		filter = models.LiveScope().And(foreignKey+" IN ?", parentIds)
	}
	return store.Find[T](ctx, s, filter.OrderBy("id ASC"))
}

// liveByID loads one row and treats a soft-deleted row as absent.
func liveByID[T any](ctx context.Context, s store.Session, entity string, id int) (*T, error) {
	return store.GetLive[T](ctx, s, entity, id)
}

func idsOf[T interface{ GetId() int }](rows []T) []int {
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GetId())
	}
	return ids
}
