package models

import (
	"time"

	"github.com/mmdatafocus/servicecenter_backend/utils"
)

// Lifecycle is embedded by every soft-deletable entity.
type Lifecycle struct {
	LifecycleState LifecycleState `gorm:"size:10;index;not null;default:Active" json:"lifecycle_state"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}

type SoftDeletable interface {
	IsLive() bool
	MarkDeleted(at time.Time)
}

func (l Lifecycle) IsLive() bool {
	return l.LifecycleState == LifecycleActive
}

func (l *Lifecycle) MarkDeleted(at time.Time) {
	l.LifecycleState = LifecycleDeleted
	l.DeletedAt = &at
}

func ActiveLifecycle() Lifecycle {
	return Lifecycle{LifecycleState: LifecycleActive}
}

// LiveScope is the one predicate that hides soft-deleted rows.
func LiveScope() utils.Filter {
	return utils.Where("lifecycle_state = ?", LifecycleActive)
}
