package models

import (
	"gorm.io/gorm"
)

// AllModels lists every table owned by this service, parents before children.
func AllModels() []any {
	return []any{
		&Customer{}, &Employee{}, &Part{},
		&ServiceOrder{}, &Item{}, &Job{}, &JobPart{},
		&History{}, &ServiceOrderEvent{},
	}
}

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
