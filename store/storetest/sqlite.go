// Package storetest opens migrated in-memory SQLite databases and seeds catalog rows for tests.
package storetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite returns a private in-memory database with every table migrated.
// The pool is pinned to one connection so the database lives as long as the test.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.MigrateTable(db))
	return db
}

func Customer(t testing.TB, db *gorm.DB, name string, contact string) *models.Customer {
	t.Helper()
	c := &models.Customer{
		CustomerName:  name,
		ContactNumber: contact,
		CustomerType:  models.CustomerTypeIndividual,
		IsActive:      utils.NewTrue(),
		Lifecycle:     models.ActiveLifecycle(),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func Employee(t testing.TB, db *gorm.DB, name string) *models.Employee {
	t.Helper()
	e := &models.Employee{
		EmployeeName: name,
		Role:         models.EmployeeRoleTechnician,
		IsActive:     utils.NewTrue(),
		Lifecycle:    models.ActiveLifecycle(),
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// Part seeds a catalog part; id 0 lets the database assign one.
func Part(t testing.TB, db *gorm.DB, id int, name string, unitCost int64) *models.Part {
	t.Helper()
	p := &models.Part{
		ID:           id,
		PartName:     name,
		Sku:          fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		UnitCost:     decimal.NewFromInt(unitCost),
		SellingPrice: decimal.NewFromInt(unitCost * 2),
		StockQty:     10,
		IsActive:     utils.NewTrue(),
		Lifecycle:    models.ActiveLifecycle(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Clock is a settable time source for services under test.
type Clock struct {
	At time.Time
}

func NewClock() *Clock {
	return &Clock{At: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	return c.At
}

func (c *Clock) Advance(d time.Duration) {
	c.At = c.At.Add(d)
}
