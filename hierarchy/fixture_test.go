package hierarchy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/store/storetest"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc      *Service
	db       *gorm.DB
	clock    *storetest.Clock
	customer *models.Customer
	tech     *models.Employee
	screen   *models.Part
	battery  *models.Part
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := storetest.OpenSQLite(t)
	clock := storetest.NewClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &fixture{
		svc:      NewService(store.NewGormStore(db), opts...),
		db:       db,
		clock:    clock,
		customer: storetest.Customer(t, db, "Asha Rao", "+919876543210"),
		tech:     storetest.Employee(t, db, "Vikram"),
		screen:   storetest.Part(t, db, 0, "Screen", 1200),
		battery:  storetest.Part(t, db, 0, "Battery", 800),
	}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// phoneOrder is a service order with two items: a phone with one job using a screen,
// and a laptop with one job using two batteries.
func (f *fixture) phoneOrder(t *testing.T) *models.ServiceOrder {
	t.Helper()
	so, err := f.svc.CreateServiceOrderComplete(context.Background(), f.customer.ID, &models.NewServiceOrder{
		CreatedByEmployeeId: f.tech.ID,
		ServiceOrderPatch:   models.ServiceOrderPatch{ServiceType: "Repair", Notes: "walk-in"},
		Items: []models.NewItem{
			{
				ItemPatch: models.ItemPatch{DeviceType: "Phone", Brand: "Acme", Imei: "356938035643809"},
				Jobs: []models.NewJob{{
					JobPatch: models.JobPatch{ServiceType: "Screen replacement", AssignedTo: f.tech.ID},
					JobParts: []models.NewJobPart{{PartId: f.screen.ID, Quantity: 1}},
				}},
			},
			{
				ItemPatch: models.ItemPatch{DeviceType: "Laptop", Brand: "Globex"},
				Jobs: []models.NewJob{{
					JobPatch: models.JobPatch{ServiceType: "Battery swap"},
					JobParts: []models.NewJobPart{{PartId: f.battery.ID, Quantity: 2}},
				}},
			},
		},
	})
	require.NoError(t, err)
	return so
}

// updateDocFrom echoes a persisted tree back as an update document.
func updateDocFrom(so *models.ServiceOrder) *models.ServiceOrderUpdate {
	doc := &models.ServiceOrderUpdate{
		ServiceOrderId: so.ID,
		Version:        so.Version,
		ServiceOrderPatch: models.ServiceOrderPatch{
			ServiceType:        so.ServiceType,
			Notes:              so.Notes,
			ExpectedPickupDate: so.ExpectedPickupDate,
			Status:             so.Status,
		},
		Items: []models.ItemUpdate{},
	}
	for _, item := range so.Items {
		iu := models.ItemUpdate{
			ItemId: item.ID,
			ItemPatch: models.ItemPatch{
				DeviceType: item.DeviceType, Brand: item.Brand, Model: item.Model, SerialNo: item.SerialNo,
				Imei: item.Imei, Accessories: item.Accessories, ConditionOnReceipt: item.ConditionOnReceipt,
				InspectionStatus: item.InspectionStatus,
			},
			Jobs: []models.JobUpdate{},
		}
		for _, job := range item.Jobs {
			est := job.EstimatedCost
			ju := models.JobUpdate{
				JobId: job.ID,
				JobPatch: models.JobPatch{
					ServiceType: job.ServiceType, AssignedTo: job.AssignedTo, Priority: job.Priority,
					EstimatedCost: &est, Diagnosis: job.Diagnosis, TargetCompletionDate: job.TargetCompletionDate,
					Notes: job.Notes, Status: job.Status,
				},
				JobParts: []models.JobPartUpdate{},
			}
			for _, jp := range job.JobParts {
				unit := jp.UnitCost
				warranty := jp.IsWarrantyPart
				ju.JobParts = append(ju.JobParts, models.JobPartUpdate{
					JobPartId: jp.ID,
					JobPartPatch: models.JobPartPatch{
						PartId: jp.PartId, Quantity: jp.Quantity, UnitCost: &unit, IsWarrantyPart: &warranty,
					},
				})
			}
			iu.Jobs = append(iu.Jobs, ju)
		}
		doc.Items = append(doc.Items, iu)
	}
	return doc
}

// treeJSON renders the persisted hierarchy for whole-state comparisons.
func (f *fixture) treeJSON(t *testing.T, id int) string {
	t.Helper()
	so, err := f.svc.GetServiceOrderDetailed(context.Background(), id)
	require.NoError(t, err)
	b, err := json.Marshal(so)
	require.NoError(t, err)
	return string(b)
}

func (f *fixture) count(t *testing.T, model any, filter utils.Filter) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if filter.Cond != "" {
		q = q.Where(filter.Cond, filter.Values...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// requireCostInvariant checks ActualCost against the live parts of every live job.
func (f *fixture) requireCostInvariant(t *testing.T) {
	t.Helper()
	var jobs []models.Job
	require.NoError(t, f.db.Where("lifecycle_state = ?", models.LifecycleActive).Find(&jobs).Error)
	for _, job := range jobs {
		var parts []models.JobPart
		require.NoError(t, f.db.Where("job_id = ?", job.ID).Find(&parts).Error)
		require.True(t, sumTotalCost(parts).Equal(job.ActualCost),
			"job %d: actual cost %s, parts sum %s", job.ID, job.ActualCost, sumTotalCost(parts))
	}
}
