package hierarchy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store/storetest"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedWorkshopOrder writes service order 10 / item 1 / job 5 with one part-9 row (2 x 50).
func seedWorkshopOrder(t *testing.T, f *fixture) int {
	t.Helper()
	now := f.clock.Now()
	storetest.Part(t, f.db, 9, "Charging port", 50)
	require.NoError(t, f.db.Create(&models.ServiceOrder{
		ID: 10, ServiceOrderNumber: models.ServiceOrderNumberFor(10, now), CustomerId: f.customer.ID,
		Status: models.ServiceOrderStatusReceived, Version: 1, Lifecycle: models.ActiveLifecycle(), CreatedAt: now,
	}).Error)
	require.NoError(t, f.db.Create(&models.Item{
		ID: 1, ServiceOrderId: 10, DeviceType: "Phone", InspectionStatus: models.InspectionStatusPending,
		Lifecycle: models.ActiveLifecycle(),
	}).Error)
	require.NoError(t, f.db.Create(&models.Job{
		ID: 5, ItemId: 1, ReceivedDate: now, Priority: models.JobPriorityNormal, Status: models.JobStatusPending,
		ActualCost: decimal.NewFromInt(100), Lifecycle: models.ActiveLifecycle(),
	}).Error)
	jp := &models.JobPart{JobId: 5, PartId: 9, Quantity: 2, UnitCost: decimal.NewFromInt(50), AddedAt: now}
	jp.RecalculateTotal()
	require.NoError(t, f.db.Create(jp).Error)
	return jp.ID
}

func TestSmartUpdateReplacesJobPartAndRecomputesCost(t *testing.T) {
	f := newFixture(t)
	oldPartRowId := seedWorkshopOrder(t, f)

	so, sum, err := f.svc.ReconcileServiceOrder(context.Background(), &models.ServiceOrderUpdate{
		ServiceOrderId: 10,
		Items: []models.ItemUpdate{{
			ItemId: 1,
			Jobs: []models.JobUpdate{{
				JobId:    5,
				JobParts: []models.JobPartUpdate{{JobPartPatch: models.JobPartPatch{PartId: 9, Quantity: 3, UnitCost: dec(50)}}},
			}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, so.Items, 1)
	require.Len(t, so.Items[0].Jobs, 1)
	job := so.Items[0].Jobs[0]
	assert.Equal(t, 5, job.ID)
	require.Len(t, job.JobParts, 1)
	assert.NotEqual(t, oldPartRowId, job.JobParts[0].ID)
	assert.Equal(t, 3, job.JobParts[0].Quantity)
	assert.True(t, job.JobParts[0].TotalCost.Equal(decimal.NewFromInt(150)))
	assert.True(t, job.ActualCost.Equal(decimal.NewFromInt(150)))

	assert.EqualValues(t, 0, f.count(t, &models.JobPart{}, utils.Where("id = ?", oldPartRowId)))
	assert.Equal(t, LevelCounts{Added: 1, Deleted: 1}, sum.JobParts)
	assert.Equal(t, LevelCounts{Updated: 1}, sum.Jobs)
	assert.Equal(t, LevelCounts{Updated: 1}, sum.Items)
	assert.Equal(t, 2, so.Version)
	f.requireCostInvariant(t)
}

func TestSmartUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)

	first, sum, err := f.svc.ReconcileServiceOrder(ctx, updateDocFrom(so))
	require.NoError(t, err)
	for _, lc := range []LevelCounts{sum.Items, sum.Jobs, sum.JobParts} {
		assert.Zero(t, lc.Added)
		assert.Zero(t, lc.Deleted)
	}

	second, sum, err := f.svc.ReconcileServiceOrder(ctx, updateDocFrom(first))
	require.NoError(t, err)
	assert.Zero(t, sum.JobParts.Added+sum.JobParts.Deleted+sum.Jobs.Added+sum.Jobs.Deleted+sum.Items.Added+sum.Items.Deleted)

	for i := range so.Items {
		for j := range so.Items[i].Jobs {
			before := so.Items[i].Jobs[j]
			after := second.Items[i].Jobs[j]
			assert.Equal(t, before.ID, after.ID)
			assert.True(t, before.ActualCost.Equal(after.ActualCost))
			require.Len(t, after.JobParts, len(before.JobParts))
			for k := range before.JobParts {
				assert.Equal(t, before.JobParts[k].ID, after.JobParts[k].ID)
			}
		}
	}
	f.requireCostInvariant(t)
}

func TestSmartUpdateDeletesOmittedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)
	third, err := f.svc.CreateItemComplete(ctx, so.ID, &models.NewItem{ItemPatch: models.ItemPatch{DeviceType: "Watch"}})
	require.NoError(t, err)
	so, err = f.svc.GetServiceOrderDetailed(ctx, so.ID)
	require.NoError(t, err)
	require.Len(t, so.Items, 3)

	doc := updateDocFrom(so)
	omitted := so.Items[1]
	doc.Items = []models.ItemUpdate{doc.Items[0], doc.Items[2]}
	doc.Items[1].Brand = "Initech"

	result, sum, err := f.svc.ReconcileServiceOrder(ctx, doc)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, so.Items[0].ID, result.Items[0].ID)
	assert.Equal(t, third.ID, result.Items[1].ID)
	assert.Equal(t, "Initech", result.Items[1].Brand)
	assert.Equal(t, LevelCounts{Updated: 2, Deleted: 1}, sum.Items)

	var gone models.Item
	require.NoError(t, f.db.First(&gone, omitted.ID).Error)
	assert.Equal(t, models.LifecycleDeleted, gone.LifecycleState)
	require.NotNil(t, gone.DeletedAt)

	// cascade: the omitted item's job is soft-deleted and its parts removed
	var job models.Job
	require.NoError(t, f.db.First(&job, omitted.Jobs[0].ID).Error)
	assert.Equal(t, models.LifecycleDeleted, job.LifecycleState)
	assert.True(t, job.ActualCost.IsZero())
	assert.EqualValues(t, 0, f.count(t, &models.JobPart{}, utils.Where("job_id = ?", job.ID)))
	f.requireCostInvariant(t)
}

func TestSmartUpdateEmptyCollectionDeletesAll(t *testing.T) {
	f := newFixture(t)
	so := f.phoneOrder(t)
	doc := updateDocFrom(so)
	doc.Items = []models.ItemUpdate{}

	result, sum, err := f.svc.ReconcileServiceOrder(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 2, sum.Items.Deleted)
	assert.Equal(t, 2, sum.Jobs.Deleted)
	assert.Equal(t, 2, sum.JobParts.Deleted)
	assert.EqualValues(t, 0, f.count(t, &models.JobPart{}, utils.Filter{}))
}

func TestSmartUpdateNewJobGetsFreshIdentity(t *testing.T) {
	f := newFixture(t)
	so := f.phoneOrder(t)
	doc := updateDocFrom(so)
	existingJobId := so.Items[0].Jobs[0].ID
	doc.Items[0].Jobs = append(doc.Items[0].Jobs, models.JobUpdate{
		JobPatch: models.JobPatch{ServiceType: "Water damage", Priority: models.JobPriorityUrgent},
		JobParts: []models.JobPartUpdate{{JobPartPatch: models.JobPartPatch{PartId: f.battery.ID, Quantity: 1}}},
	})

	result, sum, err := f.svc.ReconcileServiceOrder(context.Background(), doc)
	require.NoError(t, err)
	jobs := result.Items[0].Jobs
	require.Len(t, jobs, 2)
	assert.Equal(t, existingJobId, jobs[0].ID)
	assert.NotEqual(t, existingJobId, jobs[1].ID)
	assert.Greater(t, jobs[1].ID, 0)
	assert.Equal(t, models.JobPriorityUrgent, jobs[1].Priority)
	assert.True(t, jobs[1].ActualCost.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, 1, sum.Jobs.Added)
	f.requireCostInvariant(t)
}

func TestSmartUpdateMergesNonEmptyFields(t *testing.T) {
	f := newFixture(t)
	so := f.phoneOrder(t)
	f.clock.Advance(time.Hour)

	doc := updateDocFrom(so)
	doc.Notes = ""
	doc.Status = models.ServiceOrderStatusInProgress
	doc.Items[0].Brand = ""
	doc.Items[0].Model = "X200"
	doc.Items[0].Jobs[0].Diagnosis = "cracked digitizer"
	doc.Items[0].Jobs[0].Status = models.JobStatusCompleted
	doc.Items[0].Jobs[0].JobParts[0].Quantity = 2
	doc.Items[0].Jobs[0].JobParts[0].UnitCost = nil

	result, err := f.svc.SmartUpdateServiceOrder(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "walk-in", result.Notes)
	assert.Equal(t, models.ServiceOrderStatusInProgress, result.Status)
	item := result.Items[0]
	assert.Equal(t, "Acme", item.Brand)
	assert.Equal(t, "X200", item.Model)
	job := item.Jobs[0]
	assert.Equal(t, "cracked digitizer", job.Diagnosis)
	require.NotNil(t, job.DiagnosisDate)
	assert.True(t, job.DiagnosisDate.Equal(f.clock.Now()))
	require.NotNil(t, job.CompletionDate)
	assert.True(t, job.JobParts[0].UnitCost.Equal(decimal.NewFromInt(1200)))
	assert.True(t, job.ActualCost.Equal(decimal.NewFromInt(2400)))
}

func TestSmartUpdateAtomicOnMissingPart(t *testing.T) {
	f := newFixture(t)
	so := f.phoneOrder(t)
	before := f.treeJSON(t, so.ID)

	doc := updateDocFrom(so)
	doc.Notes = "should not stick"
	doc.Items[0].Brand = "Changed"
	doc.Items[0].Jobs[0].JobParts = []models.JobPartUpdate{}
	doc.Items[1].Jobs = append(doc.Items[1].Jobs, models.JobUpdate{
		JobParts: []models.JobPartUpdate{{JobPartPatch: models.JobPartPatch{PartId: 31337, Quantity: 1}}},
	})

	_, err := f.svc.SmartUpdateServiceOrder(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, utils.IsNotFound(err))
	assert.Equal(t, before, f.treeJSON(t, so.ID))
	assert.EqualValues(t, 1, f.count(t, &models.ServiceOrderEvent{}, utils.Filter{}))
}

func TestSmartUpdateRejectsForeignChild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.phoneOrder(t)
	second := f.phoneOrder(t)

	doc := updateDocFrom(first)
	doc.Items = append(doc.Items, updateDocFrom(second).Items[0])
	_, err := f.svc.SmartUpdateServiceOrder(ctx, doc)
	require.True(t, utils.IsNotFound(err), "got %v", err)
	assert.Contains(t, err.Error(), "Item with id")

	doc = updateDocFrom(first)
	doc.Items[0].Jobs[0].JobParts[0].JobPartId = second.Items[0].Jobs[0].JobParts[0].ID
	_, err = f.svc.SmartUpdateServiceOrder(ctx, doc)
	assert.True(t, utils.IsNotFound(err), "got %v", err)
}

func TestSmartUpdateMissingOrDeletedRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SmartUpdateServiceOrder(ctx, &models.ServiceOrderUpdate{ServiceOrderId: 404, Items: []models.ItemUpdate{}})
	assert.True(t, utils.IsNotFound(err))

	so := f.phoneOrder(t)
	require.NoError(t, f.svc.DeleteServiceOrder(ctx, so.ID))
	_, err = f.svc.SmartUpdateServiceOrder(ctx, &models.ServiceOrderUpdate{ServiceOrderId: so.ID, Items: []models.ItemUpdate{}})
	assert.True(t, utils.IsNotFound(err))
}

func TestSmartUpdateDocumentValidation(t *testing.T) {
	f := newFixture(t)
	so := f.phoneOrder(t)

	cases := []struct {
		name  string
		tweak func(doc *models.ServiceOrderUpdate)
		field string
	}{
		{"nil items", func(doc *models.ServiceOrderUpdate) { doc.Items = nil }, "items"},
		{"nil jobs on existing item", func(doc *models.ServiceOrderUpdate) { doc.Items[0].Jobs = nil }, "items[0].jobs"},
		{"nil parts on existing job", func(doc *models.ServiceOrderUpdate) { doc.Items[0].Jobs[0].JobParts = nil }, "items[0].jobs[0].job_parts"},
		{"duplicate item", func(doc *models.ServiceOrderUpdate) { doc.Items = append(doc.Items, doc.Items[0]) }, "items[2].item_id"},
		{"new item without device type", func(doc *models.ServiceOrderUpdate) {
			doc.Items = append(doc.Items, models.ItemUpdate{})
		}, "items[2].device_type"},
		{"existing job under new item", func(doc *models.ServiceOrderUpdate) {
			doc.Items = append(doc.Items, models.ItemUpdate{
				ItemPatch: models.ItemPatch{DeviceType: "Phone"},
				Jobs:      []models.JobUpdate{{JobId: so.Items[0].Jobs[0].ID}},
			})
		}, "items[2].jobs[0].job_id"},
		{"new part without quantity", func(doc *models.ServiceOrderUpdate) {
			doc.Items[0].Jobs[0].JobParts = append(doc.Items[0].Jobs[0].JobParts,
				models.JobPartUpdate{JobPartPatch: models.JobPartPatch{PartId: f.screen.ID}})
		}, "items[0].jobs[0].job_parts[1].quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := updateDocFrom(so)
			tc.tweak(doc)
			_, err := f.svc.SmartUpdateServiceOrder(context.Background(), doc)
			require.True(t, utils.IsValidation(err), "got %v", err)
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Fields, tc.field)
		})
	}

	_, err := f.svc.SmartUpdateServiceOrder(context.Background(), nil)
	assert.True(t, utils.IsValidation(err))
	_, err = f.svc.SmartUpdateServiceOrder(context.Background(), &models.ServiceOrderUpdate{Items: []models.ItemUpdate{}})
	assert.True(t, utils.IsValidation(err))
}

func TestSmartUpdateVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)

	stale := updateDocFrom(so)
	_, err := f.svc.SmartUpdateServiceOrder(ctx, updateDocFrom(so))
	require.NoError(t, err)

	_, err = f.svc.SmartUpdateServiceOrder(ctx, stale)
	assert.True(t, utils.IsConflict(err), "got %v", err)

	// version 0 opts out of the check
	stale.Version = 0
	result, err := f.svc.SmartUpdateServiceOrder(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Version)
}

type recordingLocker struct {
	locked   []int
	released int
	err      error
}

func (l *recordingLocker) Lock(_ context.Context, serviceOrderId int) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, serviceOrderId)
	return func() { l.released++ }, nil
}

func TestSmartUpdateHoldsServiceOrderLock(t *testing.T) {
	locker := &recordingLocker{}
	f := newFixture(t, WithLocker(locker))
	so := f.phoneOrder(t)

	_, err := f.svc.SmartUpdateServiceOrder(context.Background(), updateDocFrom(so))
	require.NoError(t, err)
	assert.Equal(t, []int{so.ID}, locker.locked)
	assert.Equal(t, 1, locker.released)

	locker.err = utils.NewConflictError("busy", errors.New("lock held"))
	_, err = f.svc.SmartUpdateServiceOrder(context.Background(), updateDocFrom(so))
	assert.True(t, utils.IsConflict(err))
}
