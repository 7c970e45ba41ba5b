package hierarchy

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateServiceOrderKeepsChildren(t *testing.T) {
	f := newFixture(t)
	so := f.phoneOrder(t)
	pickup := f.clock.Now().Add(48 * time.Hour)

	result, err := f.svc.UpdateServiceOrder(context.Background(), so.ID, &models.ServiceOrderPatch{
		Status:             models.ServiceOrderStatusReady,
		ExpectedPickupDate: &pickup,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ServiceOrderStatusReady, result.Status)
	assert.Equal(t, "Repair", result.ServiceType)
	require.NotNil(t, result.ExpectedPickupDate)
	assert.True(t, result.ExpectedPickupDate.Equal(pickup))
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 2, result.Version)

	_, err = f.svc.UpdateServiceOrder(context.Background(), so.ID, &models.ServiceOrderPatch{Status: "Lost"})
	assert.True(t, utils.IsValidation(err))
}

func TestDeleteServiceOrderCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)

	require.NoError(t, f.svc.DeleteServiceOrder(ctx, so.ID))
	_, err := f.svc.GetServiceOrderDetailed(ctx, so.ID)
	assert.True(t, utils.IsNotFound(err))
	assert.EqualValues(t, 0, f.count(t, &models.Item{}, models.LiveScope()))
	assert.EqualValues(t, 0, f.count(t, &models.Job{}, models.LiveScope()))
	assert.EqualValues(t, 0, f.count(t, &models.JobPart{}, utils.Filter{}))
	assert.EqualValues(t, 1, f.count(t, &models.ServiceOrderEvent{}, utils.Where("action = ?", models.EventServiceOrderDeleted)))

	assert.True(t, utils.IsNotFound(f.svc.DeleteServiceOrder(ctx, so.ID)))
}

func TestSearchServiceOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.phoneOrder(t)
	second := f.phoneOrder(t)
	require.NoError(t, f.svc.DeleteServiceOrder(ctx, first.ID))

	all, err := f.svc.SearchServiceOrders(ctx, &models.ServiceOrderSearch{CustomerId: f.customer.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)

	byNumber, err := f.svc.SearchServiceOrders(ctx, &models.ServiceOrderSearch{Number: "-00002"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, second.ServiceOrderNumber, byNumber[0].ServiceOrderNumber)

	none, err := f.svc.SearchServiceOrders(ctx, &models.ServiceOrderSearch{CustomerId: 9999})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)
	phone := so.Items[0]

	updated, err := f.svc.UpdateItem(ctx, phone.ID, &models.ItemPatch{
		InspectionStatus: models.InspectionStatusInspected,
		Accessories:      "charger",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InspectionStatusInspected, updated.InspectionStatus)
	assert.Equal(t, "Acme", updated.Brand)
	assert.Len(t, updated.Jobs, 1)

	_, err = f.svc.UpdateItem(ctx, phone.ID, &models.ItemPatch{Imei: "12ab"})
	assert.True(t, utils.IsValidation(err))

	require.NoError(t, f.svc.DeleteItem(ctx, phone.ID))
	_, err = f.svc.GetItemDetailed(ctx, phone.ID)
	assert.True(t, utils.IsNotFound(err))
	_, err = f.svc.GetJobDetailed(ctx, phone.Jobs[0].ID)
	assert.True(t, utils.IsNotFound(err))
	assert.EqualValues(t, 0, f.count(t, &models.JobPart{}, utils.Where("job_id = ?", phone.Jobs[0].ID)))

	reloaded, err := f.svc.GetServiceOrderDetailed(ctx, so.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 1)
	assert.Equal(t, 3, reloaded.Version)
}

func TestUpdateJobStampsDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)
	job := so.Items[0].Jobs[0]

	f.clock.Advance(2 * time.Hour)
	diagnosedAt := f.clock.Now()
	updated, err := f.svc.UpdateJob(ctx, job.ID, &models.JobPatch{Diagnosis: "loose ribbon", Status: models.JobStatusInProgress})
	require.NoError(t, err)
	require.NotNil(t, updated.DiagnosisDate)
	assert.True(t, updated.DiagnosisDate.Equal(diagnosedAt))
	assert.Nil(t, updated.CompletionDate)

	f.clock.Advance(time.Hour)
	updated, err = f.svc.UpdateJob(ctx, job.ID, &models.JobPatch{Diagnosis: "loose ribbon, reseated", Status: models.JobStatusCompleted})
	require.NoError(t, err)
	assert.True(t, updated.DiagnosisDate.Equal(diagnosedAt))
	require.NotNil(t, updated.CompletionDate)
	assert.True(t, updated.CompletionDate.Equal(f.clock.Now()))
	assert.Len(t, updated.JobParts, 1)

	_, err = f.svc.UpdateJob(ctx, job.ID, &models.JobPatch{AssignedTo: 8080})
	assert.True(t, utils.IsNotFound(err))
	_, err = f.svc.UpdateJob(ctx, job.ID, &models.JobPatch{EstimatedCost: dec(-1)})
	assert.True(t, utils.IsValidation(err))
}

func TestDeleteJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)
	job := so.Items[1].Jobs[0]

	require.NoError(t, f.svc.DeleteJob(ctx, job.ID))
	var stored models.Job
	require.NoError(t, f.db.First(&stored, job.ID).Error)
	assert.Equal(t, models.LifecycleDeleted, stored.LifecycleState)
	assert.True(t, stored.ActualCost.IsZero())
	assert.EqualValues(t, 0, f.count(t, &models.JobPart{}, utils.Where("job_id = ?", job.ID)))

	item, err := f.svc.GetItemDetailed(ctx, so.Items[1].ID)
	require.NoError(t, err)
	assert.Empty(t, item.Jobs)
}

func TestJobPartOperationsKeepCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)
	job := so.Items[0].Jobs[0]

	added, err := f.svc.AddJobPart(ctx, job.ID, &models.NewJobPart{PartId: f.battery.ID, Quantity: 1, UnitCost: dec(750)})
	require.NoError(t, err)
	assert.True(t, added.TotalCost.Equal(decimal.NewFromInt(750)))
	f.requireCostInvariant(t)

	bulk, err := f.svc.BulkAddJobParts(ctx, job.ID, []models.NewJobPart{
		{PartId: f.screen.ID, Quantity: 1},
		{PartId: f.battery.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, bulk, 2)

	reloaded, err := f.svc.GetJobDetailed(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.JobParts, 4)
	assert.True(t, reloaded.ActualCost.Equal(decimal.NewFromInt(1200+750+1200+1600)))

	updated, err := f.svc.UpdateJobPart(ctx, added.ID, &models.JobPartPatch{Quantity: 4, IsWarrantyPart: utils.NewTrue()})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.True(t, updated.IsWarrantyPart)
	assert.True(t, updated.TotalCost.Equal(decimal.NewFromInt(3000)))
	f.requireCostInvariant(t)

	require.NoError(t, f.svc.DeleteJobPart(ctx, added.ID))
	reloaded, err = f.svc.GetJobDetailed(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.JobParts, 3)
	assert.True(t, reloaded.ActualCost.Equal(decimal.NewFromInt(1200+1200+1600)))
	f.requireCostInvariant(t)

	assert.True(t, utils.IsNotFound(f.svc.DeleteJobPart(ctx, added.ID)))
}

func TestBulkAddJobPartsIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.phoneOrder(t)
	job := so.Items[0].Jobs[0]

	_, err := f.svc.BulkAddJobParts(ctx, job.ID, []models.NewJobPart{
		{PartId: f.battery.ID, Quantity: 1},
		{PartId: 4040, Quantity: 1},
	})
	assert.True(t, utils.IsNotFound(err))
	assert.EqualValues(t, 1, f.count(t, &models.JobPart{}, utils.Where("job_id = ?", job.ID)))

	_, err = f.svc.BulkAddJobParts(ctx, job.ID, nil)
	assert.True(t, utils.IsValidation(err))
	_, err = f.svc.UpdateJobPart(ctx, so.Items[0].Jobs[0].JobParts[0].ID, &models.JobPartPatch{PartId: 4040})
	assert.True(t, utils.IsNotFound(err))
}
