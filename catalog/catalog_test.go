package catalog

import (
	"context"
	"testing"

	"github.com/mmdatafocus/servicecenter_backend/hierarchy"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/store/storetest"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalog(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := storetest.OpenSQLite(t)
	return NewService(store.NewGormStore(db)).WithClock(storetest.NewClock().Now), db
}

func TestCreateCustomerNormalizesAndDefaults(t *testing.T) {
	svc, _ := newCatalog(t)
	c, err := svc.CreateCustomer(context.Background(), &models.NewCustomer{
		CustomerName:  "  Meera Iyer ",
		ContactNumber: "98765 43210",
		Email:         "Meera@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", c.CustomerName)
	assert.Equal(t, "+919876543210", c.ContactNumber)
	assert.Equal(t, "meera@example.com", c.Email)
	assert.Equal(t, models.CustomerTypeIndividual, c.CustomerType)
	require.NotNil(t, c.IsActive)
	assert.True(t, *c.IsActive)

	got, err := svc.GetCustomer(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ContactNumber, got.ContactNumber)
}

func TestCreateCustomerRules(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	_, err := svc.CreateCustomer(ctx, &models.NewCustomer{CustomerName: "A", ContactNumber: "9123456789", Email: "a@example.com"})
	require.NoError(t, err)

	cases := []struct {
		name  string
		input models.NewCustomer
		check func(error) bool
	}{
		{"missing name", models.NewCustomer{ContactNumber: "9123450000"}, utils.IsValidation},
		{"bad phone", models.NewCustomer{CustomerName: "B", ContactNumber: "12345"}, utils.IsValidation},
		{"bad email", models.NewCustomer{CustomerName: "B", ContactNumber: "9123450000", Email: "nope"}, utils.IsValidation},
		{"same contact in another format", models.NewCustomer{CustomerName: "B", ContactNumber: "+91 91234 56789"}, utils.IsConflict},
		{"same email", models.NewCustomer{CustomerName: "B", ContactNumber: "9123450000", Email: "A@example.com"}, utils.IsConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			_, err := svc.CreateCustomer(ctx, &input)
			require.Error(t, err)
			assert.True(t, tc.check(err), "got %v", err)
		})
	}
}

func TestUpdateCustomer(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	a, err := svc.CreateCustomer(ctx, &models.NewCustomer{CustomerName: "A", ContactNumber: "9123456789", Address: "MG Road"})
	require.NoError(t, err)
	b, err := svc.CreateCustomer(ctx, &models.NewCustomer{CustomerName: "B", ContactNumber: "9123450000"})
	require.NoError(t, err)

	updated, err := svc.UpdateCustomer(ctx, a.ID, &models.CustomerPatch{
		CustomerType: models.CustomerTypeBusiness,
		GstNumber:    "29ABCDE1234F1Z5",
		IsActive:     utils.NewFalse(),
	})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.CustomerName)
	assert.Equal(t, "MG Road", updated.Address)
	assert.Equal(t, models.CustomerTypeBusiness, updated.CustomerType)
	assert.False(t, *updated.IsActive)

	_, err = svc.UpdateCustomer(ctx, b.ID, &models.CustomerPatch{ContactNumber: "9123456789"})
	assert.True(t, utils.IsConflict(err), "got %v", err)
	_, err = svc.UpdateCustomer(ctx, 999, &models.CustomerPatch{})
	assert.True(t, utils.IsNotFound(err))

	active, err := svc.ListCustomers(ctx, &models.CatalogSearch{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}

func TestDeleteCustomerAndStats(t *testing.T) {
	svc, db := newCatalog(t)
	ctx := context.Background()
	customer, err := svc.CreateCustomer(ctx, &models.NewCustomer{CustomerName: "Ravi", ContactNumber: "9123456789"})
	require.NoError(t, err)
	part := storetest.Part(t, db, 0, "Keyboard", 300)

	orders := hierarchy.NewService(store.NewGormStore(db))
	so, err := orders.CreateServiceOrderComplete(ctx, customer.ID, &models.NewServiceOrder{
		Items: []models.NewItem{
			{ItemPatch: models.ItemPatch{DeviceType: "Laptop"}, Jobs: []models.NewJob{
				{JobParts: []models.NewJobPart{{PartId: part.ID, Quantity: 2}}},
				{JobParts: []models.NewJobPart{{PartId: part.ID, Quantity: 1}}},
			}},
			{ItemPatch: models.ItemPatch{DeviceType: "Phone"}},
		},
	})
	require.NoError(t, err)

	stats, err := svc.GetCustomerStats(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ServiceOrderCount)
	assert.Equal(t, 2, stats.ItemCount)
	assert.Equal(t, 2, stats.JobCount)
	assert.True(t, stats.TotalActualCost.Equal(decimal.NewFromInt(900)))

	err = svc.DeleteCustomer(ctx, customer.ID)
	assert.True(t, utils.IsConflict(err), "got %v", err)

	require.NoError(t, orders.DeleteServiceOrder(ctx, so.ID))
	require.NoError(t, svc.DeleteCustomer(ctx, customer.ID))
	_, err = svc.GetCustomer(ctx, customer.ID)
	assert.True(t, utils.IsNotFound(err))
	_, err = svc.GetCustomerStats(ctx, customer.ID)
	assert.True(t, utils.IsNotFound(err))

	// the contact number is free again once the old customer is gone
	_, err = svc.CreateCustomer(ctx, &models.NewCustomer{CustomerName: "Ravi Again", ContactNumber: "9123456789"})
	assert.NoError(t, err)
}

func TestEmployees(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	e, err := svc.CreateEmployee(ctx, &models.NewEmployee{EmployeeName: "Kiran", Email: "kiran@shop.in", Phone: "9123456789"})
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeRoleTechnician, e.Role)
	assert.Equal(t, "+919123456789", e.Phone)

	_, err = svc.CreateEmployee(ctx, &models.NewEmployee{EmployeeName: "Other", Email: "KIRAN@shop.in"})
	assert.True(t, utils.IsConflict(err))
	_, err = svc.CreateEmployee(ctx, &models.NewEmployee{EmployeeName: "Other", Role: "Janitor"})
	assert.True(t, utils.IsValidation(err))

	updated, err := svc.UpdateEmployee(ctx, e.ID, &models.EmployeePatch{Role: models.EmployeeRoleManager})
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeRoleManager, updated.Role)
	assert.Equal(t, "Kiran", updated.EmployeeName)

	list, err := svc.ListEmployees(ctx, &models.CatalogSearch{Name: "kir"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteEmployee(ctx, e.ID))
	_, err = svc.GetEmployee(ctx, e.ID)
	assert.True(t, utils.IsNotFound(err))
	list, err = svc.ListEmployees(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParts(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	cost := decimal.RequireFromString("120.50")
	p, err := svc.CreatePart(ctx, &models.NewPart{PartName: "Hinge", Sku: "HNG-1", UnitCost: &cost})
	require.NoError(t, err)
	assert.True(t, p.UnitCost.Equal(cost))
	assert.True(t, p.SellingPrice.IsZero())

	_, err = svc.CreatePart(ctx, &models.NewPart{PartName: "Hinge copy", Sku: "HNG-1"})
	assert.True(t, utils.IsConflict(err))
	negative := decimal.NewFromInt(-1)
	_, err = svc.CreatePart(ctx, &models.NewPart{PartName: "Broken", SellingPrice: &negative})
	assert.True(t, utils.IsValidation(err))

	got, err := svc.GetPart(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "HNG-1", got.Sku)

	stock := 4
	updated, err := svc.UpdatePart(ctx, p.ID, &models.PartPatch{StockQty: &stock})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.StockQty)
	assert.True(t, updated.UnitCost.Equal(cost))

	require.NoError(t, svc.DeletePart(ctx, p.ID))
	_, err = svc.GetPart(ctx, p.ID)
	assert.True(t, utils.IsNotFound(err))
	assert.True(t, utils.IsNotFound(svc.DeletePart(ctx, p.ID)))
}
