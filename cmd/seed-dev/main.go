// seed-dev fills an empty development database with a technician, a receptionist, a small
// parts catalog and one sample service order. Rerunning it leaves existing rows alone.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmdatafocus/servicecenter_backend/catalog"
	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/hierarchy"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
)

type seedPart struct {
	name     string
	sku      string
	unitCost int64
}

var seedParts = []seedPart{
	{"Display assembly 6.1in", "DSP-61", 4200},
	{"Battery 3000mAh", "BAT-3000", 1100},
	{"Charging port flex", "CHG-FLX", 350},
}

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	ctx := utils.SetUserIdInContext(context.Background(), 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	st := store.NewGormStore(db)
	cat := catalog.NewService(st)
	orders := hierarchy.NewService(st, hierarchy.WithLogger(config.GetLogger()))

	technicianId := ensureEmployee(ctx, st, cat, &models.NewEmployee{
		EmployeeName: "Dev Technician",
		Role:         models.EmployeeRoleTechnician,
		Email:        "technician@servicecenter.local",
	})
	ensureEmployee(ctx, st, cat, &models.NewEmployee{
		EmployeeName: "Dev Receptionist",
		Role:         models.EmployeeRoleReceptionist,
		Email:        "reception@servicecenter.local",
	})

	partIds := make([]int, 0, len(seedParts))
	for _, p := range seedParts {
		partIds = append(partIds, ensurePart(ctx, st, cat, p))
	}

	customer, err := cat.CreateCustomer(ctx, &models.NewCustomer{
		CustomerName:  "Sample Customer",
		ContactNumber: "9876543210",
		Email:         "sample@servicecenter.local",
	})
	if utils.IsConflict(err) {
		fmt.Println("sample customer already exists, skipping sample service order")
		return
	}
	exitOn("create customer", err)

	so, err := orders.CreateServiceOrderComplete(ctx, customer.ID, &models.NewServiceOrder{
		CreatedByEmployeeId: technicianId,
		ServiceOrderPatch:   models.ServiceOrderPatch{ServiceType: "Repair", Notes: "seeded"},
		Items: []models.NewItem{{
			ItemPatch: models.ItemPatch{DeviceType: "Phone", Brand: "Acme", Model: "A1", Accessories: "case"},
			Jobs: []models.NewJob{{
				JobPatch: models.JobPatch{ServiceType: "Screen replacement", AssignedTo: technicianId, Priority: models.JobPriorityHigh},
				JobParts: []models.NewJobPart{
					{PartId: partIds[0], Quantity: 1},
					{PartId: partIds[1], Quantity: 1, IsWarrantyPart: true},
				},
			}},
		}},
	})
	exitOn("create service order", err)
	fmt.Printf("Created service order %s for %s\n", so.ServiceOrderNumber, customer.CustomerName)
}

// ensureEmployee creates the employee or returns the live one holding the same email.
func ensureEmployee(ctx context.Context, st store.Store, cat *catalog.Service, input *models.NewEmployee) int {
	employee, err := cat.CreateEmployee(ctx, input)
	if err == nil {
		return employee.ID
	}
	if !utils.IsConflict(err) {
		exitOn("create employee "+input.EmployeeName, err)
	}
	existing, err := store.Find[models.Employee](ctx, st, models.LiveScope().And("email = ?", input.Email).Take(1))
	exitOn("find employee "+input.Email, err)
	if len(existing) == 0 {
		exitOn("find employee "+input.Email, utils.NewNotFoundError("Employee", 0))
	}
	fmt.Printf("employee %s already exists, skipping\n", input.Email)
	return existing[0].ID
}

func ensurePart(ctx context.Context, st store.Store, cat *catalog.Service, p seedPart) int {
	unitCost := decimal.NewFromInt(p.unitCost)
	selling := unitCost.Mul(decimal.NewFromFloat(1.4))
	stock := 5
	part, err := cat.CreatePart(ctx, &models.NewPart{
		PartName:     p.name,
		Sku:          p.sku,
		UnitCost:     &unitCost,
		SellingPrice: &selling,
		StockQty:     &stock,
	})
	if err == nil {
		return part.ID
	}
	if !utils.IsConflict(err) {
		exitOn("create part "+p.sku, err)
	}
	existing, err := store.Find[models.Part](ctx, st, models.LiveScope().And("sku = ?", p.sku).Take(1))
	exitOn("find part "+p.sku, err)
	if len(existing) == 0 {
		exitOn("find part "+p.sku, utils.NewNotFoundError("Part", 0))
	}
	fmt.Printf("part %s already exists, skipping\n", p.sku)
	return existing[0].ID
}

func exitOn(step string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
