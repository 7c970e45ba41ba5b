package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
)

func (s *Service) CreateCustomer(ctx context.Context, input *models.NewCustomer) (*models.Customer, error) {
	if input == nil {
		return nil, utils.NewValidationError("customer document is required", nil)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	contact, err := normalizePhone("contact_number", input.ContactNumber)
	if err != nil {
		return nil, err
	}
	whatsApp, err := normalizePhone("whatsapp_number", input.WhatsAppNumber)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		CustomerName:   strings.TrimSpace(input.CustomerName),
		ContactNumber:  contact,
		WhatsAppNumber: whatsApp,
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Address:        input.Address,
		CustomerType:   input.CustomerType,
		GstNumber:      input.GstNumber,
		IsActive:       input.IsActive,
		Lifecycle:      models.ActiveLifecycle(),
	}
	if customer.CustomerType == "" {
		customer.CustomerType = models.CustomerTypeIndividual
	}
	if customer.IsActive == nil {
		customer.IsActive = utils.NewTrue()
	}

	err = store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		if err := s.validateCustomerUnique(ctx, tx, customer, 0); err != nil {
			return err
		}
		if err := tx.Add(ctx, customer); err != nil {
			return err
		}
		return s.addHistory(ctx, tx, models.ActionTypeCreate, "Customer", customer.ID, nil, customer,
			fmt.Sprintf("Created customer %s", customer.CustomerName))
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// contact number and email are unique among live customers
func (s *Service) validateCustomerUnique(ctx context.Context, tx store.Session, c *models.Customer, exceptId int) error {
	if err := utils.ValidateUnique[models.Customer](ctx, tx, "contact_number", c.ContactNumber, exceptId, models.LiveScope()); err != nil {
		return err
	}
	if c.Email == "" {
		return nil
	}
	return utils.ValidateUnique[models.Customer](ctx, tx, "email", c.Email, exceptId, models.LiveScope())
}

func (s *Service) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	return store.GetLive[models.Customer](ctx, s.store, "Customer", id)
}

func (s *Service) ListCustomers(ctx context.Context, search *models.CatalogSearch) ([]models.Customer, error) {
	filter, err := searchFilter(search, "customer_name")
	if err != nil {
		return nil, err
	}
	results, err := store.Find[models.Customer](ctx, s.store, filter)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.Customer{}
	}
	return results, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int, patch *models.CustomerPatch) (*models.Customer, error) {
	if patch == nil {
		return nil, utils.NewValidationError("customer document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	contact, err := normalizePhone("contact_number", patch.ContactNumber)
	if err != nil {
		return nil, err
	}
	whatsApp, err := normalizePhone("whatsapp_number", patch.WhatsAppNumber)
	if err != nil {
		return nil, err
	}

	var result *models.Customer
	err = store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		customer, err := store.GetLive[models.Customer](ctx, tx, "Customer", id)
		if err != nil {
			return err
		}
		before := *customer
		customer.CustomerName = utils.FirstNonBlank(strings.TrimSpace(patch.CustomerName), customer.CustomerName)
		customer.ContactNumber = utils.FirstNonBlank(contact, customer.ContactNumber)
		customer.WhatsAppNumber = utils.FirstNonBlank(whatsApp, customer.WhatsAppNumber)
		customer.Email = utils.FirstNonBlank(strings.ToLower(strings.TrimSpace(patch.Email)), customer.Email)
		customer.Address = utils.FirstNonBlank(patch.Address, customer.Address)
		customer.GstNumber = utils.FirstNonBlank(patch.GstNumber, customer.GstNumber)
		if patch.CustomerType != "" {
			customer.CustomerType = patch.CustomerType
		}
		if patch.IsActive != nil {
			customer.IsActive = patch.IsActive
		}
		if err := s.validateCustomerUnique(ctx, tx, customer, customer.ID); err != nil {
			return err
		}
		if err := tx.Update(ctx, customer); err != nil {
			return err
		}
		result = customer
		return s.addHistory(ctx, tx, models.ActionTypeUpdate, "Customer", customer.ID, before, customer,
			fmt.Sprintf("Updated customer %s", customer.CustomerName))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteCustomer soft-deletes a customer that no longer owns live service orders.
func (s *Service) DeleteCustomer(ctx context.Context, id int) error {
	return store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		customer, err := store.GetLive[models.Customer](ctx, tx, "Customer", id)
		if err != nil {
			return err
		}
		open, err := tx.Count(ctx, &models.ServiceOrder{}, models.LiveScope().And("customer_id = ?", id))
		if err != nil {
			return err
		}
		if open > 0 {
			return utils.NewConflictError(fmt.Sprintf("customer %d still has %d service order(s)", id, open), nil)
		}
		before := *customer
		customer.MarkDeleted(s.now())
		if err := tx.Update(ctx, customer); err != nil {
			return err
		}
		return s.addHistory(ctx, tx, models.ActionTypeDelete, "Customer", customer.ID, before, nil,
			fmt.Sprintf("Deleted customer %s", customer.CustomerName))
	})
}

// GetCustomerStats aggregates the customer's live service orders, items and jobs.
func (s *Service) GetCustomerStats(ctx context.Context, id int) (*models.CustomerStats, error) {
	if _, err := store.GetLive[models.Customer](ctx, s.store, "Customer", id); err != nil {
		return nil, err
	}
	stats := &models.CustomerStats{CustomerId: id, TotalActualCost: decimal.Zero}

	orders, err := store.Find[models.ServiceOrder](ctx, s.store, models.LiveScope().And("customer_id = ?", id))
	if err != nil {
		return nil, err
	}
	stats.ServiceOrderCount = len(orders)
	if len(orders) == 0 {
		return stats, nil
	}
	orderIds := make([]int, 0, len(orders))
	for _, so := range orders {
		orderIds = append(orderIds, so.ID)
	}
	items, err := store.Find[models.Item](ctx, s.store, models.LiveScope().And("service_order_id IN ?", orderIds))
	if err != nil {
		return nil, err
	}
	stats.ItemCount = len(items)
	if len(items) == 0 {
		return stats, nil
	}
	itemIds := make([]int, 0, len(items))
	for _, item := range items {
		itemIds = append(itemIds, item.ID)
	}
	jobs, err := store.Find[models.Job](ctx, s.store, models.LiveScope().And("item_id IN ?", itemIds))
	if err != nil {
		return nil, err
	}
	stats.JobCount = len(jobs)
	for _, job := range jobs {
		stats.TotalActualCost = stats.TotalActualCost.Add(job.ActualCost)
	}
	return stats, nil
}
