package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateServiceOrder merges root fields only; children are left untouched.
func (s *Service) UpdateServiceOrder(ctx context.Context, id int, patch *models.ServiceOrderPatch) (result *models.ServiceOrder, err error) {
	ctx, span := s.startSpan(ctx, "UpdateServiceOrder", attribute.Int("service_order_id", id))
	defer func() { endSpan(span, err) }()

	if patch == nil {
		return nil, utils.NewValidationError("service order document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	err = s.withServiceOrder(ctx, id, func(tx store.Tx) error {
		so, err := liveByID[models.ServiceOrder](ctx, tx, "ServiceOrder", id)
		if err != nil {
			return err
		}
		before := *so
		mergeServiceOrder(so, patch)
		if err := tx.UpdateVersioned(ctx, so, so.Version); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeUpdate, "ServiceOrder", so.ID, before, so,
			fmt.Sprintf("Updated service order %s", so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderUpdated, eventPayload{Version: so.Version})
	})
	if err != nil {
		return nil, err
	}
	return s.GetServiceOrderDetailed(ctx, id)
}

// DeleteServiceOrder soft-deletes the order and cascades through items, jobs and parts.
func (s *Service) DeleteServiceOrder(ctx context.Context, id int) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteServiceOrder", attribute.Int("service_order_id", id))
	defer func() { endSpan(span, err) }()

	return s.withServiceOrder(ctx, id, func(tx store.Tx) error {
		so, err := liveByID[models.ServiceOrder](ctx, tx, "ServiceOrder", id)
		if err != nil {
			return err
		}
		items, err := liveChildren[models.Item](ctx, tx, "service_order_id", so.ID)
		if err != nil {
			return err
		}
		sum := &ReconcileSummary{}
		for i := range items {
			if err := s.deleteItemCascade(ctx, tx, &items[i], sum); err != nil {
				return err
			}
		}
		before := *so
		so.MarkDeleted(s.now())
		if err := tx.UpdateVersioned(ctx, so, so.Version); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeDelete, "ServiceOrder", so.ID, before, nil,
			fmt.Sprintf("Deleted service order %s", so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderDeleted, eventPayload{Version: so.Version, Summary: sum})
	})
}

// SearchServiceOrders lists live service orders (without children), newest first, capped at config.SearchLimit.
func (s *Service) SearchServiceOrders(ctx context.Context, search *models.ServiceOrderSearch) ([]models.ServiceOrder, error) {
	filter := models.LiveScope()
	if search != nil {
		if err := utils.ValidateStruct(search); err != nil {
			return nil, err
		}
		if search.CustomerId > 0 {
			filter = filter.And("customer_id = ?", search.CustomerId)
		}
		if n := strings.TrimSpace(search.Number); n != "" {
			filter = filter.And("service_order_number LIKE ?", "%"+n+"%")
		}
	}
	results, err := store.Find[models.ServiceOrder](ctx, s.store, filter.OrderBy("id DESC").Take(config.SearchLimit))
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.ServiceOrder{}
	}
	return results, nil
}
