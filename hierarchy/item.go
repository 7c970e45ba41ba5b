package hierarchy

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

func (s *Service) UpdateItem(ctx context.Context, id int, patch *models.ItemPatch) (result *models.Item, err error) {
	ctx, span := s.startSpan(ctx, "UpdateItem", attribute.Int("item_id", id))
	defer func() { endSpan(span, err) }()

	if patch == nil {
		return nil, utils.NewValidationError("item document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	soId, err := s.ownerOfItem(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	err = s.withServiceOrder(ctx, soId, func(tx store.Tx) error {
		item, err := liveByID[models.Item](ctx, tx, "Item", id)
		if err != nil {
			return err
		}
		so, err := s.touchServiceOrder(ctx, tx, item.ServiceOrderId)
		if err != nil {
			return err
		}
		before := *item
		mergeItem(item, patch)
		item.UpdatedAt = s.now()
		if err := tx.Update(ctx, item); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeUpdate, "Item", item.ID, before, item,
			fmt.Sprintf("Updated item %d of service order %s", item.ID, so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderItemChanged,
			eventPayload{Version: so.Version, RefType: "Item", RefId: item.ID})
	})
	if err != nil {
		return nil, err
	}
	return s.GetItemDetailed(ctx, id)
}

// DeleteItem soft-deletes the item and its jobs and removes their parts.
func (s *Service) DeleteItem(ctx context.Context, id int) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteItem", attribute.Int("item_id", id))
	defer func() { endSpan(span, err) }()

	soId, err := s.ownerOfItem(ctx, s.store, id)
	if err != nil {
		return err
	}
	return s.withServiceOrder(ctx, soId, func(tx store.Tx) error {
		item, err := liveByID[models.Item](ctx, tx, "Item", id)
		if err != nil {
			return err
		}
		so, err := s.touchServiceOrder(ctx, tx, item.ServiceOrderId)
		if err != nil {
			return err
		}
		before := *item
		sum := &ReconcileSummary{}
		if err := s.deleteItemCascade(ctx, tx, item, sum); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeDelete, "Item", item.ID, before, nil,
			fmt.Sprintf("Deleted item %d of service order %s", item.ID, so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderItemChanged,
			eventPayload{Version: so.Version, RefType: "Item", RefId: item.ID, Summary: sum})
	})
}
