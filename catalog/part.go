package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
)

func (s *Service) CreatePart(ctx context.Context, input *models.NewPart) (*models.Part, error) {
	if input == nil {
		return nil, utils.NewValidationError("part document is required", nil)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := validatePrices(input.UnitCost, input.SellingPrice); err != nil {
		return nil, err
	}
	part := &models.Part{
		PartName:     strings.TrimSpace(input.PartName),
		Sku:          strings.TrimSpace(input.Sku),
		UnitCost:     decimal.Zero,
		SellingPrice: decimal.Zero,
		IsActive:     input.IsActive,
		Lifecycle:    models.ActiveLifecycle(),
	}
	if input.UnitCost != nil {
		part.UnitCost = *input.UnitCost
	}
	if input.SellingPrice != nil {
		part.SellingPrice = *input.SellingPrice
	}
	if input.StockQty != nil {
		part.StockQty = *input.StockQty
	}
	if part.IsActive == nil {
		part.IsActive = utils.NewTrue()
	}

	err := store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		if part.Sku != "" {
			if err := utils.ValidateUnique[models.Part](ctx, tx, "sku", part.Sku, 0, models.LiveScope()); err != nil {
				return err
			}
		}
		if err := tx.Add(ctx, part); err != nil {
			return err
		}
		return s.addHistory(ctx, tx, models.ActionTypeCreate, "Part", part.ID, nil, part,
			fmt.Sprintf("Created part %s", part.PartName))
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

func validatePrices(unitCost, sellingPrice *decimal.Decimal) error {
	fields := map[string]string{}
	if unitCost != nil && unitCost.IsNegative() {
		fields["unit_cost"] = "gte"
	}
	if sellingPrice != nil && sellingPrice.IsNegative() {
		fields["selling_price"] = "gte"
	}
	if len(fields) > 0 {
		return utils.NewValidationError("invalid input", fields)
	}
	return nil
}

// GetPart reads through the Redis cache; cache failures fall back to the database.
func (s *Service) GetPart(ctx context.Context, id int) (*models.Part, error) {
	cached, err := utils.RetrieveRedis[models.Part](id)
	if err != nil {
		config.LogError(s.logger, "catalog", "GetPart", "retrieve cached part", id, err)
	}
	if cached != nil && cached.IsLive() {
		return cached, nil
	}
	part, err := store.GetLive[models.Part](ctx, s.store, "Part", id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis(part, part.ID); err != nil {
		config.LogError(s.logger, "catalog", "GetPart", "cache part", id, err)
	}
	return part, nil
}

func (s *Service) ListParts(ctx context.Context, search *models.CatalogSearch) ([]models.Part, error) {
	filter, err := searchFilter(search, "part_name")
	if err != nil {
		return nil, err
	}
	results, err := store.Find[models.Part](ctx, s.store, filter)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.Part{}
	}
	return results, nil
}

// UpdatePart changes catalog prices only; job parts already recorded keep their unit cost.
func (s *Service) UpdatePart(ctx context.Context, id int, patch *models.PartPatch) (*models.Part, error) {
	if patch == nil {
		return nil, utils.NewValidationError("part document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	if err := validatePrices(patch.UnitCost, patch.SellingPrice); err != nil {
		return nil, err
	}

	var result *models.Part
	err := store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		part, err := store.GetLive[models.Part](ctx, tx, "Part", id)
		if err != nil {
			return err
		}
		before := *part
		part.PartName = utils.FirstNonBlank(strings.TrimSpace(patch.PartName), part.PartName)
		part.Sku = utils.FirstNonBlank(strings.TrimSpace(patch.Sku), part.Sku)
		if patch.UnitCost != nil {
			part.UnitCost = *patch.UnitCost
		}
		if patch.SellingPrice != nil {
			part.SellingPrice = *patch.SellingPrice
		}
		if patch.StockQty != nil {
			part.StockQty = *patch.StockQty
		}
		if patch.IsActive != nil {
			part.IsActive = patch.IsActive
		}
		if part.Sku != "" {
			if err := utils.ValidateUnique[models.Part](ctx, tx, "sku", part.Sku, part.ID, models.LiveScope()); err != nil {
				return err
			}
		}
		if err := tx.Update(ctx, part); err != nil {
			return err
		}
		result = part
		return s.addHistory(ctx, tx, models.ActionTypeUpdate, "Part", part.ID, before, part,
			fmt.Sprintf("Updated part %s", part.PartName))
	})
	if err != nil {
		return nil, err
	}
	s.evictPart(id)
	return result, nil
}

func (s *Service) DeletePart(ctx context.Context, id int) error {
	err := store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		part, err := store.GetLive[models.Part](ctx, tx, "Part", id)
		if err != nil {
			return err
		}
		before := *part
		part.MarkDeleted(s.now())
		if err := tx.Update(ctx, part); err != nil {
			return err
		}
		return s.addHistory(ctx, tx, models.ActionTypeDelete, "Part", part.ID, before, nil,
			fmt.Sprintf("Deleted part %s", part.PartName))
	})
	if err != nil {
		return err
	}
	s.evictPart(id)
	return nil
}

func (s *Service) evictPart(id int) {
	if err := utils.RemoveRedisItem[models.Part](id); err != nil {
		config.LogError(s.logger, "catalog", "evictPart", "remove cached part", id, err)
	}
}
