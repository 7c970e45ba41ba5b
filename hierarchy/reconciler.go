package hierarchy

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

type LevelCounts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// ReconcileSummary counts the mutations applied per level, cascaded deletes included.
type ReconcileSummary struct {
	Items    LevelCounts `json:"items"`
	Jobs     LevelCounts `json:"jobs"`
	JobParts LevelCounts `json:"job_parts"`
}

// SmartUpdateServiceOrder makes the persisted hierarchy match doc and returns the reloaded tree.
func (s *Service) SmartUpdateServiceOrder(ctx context.Context, doc *models.ServiceOrderUpdate) (*models.ServiceOrder, error) {
	so, _, err := s.ReconcileServiceOrder(ctx, doc)
	return so, err
}

// ReconcileServiceOrder applies doc level by level (delete, add, update) in one transaction.
// Root fields are merged and the root version bumped before any child is touched.
func (s *Service) ReconcileServiceOrder(ctx context.Context, doc *models.ServiceOrderUpdate) (result *models.ServiceOrder, sum *ReconcileSummary, err error) {
	if err := validateServiceOrderUpdate(doc); err != nil {
		return nil, nil, err
	}
	ctx, span := s.startSpan(ctx, "ReconcileServiceOrder", attribute.Int("service_order_id", doc.ServiceOrderId))
	defer func() { endSpan(span, err) }()

	sum = &ReconcileSummary{}
	err = s.withServiceOrder(ctx, doc.ServiceOrderId, func(tx store.Tx) error {
		so, err := liveByID[models.ServiceOrder](ctx, tx, "ServiceOrder", doc.ServiceOrderId)
		if err != nil {
			return err
		}
		if doc.Version > 0 && doc.Version != so.Version {
			return utils.NewConflictError(fmt.Sprintf("service order %d is at version %d, document was built from version %d",
				so.ID, so.Version, doc.Version), nil)
		}
		before := *so
		mergeServiceOrder(so, &doc.ServiceOrderPatch)
		if err := tx.UpdateVersioned(ctx, so, so.Version); err != nil {
			return err
		}

		if err := s.reconcileItems(ctx, tx, so, doc.Items, sum); err != nil {
			return err
		}

		if err := s.addHistory(ctx, tx, models.ActionTypeUpdate, "ServiceOrder", so.ID, before, so,
			fmt.Sprintf("Reconciled service order %s", so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderReconciled, eventPayload{Version: so.Version, Summary: sum})
	})
	if err != nil {
		return nil, nil, err
	}
	result, err = s.GetServiceOrderDetailed(ctx, doc.ServiceOrderId)
	if err != nil {
		return nil, nil, err
	}
	return result, sum, nil
}

// existingById maps every positive id in submitted to a live child, failing on the first stranger.
func existingById[T interface{ GetId() int }](entity string, persisted []T, submittedIds []int) (map[int]*T, error) {
	byId := make(map[int]*T, len(persisted))
	for i := range persisted {
		byId[persisted[i].GetId()] = &persisted[i]
	}
	for _, id := range submittedIds {
		if id <= 0 {
			continue
		}
		if _, ok := byId[id]; !ok {
			return nil, utils.NewNotFoundError(entity, id)
		}
	}
	return byId, nil
}

func (s *Service) reconcileItems(ctx context.Context, tx store.Session, so *models.ServiceOrder, submitted []models.ItemUpdate, sum *ReconcileSummary) error {
	persisted, err := liveChildren[models.Item](ctx, tx, "service_order_id", so.ID)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(submitted))
	for _, u := range submitted {
		ids = append(ids, u.ItemId)
	}
	byId, err := existingById("Item", persisted, ids)
	if err != nil {
		return err
	}
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	for i := range persisted {
		if keep[persisted[i].ID] {
			continue
		}
		if err := s.deleteItemCascade(ctx, tx, &persisted[i], sum); err != nil {
			return err
		}
	}

	for i := range submitted {
		if submitted[i].ItemId > 0 {
			continue
		}
		if _, err := s.addItem(ctx, tx, so.ID, newItemFromUpdate(&submitted[i]), sum); err != nil {
			return err
		}
	}

	for i := range submitted {
		u := &submitted[i]
		if u.ItemId <= 0 {
			continue
		}
		item := byId[u.ItemId]
		mergeItem(item, &u.ItemPatch)
		item.UpdatedAt = s.now()
		if err := tx.Update(ctx, item); err != nil {
			return err
		}
		sum.Items.Updated++
		if err := s.reconcileJobs(ctx, tx, item, u.Jobs, sum); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reconcileJobs(ctx context.Context, tx store.Session, item *models.Item, submitted []models.JobUpdate, sum *ReconcileSummary) error {
	persisted, err := liveChildren[models.Job](ctx, tx, "item_id", item.ID)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(submitted))
	for _, u := range submitted {
		ids = append(ids, u.JobId)
	}
	byId, err := existingById("Job", persisted, ids)
	if err != nil {
		return err
	}
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	for i := range persisted {
		if keep[persisted[i].ID] {
			continue
		}
		if err := s.deleteJobCascade(ctx, tx, &persisted[i], sum); err != nil {
			return err
		}
	}

	for i := range submitted {
		if submitted[i].JobId > 0 {
			continue
		}
		if _, err := s.addJob(ctx, tx, item.ID, newJobFromUpdate(&submitted[i]), sum); err != nil {
			return err
		}
	}

	for i := range submitted {
		u := &submitted[i]
		if u.JobId <= 0 {
			continue
		}
		job := byId[u.JobId]
		if u.AssignedTo > 0 && u.AssignedTo != job.AssignedTo {
			if err := s.validateEmployee(ctx, tx, u.AssignedTo); err != nil {
				return err
			}
		}
		mergeJob(job, &u.JobPatch, s.now())
		sum.Jobs.Updated++
		if err := s.reconcileJobParts(ctx, tx, job, u.JobParts, sum); err != nil {
			return err
		}
		// persists the merged fields together with the recomputed cost
		if err := s.recalculateJobCost(ctx, tx, job); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reconcileJobParts(ctx context.Context, tx store.Session, job *models.Job, submitted []models.JobPartUpdate, sum *ReconcileSummary) error {
	persisted, err := liveChildren[models.JobPart](ctx, tx, "job_id", job.ID)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(submitted))
	for _, u := range submitted {
		ids = append(ids, u.JobPartId)
	}
	byId, err := existingById("JobPart", persisted, ids)
	if err != nil {
		return err
	}
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	for i := range persisted {
		if keep[persisted[i].ID] {
			continue
		}
		if err := tx.Delete(ctx, &persisted[i]); err != nil {
			return err
		}
		sum.JobParts.Deleted++
	}

	for i := range submitted {
		if submitted[i].JobPartId > 0 {
			continue
		}
		doc := newJobPartFromUpdate(&submitted[i])
		if _, err := s.addJobPart(ctx, tx, job.ID, &doc, sum); err != nil {
			return err
		}
	}

	for i := range submitted {
		u := &submitted[i]
		if u.JobPartId <= 0 {
			continue
		}
		if err := s.applyJobPartPatch(ctx, tx, byId[u.JobPartId], &u.JobPartPatch); err != nil {
			return err
		}
		sum.JobParts.Updated++
	}
	return nil
}

// applyJobPartPatch merges p into jp and persists it; a changed part reference must be live.
func (s *Service) applyJobPartPatch(ctx context.Context, tx store.Session, jp *models.JobPart, p *models.JobPartPatch) error {
	if p.PartId > 0 && p.PartId != jp.PartId {
		if err := utils.ValidateResourceId[models.Part](ctx, tx, "Part", p.PartId, models.LiveScope()); err != nil {
			return err
		}
	}
	mergeJobPart(jp, p)
	jp.UpdatedAt = s.now()
	return tx.Update(ctx, jp)
}

// deleteItemCascade soft-deletes the item after cascading through its live jobs.
func (s *Service) deleteItemCascade(ctx context.Context, tx store.Session, item *models.Item, sum *ReconcileSummary) error {
	jobs, err := liveChildren[models.Job](ctx, tx, "item_id", item.ID)
	if err != nil {
		return err
	}
	for i := range jobs {
		if err := s.deleteJobCascade(ctx, tx, &jobs[i], sum); err != nil {
			return err
		}
	}
	item.MarkDeleted(s.now())
	if err := tx.Update(ctx, item); err != nil {
		return err
	}
	sum.Items.Deleted++
	return nil
}

// deleteJobCascade hard-deletes the job's parts, recomputes its cost, then soft-deletes it.
func (s *Service) deleteJobCascade(ctx context.Context, tx store.Session, job *models.Job, sum *ReconcileSummary) error {
	parts, err := liveChildren[models.JobPart](ctx, tx, "job_id", job.ID)
	if err != nil {
		return err
	}
	for i := range parts {
		if err := tx.Delete(ctx, &parts[i]); err != nil {
			return err
		}
		sum.JobParts.Deleted++
	}
	job.MarkDeleted(s.now())
	if err := s.recalculateJobCost(ctx, tx, job); err != nil {
		return err
	}
	sum.Jobs.Deleted++
	return nil
}
