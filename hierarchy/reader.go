package hierarchy

import (
	"context"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
)

// GetServiceOrderDetailed reloads a live service order with every live descendant.
func (s *Service) GetServiceOrderDetailed(ctx context.Context, id int) (*models.ServiceOrder, error) {
	so, err := liveByID[models.ServiceOrder](ctx, s.store, "ServiceOrder", id)
	if err != nil {
		return nil, err
	}
	items, err := liveChildren[models.Item](ctx, s.store, "service_order_id", so.ID)
	if err != nil {
		return nil, err
	}
	if err := s.attachJobs(ctx, s.store, items); err != nil {
		return nil, err
	}
	so.Items = items
	if so.Items == nil {
		so.Items = []models.Item{}
	}
	return so, nil
}

func (s *Service) GetItemDetailed(ctx context.Context, id int) (*models.Item, error) {
	item, err := liveByID[models.Item](ctx, s.store, "Item", id)
	if err != nil {
		return nil, err
	}
	items := []models.Item{*item}
	if err := s.attachJobs(ctx, s.store, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *Service) GetJobDetailed(ctx context.Context, id int) (*models.Job, error) {
	job, err := liveByID[models.Job](ctx, s.store, "Job", id)
	if err != nil {
		return nil, err
	}
	jobs := []models.Job{*job}
	if err := s.attachParts(ctx, s.store, jobs); err != nil {
		return nil, err
	}
	return &jobs[0], nil
}

// attachJobs loads one level at a time with IN queries and fills Jobs and JobParts in place.
func (s *Service) attachJobs(ctx context.Context, sess store.Session, items []models.Item) error {
	jobs, err := liveChildren[models.Job](ctx, sess, "item_id", idsOf(items)...)
	if err != nil {
		return err
	}
	if err := s.attachParts(ctx, sess, jobs); err != nil {
		return err
	}
	byItem := make(map[int][]models.Job, len(items))
	for _, j := range jobs {
		byItem[j.ItemId] = append(byItem[j.ItemId], j)
	}
	for i := range items {
		items[i].Jobs = byItem[items[i].ID]
		if items[i].Jobs == nil {
			items[i].Jobs = []models.Job{}
		}
	}
	return nil
}

func (s *Service) attachParts(ctx context.Context, sess store.Session, jobs []models.Job) error {
	parts, err := liveChildren[models.JobPart](ctx, sess, "job_id", idsOf(jobs)...)
	if err != nil {
		return err
	}
	byJob := make(map[int][]models.JobPart, len(jobs))
	for _, p := range parts {
		byJob[p.JobId] = append(byJob[p.JobId], p)
	}
	for i := range jobs {
		jobs[i].JobParts = byJob[jobs[i].ID]
		if jobs[i].JobParts == nil {
			jobs[i].JobParts = []models.JobPart{}
		}
	}
	return nil
}

// ownerOfItem resolves the live service order that owns a live item.
func (s *Service) ownerOfItem(ctx context.Context, sess store.Session, itemId int) (int, error) {
	item, err := liveByID[models.Item](ctx, sess, "Item", itemId)
	if err != nil {
		return 0, err
	}
	return item.ServiceOrderId, nil
}

func (s *Service) ownerOfJob(ctx context.Context, sess store.Session, jobId int) (int, error) {
	job, err := liveByID[models.Job](ctx, sess, "Job", jobId)
	if err != nil {
		return 0, err
	}
	return s.ownerOfItem(ctx, sess, job.ItemId)
}
