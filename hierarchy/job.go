package hierarchy

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

func (s *Service) UpdateJob(ctx context.Context, id int, patch *models.JobPatch) (result *models.Job, err error) {
	ctx, span := s.startSpan(ctx, "UpdateJob", attribute.Int("job_id", id))
	defer func() { endSpan(span, err) }()

	if patch == nil {
		return nil, utils.NewValidationError("job document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	f := fieldErrors{}
	checkNonNegative(f, "estimated_cost", patch.EstimatedCost)
	if err := f.err(); err != nil {
		return nil, err
	}
	soId, err := s.ownerOfJob(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	err = s.withJob(ctx, soId, id, func(tx store.Tx, so *models.ServiceOrder, job *models.Job) error {
		if patch.AssignedTo > 0 && patch.AssignedTo != job.AssignedTo {
			if err := s.validateEmployee(ctx, tx, patch.AssignedTo); err != nil {
				return err
			}
		}
		before := *job
		mergeJob(job, patch, s.now())
		job.UpdatedAt = s.now()
		if err := tx.Update(ctx, job); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeUpdate, "Job", job.ID, before, job,
			fmt.Sprintf("Updated job %d of service order %s", job.ID, so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderJobChanged,
			eventPayload{Version: so.Version, RefType: "Job", RefId: job.ID})
	})
	if err != nil {
		return nil, err
	}
	return s.GetJobDetailed(ctx, id)
}

// DeleteJob soft-deletes the job after hard-deleting its parts.
func (s *Service) DeleteJob(ctx context.Context, id int) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteJob", attribute.Int("job_id", id))
	defer func() { endSpan(span, err) }()

	soId, err := s.ownerOfJob(ctx, s.store, id)
	if err != nil {
		return err
	}
	return s.withJob(ctx, soId, id, func(tx store.Tx, so *models.ServiceOrder, job *models.Job) error {
		before := *job
		sum := &ReconcileSummary{}
		if err := s.deleteJobCascade(ctx, tx, job, sum); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeDelete, "Job", job.ID, before, nil,
			fmt.Sprintf("Deleted job %d of service order %s", job.ID, so.ServiceOrderNumber)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderJobChanged,
			eventPayload{Version: so.Version, RefType: "Job", RefId: job.ID, Summary: sum})
	})
}

// withJob reloads the live job and its live ancestors inside the transaction and bumps the owner version.
func (s *Service) withJob(ctx context.Context, soId int, jobId int, fn func(tx store.Tx, so *models.ServiceOrder, job *models.Job) error) error {
	return s.withServiceOrder(ctx, soId, func(tx store.Tx) error {
		job, err := liveByID[models.Job](ctx, tx, "Job", jobId)
		if err != nil {
			return err
		}
		item, err := liveByID[models.Item](ctx, tx, "Item", job.ItemId)
		if err != nil {
			return err
		}
		so, err := s.touchServiceOrder(ctx, tx, item.ServiceOrderId)
		if err != nil {
			return err
		}
		return fn(tx, so, job)
	})
}
