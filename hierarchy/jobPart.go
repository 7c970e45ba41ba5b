package hierarchy

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"go.opentelemetry.io/otel/attribute"
)

// AddJobPart attaches one part to a live job and recomputes the job's cost.
func (s *Service) AddJobPart(ctx context.Context, jobId int, doc *models.NewJobPart) (*models.JobPart, error) {
	if doc == nil {
		return nil, utils.NewValidationError("job part document is required", nil)
	}
	parts, err := s.BulkAddJobParts(ctx, jobId, []models.NewJobPart{*doc})
	if err != nil {
		return nil, err
	}
	return &parts[0], nil
}

// BulkAddJobParts adds every part or none of them.
func (s *Service) BulkAddJobParts(ctx context.Context, jobId int, docs []models.NewJobPart) (result []models.JobPart, err error) {
	ctx, span := s.startSpan(ctx, "BulkAddJobParts", attribute.Int("job_id", jobId), attribute.Int("count", len(docs)))
	defer func() { endSpan(span, err) }()

	if err := validateNewJobParts(docs); err != nil {
		return nil, err
	}
	soId, err := s.ownerOfJob(ctx, s.store, jobId)
	if err != nil {
		return nil, err
	}
	err = s.withJob(ctx, soId, jobId, func(tx store.Tx, so *models.ServiceOrder, job *models.Job) error {
		sum := &ReconcileSummary{}
		added := make([]models.JobPart, 0, len(docs))
		for i := range docs {
			jp, err := s.addJobPart(ctx, tx, job.ID, &docs[i], sum)
			if err != nil {
				return err
			}
			added = append(added, *jp)
		}
		if err := s.recalculateJobCost(ctx, tx, job); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeCreate, "JobPart", job.ID, nil, added,
			fmt.Sprintf("Added %d part(s) to job %d", len(added), job.ID)); err != nil {
			return err
		}
		if err := s.addEvent(ctx, tx, so.ID, models.EventServiceOrderJobChanged,
			eventPayload{Version: so.Version, RefType: "Job", RefId: job.ID, Summary: sum}); err != nil {
			return err
		}
		result = added
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) UpdateJobPart(ctx context.Context, id int, patch *models.JobPartPatch) (result *models.JobPart, err error) {
	ctx, span := s.startSpan(ctx, "UpdateJobPart", attribute.Int("job_part_id", id))
	defer func() { endSpan(span, err) }()

	if patch == nil {
		return nil, utils.NewValidationError("job part document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	f := fieldErrors{}
	checkNonNegative(f, "unit_cost", patch.UnitCost)
	if err := f.err(); err != nil {
		return nil, err
	}
	jp, err := liveByID[models.JobPart](ctx, s.store, "JobPart", id)
	if err != nil {
		return nil, err
	}
	soId, err := s.ownerOfJob(ctx, s.store, jp.JobId)
	if err != nil {
		return nil, err
	}
	err = s.withJob(ctx, soId, jp.JobId, func(tx store.Tx, so *models.ServiceOrder, job *models.Job) error {
		current, err := liveByID[models.JobPart](ctx, tx, "JobPart", id)
		if err != nil {
			return err
		}
		before := *current
		if err := s.applyJobPartPatch(ctx, tx, current, patch); err != nil {
			return err
		}
		if err := s.recalculateJobCost(ctx, tx, job); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeUpdate, "JobPart", current.ID, before, current,
			fmt.Sprintf("Updated part %d of job %d", current.ID, job.ID)); err != nil {
			return err
		}
		if err := s.addEvent(ctx, tx, so.ID, models.EventServiceOrderJobChanged,
			eventPayload{Version: so.Version, RefType: "JobPart", RefId: current.ID}); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteJobPart hard-deletes the row and recomputes the job's cost.
func (s *Service) DeleteJobPart(ctx context.Context, id int) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteJobPart", attribute.Int("job_part_id", id))
	defer func() { endSpan(span, err) }()

	jp, err := liveByID[models.JobPart](ctx, s.store, "JobPart", id)
	if err != nil {
		return err
	}
	soId, err := s.ownerOfJob(ctx, s.store, jp.JobId)
	if err != nil {
		return err
	}
	return s.withJob(ctx, soId, jp.JobId, func(tx store.Tx, so *models.ServiceOrder, job *models.Job) error {
		current, err := liveByID[models.JobPart](ctx, tx, "JobPart", id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, current); err != nil {
			return err
		}
		if err := s.recalculateJobCost(ctx, tx, job); err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeDelete, "JobPart", current.ID, current, nil,
			fmt.Sprintf("Removed part %d from job %d", current.ID, job.ID)); err != nil {
			return err
		}
		return s.addEvent(ctx, tx, so.ID, models.EventServiceOrderJobChanged,
			eventPayload{Version: so.Version, RefType: "JobPart", RefId: current.ID})
	})
}
