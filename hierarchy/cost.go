package hierarchy

import (
	"context"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

func sumTotalCost(parts []models.JobPart) decimal.Decimal {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.TotalCost)
	}
	return total
}

// recalculateJobCost sets job.ActualCost to the sum of the job's live parts and persists the job.
func (s *Service) recalculateJobCost(ctx context.Context, tx store.Session, job *models.Job) error {
	parts, err := liveChildren[models.JobPart](ctx, tx, "job_id", job.ID)
	if err != nil {
		return err
	}
	job.ActualCost = sumTotalCost(parts)
	job.UpdatedAt = s.now()
	return tx.Update(ctx, job)
}

// RecalculateJobCost recomputes one live job's actual cost in its own transaction.
func (s *Service) RecalculateJobCost(ctx context.Context, jobId int) (job *models.Job, err error) {
	ctx, span := s.startSpan(ctx, "RecalculateJobCost", attribute.Int("job_id", jobId))
	defer func() { endSpan(span, err) }()

	soId, err := s.ownerOfJob(ctx, s.store, jobId)
	if err != nil {
		return nil, err
	}
	err = s.withServiceOrder(ctx, soId, func(tx store.Tx) error {
		j, err := liveByID[models.Job](ctx, tx, "Job", jobId)
		if err != nil {
			return err
		}
		if err := s.recalculateJobCost(ctx, tx, j); err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

type JobCostDrift struct {
	JobId    int             `json:"job_id"`
	Stored   decimal.Decimal `json:"stored"`
	Computed decimal.Decimal `json:"computed"`
}

type CostRebuildReport struct {
	JobsChecked int            `json:"jobs_checked"`
	JobsFixed   int            `json:"jobs_fixed"`
	Drifts      []JobCostDrift `json:"drifts"`
}

type RebuildOptions struct {
	// ServiceOrderId limits the rebuild to one service order; 0 means every live job.
	ServiceOrderId int
	DryRun         bool
}

// RebuildJobCosts re-derives ActualCost for live jobs and rewrites the ones that drifted.
func (s *Service) RebuildJobCosts(ctx context.Context, opts RebuildOptions) (report *CostRebuildReport, err error) {
	ctx, span := s.startSpan(ctx, "RebuildJobCosts", attribute.Int("service_order_id", opts.ServiceOrderId))
	defer func() { endSpan(span, err) }()

	report = &CostRebuildReport{}
	err = store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		var jobs []models.Job
		if opts.ServiceOrderId > 0 {
			if _, err := liveByID[models.ServiceOrder](ctx, tx, "ServiceOrder", opts.ServiceOrderId); err != nil {
				return err
			}
			items, err := liveChildren[models.Item](ctx, tx, "service_order_id", opts.ServiceOrderId)
			if err != nil {
				return err
			}
			if jobs, err = liveChildren[models.Job](ctx, tx, "item_id", idsOf(items)...); err != nil {
				return err
			}
		} else {
			var err error
			if jobs, err = store.Find[models.Job](ctx, tx, models.LiveScope().OrderBy("id ASC")); err != nil {
				return err
			}
		}

		for i := range jobs {
			job := &jobs[i]
			report.JobsChecked++
			parts, err := liveChildren[models.JobPart](ctx, tx, "job_id", job.ID)
			if err != nil {
				return err
			}
			computed := sumTotalCost(parts)
			if computed.Equal(job.ActualCost) {
				continue
			}
			report.Drifts = append(report.Drifts, JobCostDrift{JobId: job.ID, Stored: job.ActualCost, Computed: computed})
			s.logger.WithFields(logrus.Fields{
				"module":   "hierarchy",
				"funcName": "RebuildJobCosts",
				"job_id":   job.ID,
				"stored":   job.ActualCost.String(),
				"computed": computed.String(),
				"dry_run":  opts.DryRun,
			}).Warn("job actual cost drifted from its parts")
			if opts.DryRun {
				continue
			}
			job.ActualCost = computed
			job.UpdatedAt = s.now()
			if err := tx.Update(ctx, job); err != nil {
				return err
			}
			report.JobsFixed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
