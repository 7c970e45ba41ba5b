package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type eventPayload struct {
	Version int               `json:"version"`
	RefType string            `json:"ref_type,omitempty"`
	RefId   int               `json:"ref_id,omitempty"`
	Summary *ReconcileSummary `json:"summary,omitempty"`
}

// CreateServiceOrderComplete persists a service order with all nested items, jobs and parts
// in one transaction and returns the reloaded hierarchy.
func (s *Service) CreateServiceOrderComplete(ctx context.Context, customerId int, doc *models.NewServiceOrder) (result *models.ServiceOrder, err error) {
	ctx, span := s.startSpan(ctx, "CreateServiceOrderComplete", attribute.Int("customer_id", customerId))
	defer func() { endSpan(span, err) }()

	if err := validateNewServiceOrder(doc); err != nil {
		return nil, err
	}

	var soId int
	err = store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		if err := utils.ValidateResourceId[models.Customer](ctx, tx, "Customer", customerId, models.LiveScope()); err != nil {
			return err
		}
		if err := s.validateEmployee(ctx, tx, doc.CreatedByEmployeeId); err != nil {
			return err
		}

		now := s.now()
		so := &models.ServiceOrder{
			CustomerId:          customerId,
			CreatedByEmployeeId: doc.CreatedByEmployeeId,
			ServiceType:         doc.ServiceType,
			Notes:               doc.Notes,
			ExpectedPickupDate:  doc.ExpectedPickupDate,
			Status:              doc.Status,
			Version:             1,
			Lifecycle:           models.ActiveLifecycle(),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if so.Status == "" {
			so.Status = models.ServiceOrderStatusReceived
		}
		if err := tx.Add(ctx, so); err != nil {
			return err
		}
		so.ServiceOrderNumber = models.ServiceOrderNumberFor(so.ID, so.CreatedAt)
		if err := tx.Update(ctx, so); err != nil {
			return err
		}

		sum := &ReconcileSummary{}
		for i := range doc.Items {
			if _, err := s.addItem(ctx, tx, so.ID, &doc.Items[i], sum); err != nil {
				return err
			}
		}

		if err := s.addHistory(ctx, tx, models.ActionTypeCreate, "ServiceOrder", so.ID, nil, so,
			fmt.Sprintf("Created service order %s", so.ServiceOrderNumber)); err != nil {
			return err
		}
		if err := s.addEvent(ctx, tx, so.ID, models.EventServiceOrderCreated, eventPayload{Version: so.Version, Summary: sum}); err != nil {
			return err
		}
		soId = so.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetServiceOrderDetailed(ctx, soId)
}

// CreateItemComplete adds one item with its jobs and parts to a live service order.
func (s *Service) CreateItemComplete(ctx context.Context, serviceOrderId int, doc *models.NewItem) (result *models.Item, err error) {
	ctx, span := s.startSpan(ctx, "CreateItemComplete", attribute.Int("service_order_id", serviceOrderId))
	defer func() { endSpan(span, err) }()

	if err := validateNewItem(doc); err != nil {
		return nil, err
	}

	var itemId int
	err = s.withServiceOrder(ctx, serviceOrderId, func(tx store.Tx) error {
		so, err := s.touchServiceOrder(ctx, tx, serviceOrderId)
		if err != nil {
			return err
		}
		sum := &ReconcileSummary{}
		item, err := s.addItem(ctx, tx, so.ID, doc, sum)
		if err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeCreate, "Item", item.ID, nil, item,
			fmt.Sprintf("Added %s to service order %s", item.DeviceType, so.ServiceOrderNumber)); err != nil {
			return err
		}
		if err := s.addEvent(ctx, tx, so.ID, models.EventServiceOrderItemChanged,
			eventPayload{Version: so.Version, RefType: "Item", RefId: item.ID, Summary: sum}); err != nil {
			return err
		}
		itemId = item.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetItemDetailed(ctx, itemId)
}

// CreateJobComplete adds one job with its parts to a live item.
func (s *Service) CreateJobComplete(ctx context.Context, itemId int, doc *models.NewJob) (result *models.Job, err error) {
	ctx, span := s.startSpan(ctx, "CreateJobComplete", attribute.Int("item_id", itemId))
	defer func() { endSpan(span, err) }()

	if err := validateNewJob(doc); err != nil {
		return nil, err
	}
	soId, err := s.ownerOfItem(ctx, s.store, itemId)
	if err != nil {
		return nil, err
	}

	var jobId int
	err = s.withServiceOrder(ctx, soId, func(tx store.Tx) error {
		item, err := liveByID[models.Item](ctx, tx, "Item", itemId)
		if err != nil {
			return err
		}
		so, err := s.touchServiceOrder(ctx, tx, item.ServiceOrderId)
		if err != nil {
			return err
		}
		sum := &ReconcileSummary{}
		job, err := s.addJob(ctx, tx, item.ID, doc, sum)
		if err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, models.ActionTypeCreate, "Job", job.ID, nil, job,
			fmt.Sprintf("Added job to item %d of service order %s", item.ID, so.ServiceOrderNumber)); err != nil {
			return err
		}
		if err := s.addEvent(ctx, tx, so.ID, models.EventServiceOrderJobChanged,
			eventPayload{Version: so.Version, RefType: "Job", RefId: job.ID, Summary: sum}); err != nil {
			return err
		}
		jobId = job.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetJobDetailed(ctx, jobId)
}

func (s *Service) validateEmployee(ctx context.Context, tx store.Session, employeeId int) error {
	if employeeId <= 0 {
		return nil
	}
	return utils.ValidateResourceId[models.Employee](ctx, tx, "Employee", employeeId, models.LiveScope())
}

func (s *Service) addItem(ctx context.Context, tx store.Session, serviceOrderId int, doc *models.NewItem, sum *ReconcileSummary) (*models.Item, error) {
	now := s.now()
	item := &models.Item{
		ServiceOrderId:     serviceOrderId,
		DeviceType:         doc.DeviceType,
		Brand:              doc.Brand,
		Model:              doc.Model,
		SerialNo:           doc.SerialNo,
		Imei:               doc.Imei,
		Accessories:        doc.Accessories,
		ConditionOnReceipt: doc.ConditionOnReceipt,
		InspectionStatus:   doc.InspectionStatus,
		Lifecycle:          models.ActiveLifecycle(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if item.InspectionStatus == "" {
		item.InspectionStatus = models.InspectionStatusPending
	}
	if err := tx.Add(ctx, item); err != nil {
		return nil, err
	}
	sum.Items.Added++

	for i := range doc.Jobs {
		if _, err := s.addJob(ctx, tx, item.ID, &doc.Jobs[i], sum); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// addJob persists the job, then its parts, then derives ActualCost from them.
func (s *Service) addJob(ctx context.Context, tx store.Session, itemId int, doc *models.NewJob, sum *ReconcileSummary) (*models.Job, error) {
	if err := s.validateEmployee(ctx, tx, doc.AssignedTo); err != nil {
		return nil, err
	}
	now := s.now()
	job := &models.Job{
		ItemId:               itemId,
		ServiceType:          doc.ServiceType,
		ReceivedDate:         now,
		AssignedTo:           doc.AssignedTo,
		Priority:             doc.Priority,
		EstimatedCost:        decimal.Zero,
		ActualCost:           decimal.Zero,
		Diagnosis:            doc.Diagnosis,
		TargetCompletionDate: doc.TargetCompletionDate,
		Notes:                doc.Notes,
		Status:               doc.Status,
		Lifecycle:            models.ActiveLifecycle(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if doc.EstimatedCost != nil {
		job.EstimatedCost = *doc.EstimatedCost
	}
	if job.Priority == "" {
		job.Priority = models.JobPriorityNormal
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if strings.TrimSpace(job.Diagnosis) != "" {
		job.DiagnosisDate = &now
	}
	if job.Status == models.JobStatusCompleted {
		job.CompletionDate = &now
	}
	if err := tx.Add(ctx, job); err != nil {
		return nil, err
	}
	sum.Jobs.Added++

	for i := range doc.JobParts {
		if _, err := s.addJobPart(ctx, tx, job.ID, &doc.JobParts[i], sum); err != nil {
			return nil, err
		}
	}
	if err := s.recalculateJobCost(ctx, tx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// addJobPart does not touch the job's cost; callers recalculate once per job.
func (s *Service) addJobPart(ctx context.Context, tx store.Session, jobId int, doc *models.NewJobPart, sum *ReconcileSummary) (*models.JobPart, error) {
	part, err := liveByID[models.Part](ctx, tx, "Part", doc.PartId)
	if err != nil {
		return nil, err
	}
	now := s.now()
	jp := &models.JobPart{
		JobId:          jobId,
		PartId:         part.ID,
		Quantity:       doc.Quantity,
		UnitCost:       part.UnitCost,
		IsWarrantyPart: doc.IsWarrantyPart,
		AddedAt:        now,
		UpdatedAt:      now,
	}
	if doc.UnitCost != nil {
		jp.UnitCost = *doc.UnitCost
	}
	jp.RecalculateTotal()
	if err := tx.Add(ctx, jp); err != nil {
		return nil, err
	}
	sum.JobParts.Added++
	return jp, nil
}
