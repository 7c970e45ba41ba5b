package hierarchy

import (
	"strings"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

// Merges are non-empty-wins: blank strings, nil pointers and zero ids keep the stored value.

func mergeServiceOrder(so *models.ServiceOrder, p *models.ServiceOrderPatch) {
	so.ServiceType = utils.FirstNonBlank(p.ServiceType, so.ServiceType)
	so.Notes = utils.FirstNonBlank(p.Notes, so.Notes)
	if p.ExpectedPickupDate != nil {
		so.ExpectedPickupDate = p.ExpectedPickupDate
	}
	if p.Status != "" {
		so.Status = p.Status
	}
}

func mergeItem(item *models.Item, p *models.ItemPatch) {
	item.DeviceType = utils.FirstNonBlank(p.DeviceType, item.DeviceType)
	item.Brand = utils.FirstNonBlank(p.Brand, item.Brand)
	item.Model = utils.FirstNonBlank(p.Model, item.Model)
	item.SerialNo = utils.FirstNonBlank(p.SerialNo, item.SerialNo)
	item.Imei = utils.FirstNonBlank(p.Imei, item.Imei)
	item.Accessories = utils.FirstNonBlank(p.Accessories, item.Accessories)
	item.ConditionOnReceipt = utils.FirstNonBlank(p.ConditionOnReceipt, item.ConditionOnReceipt)
	if p.InspectionStatus != "" {
		item.InspectionStatus = p.InspectionStatus
	}
}

// mergeJob also stamps DiagnosisDate on the first diagnosis and CompletionDate
// when the job moves to Completed.
func mergeJob(job *models.Job, p *models.JobPatch, now time.Time) {
	job.ServiceType = utils.FirstNonBlank(p.ServiceType, job.ServiceType)
	if p.AssignedTo > 0 {
		job.AssignedTo = p.AssignedTo
	}
	if p.Priority != "" {
		job.Priority = p.Priority
	}
	if p.EstimatedCost != nil {
		job.EstimatedCost = *p.EstimatedCost
	}
	if strings.TrimSpace(p.Diagnosis) != "" {
		job.Diagnosis = p.Diagnosis
		if job.DiagnosisDate == nil {
			job.DiagnosisDate = &now
		}
	}
	if p.TargetCompletionDate != nil {
		job.TargetCompletionDate = p.TargetCompletionDate
	}
	job.Notes = utils.FirstNonBlank(p.Notes, job.Notes)
	if p.Status != "" {
		if p.Status == models.JobStatusCompleted && job.Status != models.JobStatusCompleted && job.CompletionDate == nil {
			job.CompletionDate = &now
		}
		job.Status = p.Status
	}
}

func mergeJobPart(jp *models.JobPart, p *models.JobPartPatch) {
	if p.PartId > 0 {
		jp.PartId = p.PartId
	}
	if p.Quantity > 0 {
		jp.Quantity = p.Quantity
	}
	if p.UnitCost != nil {
		jp.UnitCost = *p.UnitCost
	}
	if p.IsWarrantyPart != nil {
		jp.IsWarrantyPart = *p.IsWarrantyPart
	}
	jp.RecalculateTotal()
}

// newItemFromUpdate converts a create entry of an update document into a creation document.
// Nested entries are new as well; the validation walk rejects positive ids below a new parent.
func newItemFromUpdate(u *models.ItemUpdate) *models.NewItem {
	item := &models.NewItem{ItemPatch: u.ItemPatch}
	for i := range u.Jobs {
		item.Jobs = append(item.Jobs, *newJobFromUpdate(&u.Jobs[i]))
	}
	return item
}

func newJobFromUpdate(u *models.JobUpdate) *models.NewJob {
	job := &models.NewJob{JobPatch: u.JobPatch}
	for i := range u.JobParts {
		job.JobParts = append(job.JobParts, newJobPartFromUpdate(&u.JobParts[i]))
	}
	return job
}

func newJobPartFromUpdate(u *models.JobPartUpdate) models.NewJobPart {
	jp := models.NewJobPart{
		PartId:   u.PartId,
		Quantity: u.Quantity,
		UnitCost: u.UnitCost,
	}
	if u.IsWarrantyPart != nil {
		jp.IsWarrantyPart = *u.IsWarrantyPart
	}
	return jp
}
