package hierarchy

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
)

// fieldErrors collects document paths that failed a structural rule.
type fieldErrors map[string]string

func (f fieldErrors) add(path, rule string) {
	if _, ok := f[path]; !ok {
		f[path] = rule
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return utils.NewValidationError("invalid document", f)
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

func index(prefix, field string, i int) string {
	return fmt.Sprintf("%s[%d]", join(prefix, field), i)
}

func checkNonNegative(f fieldErrors, path string, d *decimal.Decimal) {
	if d != nil && d.IsNegative() {
		f.add(path, "gte")
	}
}

func validateNewServiceOrder(doc *models.NewServiceOrder) error {
	if doc == nil {
		return utils.NewValidationError("service order document is required", nil)
	}
	if err := utils.ValidateStruct(doc); err != nil {
		return err
	}
	f := fieldErrors{}
	for i := range doc.Items {
		walkNewItem(f, index("", "items", i), &doc.Items[i])
	}
	return f.err()
}

func validateNewItem(doc *models.NewItem) error {
	if doc == nil {
		return utils.NewValidationError("item document is required", nil)
	}
	if err := utils.ValidateStruct(doc); err != nil {
		return err
	}
	f := fieldErrors{}
	walkNewItem(f, "", doc)
	return f.err()
}

func validateNewJob(doc *models.NewJob) error {
	if doc == nil {
		return utils.NewValidationError("job document is required", nil)
	}
	if err := utils.ValidateStruct(doc); err != nil {
		return err
	}
	f := fieldErrors{}
	walkNewJob(f, "", doc)
	return f.err()
}

func validateNewJobParts(docs []models.NewJobPart) error {
	if len(docs) == 0 {
		return utils.NewValidationError("at least one job part is required", map[string]string{"job_parts": "required"})
	}
	f := fieldErrors{}
	for i := range docs {
		if err := utils.ValidateStruct(&docs[i]); err != nil {
			return err
		}
		checkNonNegative(f, index("", "job_parts", i)+".unit_cost", docs[i].UnitCost)
	}
	return f.err()
}

func walkNewItem(f fieldErrors, path string, item *models.NewItem) {
	if strings.TrimSpace(item.DeviceType) == "" {
		f.add(join(path, "device_type"), "required")
	}
	for i := range item.Jobs {
		walkNewJob(f, index(path, "jobs", i), &item.Jobs[i])
	}
}

func walkNewJob(f fieldErrors, path string, job *models.NewJob) {
	checkNonNegative(f, join(path, "estimated_cost"), job.EstimatedCost)
	for i := range job.JobParts {
		checkNonNegative(f, index(path, "job_parts", i)+".unit_cost", job.JobParts[i].UnitCost)
	}
}

// validateServiceOrderUpdate enforces the rules tags cannot express: required child
// collections on existing entries, unique ids per list, and complete new entries.
func validateServiceOrderUpdate(doc *models.ServiceOrderUpdate) error {
	if doc == nil {
		return utils.NewValidationError("service order update document is required", nil)
	}
	if err := utils.ValidateStruct(doc); err != nil {
		return err
	}
	f := fieldErrors{}
	if doc.Items == nil {
		f.add("items", "required")
		return f.err()
	}
	seen := map[int]bool{}
	for i := range doc.Items {
		u := &doc.Items[i]
		path := index("", "items", i)
		if u.ItemId > 0 {
			if seen[u.ItemId] {
				f.add(join(path, "item_id"), "duplicate")
			}
			seen[u.ItemId] = true
		}
		walkItemUpdate(f, path, u, u.ItemId > 0)
	}
	return f.err()
}

// existing is false for an entry that will be created; everything under it must be new too.
func walkItemUpdate(f fieldErrors, path string, u *models.ItemUpdate, existing bool) {
	if !existing && strings.TrimSpace(u.DeviceType) == "" {
		f.add(join(path, "device_type"), "required")
	}
	if existing && u.Jobs == nil {
		f.add(join(path, "jobs"), "required")
	}
	seen := map[int]bool{}
	for i := range u.Jobs {
		j := &u.Jobs[i]
		jobPath := index(path, "jobs", i)
		if j.JobId > 0 {
			if !existing {
				f.add(join(jobPath, "job_id"), "must be 0 under a new item")
			} else if seen[j.JobId] {
				f.add(join(jobPath, "job_id"), "duplicate")
			}
			seen[j.JobId] = true
		}
		walkJobUpdate(f, jobPath, j, existing && j.JobId > 0)
	}
}

func walkJobUpdate(f fieldErrors, path string, u *models.JobUpdate, existing bool) {
	checkNonNegative(f, join(path, "estimated_cost"), u.EstimatedCost)
	if existing && u.JobParts == nil {
		f.add(join(path, "job_parts"), "required")
	}
	seen := map[int]bool{}
	for i := range u.JobParts {
		p := &u.JobParts[i]
		partPath := index(path, "job_parts", i)
		checkNonNegative(f, join(partPath, "unit_cost"), p.UnitCost)
		if p.JobPartId > 0 {
			if !existing {
				f.add(join(partPath, "job_part_id"), "must be 0 under a new job")
			} else if seen[p.JobPartId] {
				f.add(join(partPath, "job_part_id"), "duplicate")
			}
			seen[p.JobPartId] = true
			continue
		}
		if p.PartId <= 0 {
			f.add(join(partPath, "part_id"), "required")
		}
		if p.Quantity <= 0 {
			f.add(join(partPath, "quantity"), "required")
		}
	}
}
