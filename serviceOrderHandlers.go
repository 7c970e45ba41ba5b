package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/servicecenter_backend/hierarchy"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

type smartUpdateResponse struct {
	ServiceOrder *models.ServiceOrder       `json:"service_order"`
	Summary      *hierarchy.ReconcileSummary `json:"summary"`
}

func (s *server) createServiceOrder(c *gin.Context) {
	customerId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var doc models.NewServiceOrder
	if !bindJSON(c, &doc) {
		return
	}
	so, err := s.orders.CreateServiceOrderComplete(c.Request.Context(), customerId, &doc)
	if err != nil {
		s.fail(c, "createServiceOrder", err)
		return
	}
	c.JSON(http.StatusCreated, so)
}

func (s *server) searchServiceOrders(c *gin.Context) {
	var search models.ServiceOrderSearch
	if !bindQuery(c, &search) {
		return
	}
	results, err := s.orders.SearchServiceOrders(c.Request.Context(), &search)
	if err != nil {
		s.fail(c, "searchServiceOrders", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *server) getServiceOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	so, err := s.orders.GetServiceOrderDetailed(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getServiceOrder", err)
		return
	}
	c.JSON(http.StatusOK, so)
}

func (s *server) updateServiceOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.ServiceOrderPatch
	if !bindJSON(c, &patch) {
		return
	}
	so, err := s.orders.UpdateServiceOrder(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updateServiceOrder", err)
		return
	}
	c.JSON(http.StatusOK, so)
}

func (s *server) deleteServiceOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.orders.DeleteServiceOrder(c.Request.Context(), id); err != nil {
		s.fail(c, "deleteServiceOrder", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// smartUpdateServiceOrder takes the target from the path; a body id, when given, must agree.
func (s *server) smartUpdateServiceOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var doc models.ServiceOrderUpdate
	if !bindJSON(c, &doc) {
		return
	}
	if doc.ServiceOrderId == 0 {
		doc.ServiceOrderId = id
	}
	if doc.ServiceOrderId != id {
		s.fail(c, "smartUpdateServiceOrder", utils.NewValidationError("service_order_id does not match the path",
			map[string]string{"service_order_id": "eqfield=id"}))
		return
	}
	so, summary, err := s.orders.ReconcileServiceOrder(c.Request.Context(), &doc)
	if err != nil {
		s.fail(c, "smartUpdateServiceOrder", err)
		return
	}
	c.JSON(http.StatusOK, smartUpdateResponse{ServiceOrder: so, Summary: summary})
}

func (s *server) createItem(c *gin.Context) {
	soId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var doc models.NewItem
	if !bindJSON(c, &doc) {
		return
	}
	item, err := s.orders.CreateItemComplete(c.Request.Context(), soId, &doc)
	if err != nil {
		s.fail(c, "createItem", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// rebuildServiceOrderCosts recomputes every job cost of one order; ?dry_run=true only reports drift.
func (s *server) rebuildServiceOrderCosts(c *gin.Context) {
	soId, ok := pathId(c, "id")
	if !ok {
		return
	}
	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))
	report, err := s.orders.RebuildJobCosts(c.Request.Context(), hierarchy.RebuildOptions{ServiceOrderId: soId, DryRun: dryRun})
	if err != nil {
		s.fail(c, "rebuildServiceOrderCosts", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *server) getItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	item, err := s.orders.GetItemDetailed(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getItem", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *server) updateItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.ItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.orders.UpdateItem(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updateItem", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *server) deleteItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.orders.DeleteItem(c.Request.Context(), id); err != nil {
		s.fail(c, "deleteItem", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) createJob(c *gin.Context) {
	itemId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var doc models.NewJob
	if !bindJSON(c, &doc) {
		return
	}
	job, err := s.orders.CreateJobComplete(c.Request.Context(), itemId, &doc)
	if err != nil {
		s.fail(c, "createJob", err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (s *server) getJob(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	job, err := s.orders.GetJobDetailed(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getJob", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *server) updateJob(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.JobPatch
	if !bindJSON(c, &patch) {
		return
	}
	job, err := s.orders.UpdateJob(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updateJob", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *server) deleteJob(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.orders.DeleteJob(c.Request.Context(), id); err != nil {
		s.fail(c, "deleteJob", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) recalculateJobCost(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	job, err := s.orders.RecalculateJobCost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "recalculateJobCost", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *server) addJobPart(c *gin.Context) {
	jobId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var doc models.NewJobPart
	if !bindJSON(c, &doc) {
		return
	}
	jp, err := s.orders.AddJobPart(c.Request.Context(), jobId, &doc)
	if err != nil {
		s.fail(c, "addJobPart", err)
		return
	}
	c.JSON(http.StatusCreated, jp)
}

func (s *server) bulkAddJobParts(c *gin.Context) {
	jobId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var docs []models.NewJobPart
	if !bindJSON(c, &docs) {
		return
	}
	parts, err := s.orders.BulkAddJobParts(c.Request.Context(), jobId, docs)
	if err != nil {
		s.fail(c, "bulkAddJobParts", err)
		return
	}
	c.JSON(http.StatusCreated, parts)
}

func (s *server) updateJobPart(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.JobPartPatch
	if !bindJSON(c, &patch) {
		return
	}
	jp, err := s.orders.UpdateJobPart(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updateJobPart", err)
		return
	}
	c.JSON(http.StatusOK, jp)
}

func (s *server) deleteJobPart(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.orders.DeleteJobPart(c.Request.Context(), id); err != nil {
		s.fail(c, "deleteJobPart", err)
		return
	}
	c.Status(http.StatusNoContent)
}
