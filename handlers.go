package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func statusFor(err error) int {
	switch utils.KindOf(err) {
	case utils.KindValidation:
		return http.StatusBadRequest
	case utils.KindNotFound:
		return http.StatusNotFound
	case utils.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes the error body. Unexpected errors are logged here and their detail is not sent to clients.
func (s *server) fail(c *gin.Context, funcName string, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Fields = appErr.Fields
	}
	if status == http.StatusInternalServerError {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(s.logger, "server", funcName, c.Request.Method+" "+c.FullPath(), gin.H{"correlation_id": cid}, err)
		body = errorResponse{Error: "internal error"}
	}
	c.AbortWithStatusJSON(status, body)
}

// pathId parses a positive integer path parameter, answering 400 otherwise.
func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  "invalid " + name,
			Fields: map[string]string{name: "gt=0"},
		})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest any) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid query: " + err.Error()})
		return false
	}
	return true
}

func (s *server) routes(r gin.IRouter) {
	r.POST("/customers/:id/service-orders", s.createServiceOrder)
	r.GET("/service-orders", s.searchServiceOrders)
	r.GET("/service-orders/:id", s.getServiceOrder)
	r.PUT("/service-orders/:id", s.updateServiceOrder)
	r.DELETE("/service-orders/:id", s.deleteServiceOrder)
	r.PUT("/service-orders/:id/smart", s.smartUpdateServiceOrder)
	r.POST("/service-orders/:id/items", s.createItem)
	r.POST("/service-orders/:id/costs/rebuild", s.rebuildServiceOrderCosts)
	r.GET("/service-orders/:id/job-sheet", s.downloadJobSheet)
	r.POST("/service-orders/:id/job-sheet/archive", s.archiveJobSheet)
	r.GET("/service-orders/:id/events", s.getServiceOrderEvents)
	r.POST("/service-orders/:id/events/requeue", s.requeueServiceOrderEvents)

	r.GET("/items/:id", s.getItem)
	r.PUT("/items/:id", s.updateItem)
	r.DELETE("/items/:id", s.deleteItem)
	r.POST("/items/:id/jobs", s.createJob)

	r.GET("/jobs/:id", s.getJob)
	r.PUT("/jobs/:id", s.updateJob)
	r.DELETE("/jobs/:id", s.deleteJob)
	r.POST("/jobs/:id/parts", s.addJobPart)
	r.POST("/jobs/:id/parts/bulk", s.bulkAddJobParts)
	r.POST("/jobs/:id/recalculate", s.recalculateJobCost)
	r.PUT("/job-parts/:id", s.updateJobPart)
	r.DELETE("/job-parts/:id", s.deleteJobPart)

	r.POST("/customers", s.createCustomer)
	r.GET("/customers", s.listCustomers)
	r.GET("/customers/:id", s.getCustomer)
	r.PUT("/customers/:id", s.updateCustomer)
	r.DELETE("/customers/:id", s.deleteCustomer)
	r.GET("/customers/:id/stats", s.getCustomerStats)

	r.POST("/employees", s.createEmployee)
	r.GET("/employees", s.listEmployees)
	r.GET("/employees/:id", s.getEmployee)
	r.PUT("/employees/:id", s.updateEmployee)
	r.DELETE("/employees/:id", s.deleteEmployee)

	r.POST("/parts", s.createPart)
	r.GET("/parts", s.listParts)
	r.GET("/parts/:id", s.getPart)
	r.PUT("/parts/:id", s.updatePart)
	r.DELETE("/parts/:id", s.deletePart)
}
