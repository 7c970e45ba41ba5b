package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/servicecenter_backend/models"
)

func (s *server) createCustomer(c *gin.Context) {
	var input models.NewCustomer
	if !bindJSON(c, &input) {
		return
	}
	customer, err := s.catalog.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, "createCustomer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (s *server) listCustomers(c *gin.Context) {
	var search models.CatalogSearch
	if !bindQuery(c, &search) {
		return
	}
	results, err := s.catalog.ListCustomers(c.Request.Context(), &search)
	if err != nil {
		s.fail(c, "listCustomers", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *server) getCustomer(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	customer, err := s.catalog.GetCustomer(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *server) updateCustomer(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.CustomerPatch
	if !bindJSON(c, &patch) {
		return
	}
	customer, err := s.catalog.UpdateCustomer(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *server) deleteCustomer(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.catalog.DeleteCustomer(c.Request.Context(), id); err != nil {
		s.fail(c, "deleteCustomer", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) getCustomerStats(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	stats, err := s.catalog.GetCustomerStats(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getCustomerStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *server) createEmployee(c *gin.Context) {
	var input models.NewEmployee
	if !bindJSON(c, &input) {
		return
	}
	employee, err := s.catalog.CreateEmployee(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, "createEmployee", err)
		return
	}
	c.JSON(http.StatusCreated, employee)
}

func (s *server) listEmployees(c *gin.Context) {
	var search models.CatalogSearch
	if !bindQuery(c, &search) {
		return
	}
	results, err := s.catalog.ListEmployees(c.Request.Context(), &search)
	if err != nil {
		s.fail(c, "listEmployees", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *server) getEmployee(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	employee, err := s.catalog.GetEmployee(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getEmployee", err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (s *server) updateEmployee(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.EmployeePatch
	if !bindJSON(c, &patch) {
		return
	}
	employee, err := s.catalog.UpdateEmployee(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updateEmployee", err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (s *server) deleteEmployee(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.catalog.DeleteEmployee(c.Request.Context(), id); err != nil {
		s.fail(c, "deleteEmployee", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) createPart(c *gin.Context) {
	var input models.NewPart
	if !bindJSON(c, &input) {
		return
	}
	part, err := s.catalog.CreatePart(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, "createPart", err)
		return
	}
	c.JSON(http.StatusCreated, part)
}

func (s *server) listParts(c *gin.Context) {
	var search models.CatalogSearch
	if !bindQuery(c, &search) {
		return
	}
	results, err := s.catalog.ListParts(c.Request.Context(), &search)
	if err != nil {
		s.fail(c, "listParts", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *server) getPart(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	part, err := s.catalog.GetPart(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "getPart", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (s *server) updatePart(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var patch models.PartPatch
	if !bindJSON(c, &patch) {
		return
	}
	part, err := s.catalog.UpdatePart(c.Request.Context(), id, &patch)
	if err != nil {
		s.fail(c, "updatePart", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (s *server) deletePart(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := s.catalog.DeletePart(c.Request.Context(), id); err != nil {
		s.fail(c, "deletePart", err)
		return
	}
	c.Status(http.StatusNoContent)
}
