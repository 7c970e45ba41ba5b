package main

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/reports"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/mmdatafocus/servicecenter_backend/workflow"
)

type archiveResponse struct {
	ObjectName string `json:"object_name"`
	Location   string `json:"location"`
}

func jobSheetFileName(so *models.ServiceOrder) string {
	if so.ServiceOrderNumber != "" {
		return so.ServiceOrderNumber + ".xlsx"
	}
	return fmt.Sprintf("service-order-%d.xlsx", so.ID)
}

func (s *server) downloadJobSheet(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	js, err := reports.LoadJobSheet(c.Request.Context(), s.orders, s.store, id)
	if err != nil {
		s.fail(c, "downloadJobSheet", err)
		return
	}
	f, err := reports.BuildJobSheet(js)
	if err != nil {
		s.fail(c, "downloadJobSheet", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", utils.ContentTypeXlsx)
	c.Header("Content-Disposition", "attachment; filename="+jobSheetFileName(js.Order))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		// headers are already sent; leave it to the error logger
		_ = c.Error(err)
	}
}

// archiveJobSheet renders the sheet and stores it in the GCS bucket.
func (s *server) archiveJobSheet(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	js, err := reports.LoadJobSheet(ctx, s.orders, s.store, id)
	if err != nil {
		s.fail(c, "archiveJobSheet", err)
		return
	}
	var buf bytes.Buffer
	if err := reports.WriteJobSheet(&buf, js); err != nil {
		s.fail(c, "archiveJobSheet", err)
		return
	}
	objectName := fmt.Sprintf("job-sheets/%d/%s-%s", js.Order.ID, s.now().UTC().Format("20060102T150405"), jobSheetFileName(js.Order))
	location, err := s.upload(ctx, objectName, buf.Bytes(), utils.ContentTypeXlsx)
	if err != nil {
		s.fail(c, "archiveJobSheet", err)
		return
	}
	c.JSON(http.StatusCreated, archiveResponse{ObjectName: objectName, Location: location})
}

func (s *server) getServiceOrderEvents(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	status, err := workflow.GetOutboxStatus(c.Request.Context(), s.db, id)
	if err != nil {
		s.fail(c, "getServiceOrderEvents", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// requeueServiceOrderEvents also works for deleted orders so their last events can still go out.
func (s *server) requeueServiceOrderEvents(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := store.Get[models.ServiceOrder](ctx, s.store, "ServiceOrder", id); err != nil {
		s.fail(c, "requeueServiceOrderEvents", err)
		return
	}
	res, err := workflow.RequeueServiceOrderEvents(ctx, s.db, id, s.now())
	if err != nil {
		s.fail(c, "requeueServiceOrderEvents", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
