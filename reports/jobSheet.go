// Package reports renders service orders into printable workbooks.
package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const JobSheetName = "Job Sheet"

var jobSheetHeadings = []string{"Device", "Job", "Status", "Part", "Qty", "Unit Cost", "Total"}

// JobSheet is a detailed service order together with the names it prints.
type JobSheet struct {
	Order     *models.ServiceOrder
	Customer  *models.Customer
	PartNames map[int]string
}

type OrderReader interface {
	GetServiceOrderDetailed(ctx context.Context, id int) (*models.ServiceOrder, error)
}

// LoadJobSheet reads the live hierarchy. Customer and part names are looked up regardless
// of lifecycle so a sheet can still be printed after the catalog entry was removed.
func LoadJobSheet(ctx context.Context, orders OrderReader, s store.Session, serviceOrderId int) (*JobSheet, error) {
	so, err := orders.GetServiceOrderDetailed(ctx, serviceOrderId)
	if err != nil {
		return nil, err
	}
	customer, err := store.Get[models.Customer](ctx, s, "Customer", so.CustomerId)
	if err != nil {
		return nil, err
	}

	var partIds []int
	for _, item := range so.Items {
		for _, job := range item.Jobs {
			for _, jp := range job.JobParts {
				partIds = append(partIds, jp.PartId)
			}
		}
	}
	names := make(map[int]string)
	if partIds = utils.UniqueSlice(partIds); len(partIds) > 0 {
		parts, err := store.Find[models.Part](ctx, s, utils.Where("id IN ?", partIds))
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			names[p.ID] = p.PartName
		}
	}
	return &JobSheet{Order: so, Customer: customer, PartNames: names}, nil
}

func (js *JobSheet) partName(partId int) string {
	if name, ok := js.PartNames[partId]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Part #%d", partId)
}

// WriteJobSheet writes the workbook: a header block, then one row per job part,
// a subtotal row per job and the grand total.
func WriteJobSheet(w io.Writer, js *JobSheet) error {
	f, err := BuildJobSheet(js)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func BuildJobSheet(js *JobSheet) (*excelize.File, error) {
	if js == nil || js.Order == nil {
		return nil, utils.NewValidationError("service order is required", nil)
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", JobSheetName); err != nil {
		f.Close()
		return nil, err
	}
	sw := sheetWriter{f: f, sheet: JobSheetName}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	so := js.Order
	customerName, contact := "", ""
	if js.Customer != nil {
		customerName, contact = js.Customer.CustomerName, js.Customer.ContactNumber
	}
	pickup := ""
	if so.ExpectedPickupDate != nil {
		pickup = so.ExpectedPickupDate.Format("2006-01-02")
	}
	header := [][2]any{
		{"Service Order", so.ServiceOrderNumber},
		{"Status", string(so.Status)},
		{"Customer", customerName},
		{"Contact", contact},
		{"Received", so.CreatedAt.Format("2006-01-02 15:04")},
		{"Expected Pickup", pickup},
	}
	row := 1
	for _, kv := range header {
		sw.row(row, kv[0], kv[1])
		sw.style(row, 1, 1, bold)
		row++
	}

	row++
	headings := make([]any, len(jobSheetHeadings))
	for i, h := range jobSheetHeadings {
		headings[i] = h
	}
	sw.row(row, headings...)
	sw.style(row, 1, len(headings), bold)
	row++

	grandTotal := decimal.Zero
	for _, item := range so.Items {
		device := deviceLabel(&item)
		for _, job := range item.Jobs {
			jobLabel := fmt.Sprintf("#%d %s", job.ID, job.ServiceType)
			for _, jp := range job.JobParts {
				sw.row(row, device, jobLabel, string(job.Status), js.partName(jp.PartId),
					jp.Quantity, jp.UnitCost.InexactFloat64(), jp.TotalCost.InexactFloat64())
				row++
			}
			sw.row(row, device, jobLabel, "", "Job subtotal", "", "", job.ActualCost.InexactFloat64())
			sw.style(row, 4, 7, bold)
			row++
			grandTotal = grandTotal.Add(job.ActualCost)
		}
	}
	sw.row(row, "", "", "", "Grand total", "", "", grandTotal.InexactFloat64())
	sw.style(row, 4, 7, bold)

	if sw.err != nil {
		f.Close()
		return nil, sw.err
	}
	if err := f.SetColWidth(JobSheetName, "A", "D", 22); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func deviceLabel(item *models.Item) string {
	label := item.DeviceType
	if item.Brand != "" {
		label += " " + item.Brand
	}
	if item.Model != "" {
		label += " " + item.Model
	}
	return label
}

// sheetWriter keeps the first cell error so rows can be written without a check per cell.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (sw *sheetWriter) row(row int, values ...any) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetSheetRow(sw.sheet, cell, &values)
}

func (sw *sheetWriter) style(row, fromCol, toCol, styleId int) {
	if sw.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		sw.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetCellStyle(sw.sheet, from, to, styleId)
}
