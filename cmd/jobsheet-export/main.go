// jobsheet-export renders the job sheet of one service order to a local file or to GCS_BUCKET.
//
// Usage (from backend directory):
//
//	go run ./cmd/jobsheet-export --service-order-id 42 --out ./SO-42.xlsx
//	GCS_BUCKET=... go run ./cmd/jobsheet-export --service-order-id 42 --gcs
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/hierarchy"
	"github.com/mmdatafocus/servicecenter_backend/reports"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

func main() {
	serviceOrderID := flag.Int("service-order-id", 0, "Required: service order id")
	out := flag.String("out", "", "Write the workbook to this path (default <number>.xlsx)")
	toGCS := flag.Bool("gcs", false, "Upload to GCS_BUCKET under job-sheets/ instead of writing a file")
	flag.Parse()

	if *serviceOrderID <= 0 {
		fmt.Fprintln(os.Stderr, "--service-order-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()
	st := store.NewGormStore(db)
	js, err := reports.LoadJobSheet(ctx, hierarchy.NewService(st), st, *serviceOrderID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load job sheet: %v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := reports.WriteJobSheet(&buf, js); err != nil {
		fmt.Fprintf(os.Stderr, "render job sheet: %v\n", err)
		os.Exit(1)
	}

	fileName := js.Order.ServiceOrderNumber + ".xlsx"
	if *toGCS {
		objectName := fmt.Sprintf("job-sheets/%d/%s-%s", js.Order.ID, time.Now().UTC().Format("20060102T150405"), fileName)
		location, err := utils.UploadBytesToGCS(ctx, objectName, buf.Bytes(), utils.ContentTypeXlsx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(location)
		return
	}

	path := *out
	if path == "" {
		path = fileName
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", path, buf.Len())
}
