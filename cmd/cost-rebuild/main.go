// cost-rebuild re-derives job actual costs from their job parts and rewrites the ones that drifted.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/cost-rebuild --dry-run
//	go run ./cmd/cost-rebuild --service-order-id 42
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/hierarchy"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

func main() {
	serviceOrderID := flag.Int("service-order-id", 0, "Optional: limit the rebuild to one service order")
	dryRun := flag.Bool("dry-run", false, "Report drifted jobs without writing")
	flag.Parse()

	if *serviceOrderID < 0 {
		fmt.Fprintln(os.Stderr, "--service-order-id must be positive")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := utils.SetUserNameInContext(context.Background(), "cost-rebuild")
	svc := hierarchy.NewService(store.NewGormStore(db), hierarchy.WithLogger(config.GetLogger()))
	report, err := svc.RebuildJobCosts(ctx, hierarchy.RebuildOptions{
		ServiceOrderId: *serviceOrderID,
		DryRun:         *dryRun,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	for _, d := range report.Drifts {
		fmt.Printf("job=%d stored=%s computed=%s\n", d.JobId, d.Stored.StringFixed(2), d.Computed.StringFixed(2))
	}
	if *dryRun {
		fmt.Printf("dry run: %d job(s) checked, %d would be fixed\n", report.JobsChecked, len(report.Drifts))
		return
	}
	fmt.Printf("cost rebuild complete: %d job(s) checked, %d fixed\n", report.JobsChecked, report.JobsFixed)
}
