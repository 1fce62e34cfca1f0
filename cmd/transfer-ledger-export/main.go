package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/models/reports"
	"bitbucket.org/mmdatafocus/production_backend/utils"
)

func main() {
	orderID := flag.Int("order-id", 0, "Required: production order id")
	factoryID := flag.String("factory-id", "", "Optional: factory id the order belongs to")
	out := flag.String("out", "", "Output file (default transfer-ledger-<order-id>.xlsx)")
	flag.Parse()

	if *orderID <= 0 {
		fmt.Fprintln(os.Stderr, "--order-id is required")
		os.Exit(2)
	}
	filename := strings.TrimSpace(*out)
	if filename == "" {
		filename = fmt.Sprintf("transfer-ledger-%d.xlsx", *orderID)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()
	if f := strings.TrimSpace(*factoryID); f != "" {
		ctx = utils.SetFactoryIdInContext(ctx, f)
	} else {
		ctx = utils.SetSkipFactoryScopeInContext(ctx, true)
	}

	order, err := models.GetProductionOrder(ctx, *orderID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "order %d: %v\n", *orderID, err)
		os.Exit(1)
	}
	events, err := models.ListOrderTransferEvents(ctx, db, order.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transfer events: %v\n", err)
		os.Exit(1)
	}

	f, err := reports.TransferLedgerWorkbook(order, events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build workbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := f.SaveAs(filename); err != nil {
		fmt.Fprintf(os.Stderr, "save %s: %v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("order_id=%d articles=%d transfers=%d file=%s\n", order.ID, len(order.Articles), len(events), filename)
}
