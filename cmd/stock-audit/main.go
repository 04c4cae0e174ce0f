// Command stock-audit replays the stock movement log of a tenant and reports
// every product whose cached stock_quantity disagrees with it. It exits 2 when
// drift is found so it can gate deploys or cron alerts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/logger"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	tenant := flag.String("tenant-id", "", "Required: tenant id (uuid)")
	product := flag.String("product-id", "", "Optional: check a single product")
	envFile := flag.String("env", "configs/.env", "Optional: env file to load")
	asJSON := flag.Bool("json", false, "Print the report as JSON")
	flag.Parse()

	tenantID, err := uuid.Parse(strings.TrimSpace(*tenant))
	if err != nil {
		fmt.Fprintln(os.Stderr, "--tenant-id is required and must be a uuid")
		os.Exit(1)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)

	// The audit only reads; schema changes stay with the API server.
	db, err := database.Open(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("database not initialized")
	}
	svc := service.New(service.Deps{Store: repository.NewGormStore(db), Log: log})

	report, err := run(context.Background(), svc.Inventory, tenantID, strings.TrimSpace(*product))
	if err != nil {
		log.WithError(err).Fatal("stock audit failed")
	}

	if *asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(report)
	} else {
		fmt.Printf("checked %d products, %d drifted\n", report.Checked, len(report.Drifts))
		for _, d := range report.Drifts {
			fmt.Printf("  %s  %-20s cached=%d ledger=%d drift=%+d\n", d.ProductID, d.SKU, d.Cached, d.Ledger, d.Drift)
		}
	}

	if len(report.Drifts) > 0 {
		log.WithFields(logrus.Fields{"tenant_id": tenantID, "drifted": len(report.Drifts)}).Warn("stock drift detected")
		os.Exit(2)
	}
}

func run(ctx context.Context, inventory service.InventoryService, tenantID uuid.UUID, product string) (service.StockAudit, error) {
	if product == "" {
		return inventory.VerifyAllStock(ctx, tenantID)
	}

	productID, err := uuid.Parse(product)
	if err != nil {
		return service.StockAudit{}, fmt.Errorf("invalid --product-id: %w", err)
	}
	d, err := inventory.VerifyStock(ctx, tenantID, productID)
	if err != nil {
		return service.StockAudit{}, err
	}
	report := service.StockAudit{Checked: 1, Drifts: []service.StockDrift{}}
	if d.Drift != 0 {
		report.Drifts = append(report.Drifts, d)
	}
	return report, nil
}
