package database

import (
	"embed"
	"fmt"

	"erp-backend/internal/model"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Models lists every table owned by the service, in dependency order.
var Models = []any{
	&model.Partner{},
	&model.Product{},
	&model.StockMovement{},
	&model.PurchaseOrder{},
	&model.PurchaseOrderItem{},
	&model.Bill{},
	&model.BillItem{},
	&model.SalesOrder{},
	&model.SalesOrderItem{},
	&model.Invoice{},
	&model.InvoiceItem{},
	&model.Payment{},
	&model.Return{},
	&model.ReturnItem{},
	&model.AuditLog{},
	&model.DocumentSequence{},
}

// Open connects without touching the schema. Read-only tools use it.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// NewConnection opens the pool, creates tables from the models and then
// applies the SQL migrations that add constraints gorm tags cannot express.
func NewConnection(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	log.Info("database schema up to date")

	return db, nil
}

func migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "migrations")
}
