package infra

import (
	"fmt"

	"pdvinova/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx. When autoMigrate is set,
// tables are created/updated and the idempotent patches below are applied.
func NewDatabase(dsn string, autoMigrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if autoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations creates the schema and applies the constraints GORM tags
// cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.TimeClockRecord{},
		&model.ActiveShift{},
		&model.Product{},
		&model.Sale{},
		&model.SaleItem{},
		&model.StockMovement{},
		&model.ShiftClosure{},
		&model.InventoryCount{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL. Each statement is guarded so that
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open punch per worker.
		{"ponto open punch unique", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_ponto_open_per_user
    ON ponto (user_id) WHERE saida IS NULL`},
		// One open count per product; the upsert targets this index.
		{"contagens open per product unique", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_contagens_open_per_product
    ON contagens_inventario (product_id) WHERE contagem_fechada = false`},
		{"sales total non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sales_total_non_negative') THEN
    ALTER TABLE sales ADD CONSTRAINT chk_sales_total_non_negative CHECK (total >= 0);
  END IF;
END $$`},
		{"sales payment method enum", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sales_forma_pagamento') THEN
    ALTER TABLE sales ADD CONSTRAINT chk_sales_forma_pagamento
      CHECK (forma_pagamento IN ('dinheiro', 'debito', 'credito', 'pix', 'outro'));
  END IF;
END $$`},
		{"stock movement type enum", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_stock_movements_tipo') THEN
    ALTER TABLE stock_movements ADD CONSTRAINT chk_stock_movements_tipo
      CHECK (tipo IN ('entrada', 'saida', 'ajuste', 'desperdicio'));
  END IF;
END $$`},
		{"sale items cascade", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_sale_items_sale_cascade') THEN
    ALTER TABLE sale_items DROP CONSTRAINT IF EXISTS fk_sales_items;
    ALTER TABLE sale_items ADD CONSTRAINT fk_sale_items_sale_cascade
      FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE CASCADE;
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
