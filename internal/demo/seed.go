package demo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sqler/sqler/internal/database"
)

// Tables lists every table the seed creates, base tables first.
var Tables = []string{
	"productlines", "products", "offices", "employees", "customers", "orders", "orderdetails", "payments",
	"chiffre_affaire", "commande_client", "ecoulement_stock", "marge_produit", "rotation_stock",
	"value_stock_quantity", "employee_ca", "recouvrement", "customer_orders_summary",
}

// Seed applies every pending script to db and reports how many ran.
// Running it again on a seeded database is a no-op.
func Seed(ctx context.Context, db *database.DB, logger *slog.Logger) (int, error) {
	if db == nil || db.DB == nil {
		return 0, fmt.Errorf("database is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	applied, err := NewRunner(db.Dialect).Up(ctx, db.DB, 0)
	if err != nil {
		logger.ErrorContext(ctx, "demo seed failed", slog.Int("applied", applied), slog.Any("error", err))
		return applied, err
	}
	logger.InfoContext(ctx, "demo seed complete", slog.Int("applied", applied), slog.String("dialect", string(db.Dialect)))
	return applied, nil
}
