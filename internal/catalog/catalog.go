// Package catalog supplies the initial stock quantities the ledger is built
// from. Quantities are fixed at catalog load time; afterwards only the
// administrative restock path may change them.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier matches the query method from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Load reads the catalog's stock rows. The result seeds the in-memory
// ledger once at startup; the database is not consulted afterwards.
func Load(ctx context.Context, q Querier) (map[string]int, error) {
	rows, err := q.Query(ctx, `SELECT product_id, quantity FROM catalog_stock`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	stock := make(map[string]int)
	for rows.Next() {
		var productID string
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		stock[productID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog rows: %w", err)
	}
	return stock, nil
}

// DefaultSeed is the built-in catalog used when no database is configured.
func DefaultSeed() map[string]int {
	return map[string]int{
		"GGOEAFKA087499": 100,
		"GGOEAFKA087500": 50,
		"GGOEAFKA087501": 75,
		"GGOEAFKA087502": 200,
		"GGOEAFKA087503": 30,
	}
}
