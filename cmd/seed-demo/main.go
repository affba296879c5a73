// seed-demo creates a demo business with a small catalog and 30 days of
// consumption history, enough for the analytics endpoints to return data.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

type seedItem struct {
	name     string
	sku      string
	category string
	unit     string
	qty      int64
	baseUse  float64
	spread   float64
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:     "Demo Canteen",
		Email:    "demo@example.com",
		Timezone: "UTC",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetBusinessIdInContext(ctx, business.ID.String())

	categories := map[string]int{}
	for _, name := range []string{"Staples", "Produce", "Beverages"} {
		category, err := models.CreateItemCategory(ctx, &models.NewItemCategory{Name: name})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create category %s: %v\n", name, err)
			os.Exit(1)
		}
		categories[name] = category.ID
	}

	seeds := []seedItem{
		{"Rice", "RICE-001", "Staples", "kg", 500, 12, 2},
		{"Cooking Oil", "OIL-001", "Staples", "l", 120, 4, 1},
		{"Lentils", "LENTIL-001", "Staples", "kg", 200, 6, 1.5},
		{"Onions", "ONION-001", "Produce", "kg", 150, 8, 3},
		{"Tomatoes", "TOMATO-001", "Produce", "kg", 100, 7, 3},
		{"Tea", "TEA-001", "Beverages", "kg", 40, 1.5, 0.3},
		{"Milk Powder", "MILK-001", "Beverages", "kg", 60, 2.5, 0.5},
	}

	rng := rand.New(rand.NewSource(42))
	today := time.Now().UTC()

	for _, s := range seeds {
		item, err := models.CreateItem(ctx, &models.NewItem{
			Name:       s.name,
			Sku:        s.sku,
			CategoryId: categories[s.category],
			UnitName:   s.unit,
			CurrentQty: decimal.NewFromInt(s.qty),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create item %s: %v\n", s.name, err)
			os.Exit(1)
		}

		opening := decimal.NewFromInt(s.qty * 2)
		employees := 120
		for day := 30; day >= 1; day-- {
			consumed := s.baseUse + (rng.Float64()*2-1)*s.spread
			if consumed < 0 {
				consumed = 0
			}
			consumedQty := decimal.NewFromFloat(consumed).Round(2)

			record, err := models.CreateConsumptionRecord(ctx, &models.NewConsumptionRecord{
				ItemId:        item.ID,
				RecordDate:    today.AddDate(0, 0, -day),
				OpeningQty:    opening,
				ConsumedQty:   consumedQty,
				EmployeeCount: &employees,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to create record for %s: %v\n", s.name, err)
				os.Exit(1)
			}
			opening = record.ClosingQty
		}
	}

	fmt.Printf("seeded business %s with %d items and 30 days of history\n", business.ID, len(seeds))
	fmt.Println("run ./cmd/analytics-recompute --business-id", business.ID, "to compute profiles and correlations")
}
