package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nk2109/pantry/internal/adapter/storage"
	"github.com/nk2109/pantry/internal/core/service"
)

const defaultSQLitePath = "pantry.db"

// Demo pantry contents: some bought at staggered offsets so every freshness
// state shows up, some never bought.
var seedItems = []struct {
	in         service.CreateIngredientInput
	boughtQty  float64
	boughtDays int // days before now; -1 = never bought
}{
	{service.CreateIngredientInput{Name: "Milk", Unit: "l", StockQty: 0, ShelfLifeDays: 7}, 2, 6},
	{service.CreateIngredientInput{Name: "Eggs", Unit: "pcs", StockQty: 0, ShelfLifeDays: 21}, 12, 2},
	{service.CreateIngredientInput{Name: "Cheddar", Unit: "g", StockQty: 0, ShelfLifeDays: 30}, 400, 35},
	{service.CreateIngredientInput{Name: "Tomatoes", Unit: "kg", StockQty: 0, ShelfLifeDays: 5}, 1.5, 3},
	{service.CreateIngredientInput{Name: "Flour", Unit: "kg", StockQty: 2, ShelfLifeDays: 365}, 0, -1},
	{service.CreateIngredientInput{Name: "Olive Oil", Unit: "ml", StockQty: 500, ShelfLifeDays: 540}, 0, -1},
}

func main() {
	ctx := context.Background()

	path := os.Getenv("PANTRY_SQLITE_PATH")
	if path == "" {
		path = defaultSQLitePath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer db.Close()

	store, err := storage.NewSQLStore(ctx, db)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}

	if n, err := store.Count(ctx); err != nil {
		log.Fatalf("failed to count ingredients: %v", err)
	} else if n > 0 {
		log.Fatalf("store already holds %d ingredients, refusing to seed", n)
	}

	pantry := service.NewPantryService(store)

	for _, item := range seedItems {
		created, err := pantry.Create(ctx, item.in)
		if err != nil {
			log.Fatalf("failed to create %s: %v", item.in.Name, err)
		}

		if item.boughtDays >= 0 {
			// Buy through a clock pinned in the past so spoilage states differ.
			bought := time.Now().AddDate(0, 0, -item.boughtDays)
			backdated := service.NewPantryService(store,
				service.WithClock(func() time.Time { return bought }))

			res := backdated.Buy(ctx, service.BuyRequest{
				IngredientID: created.ID,
				PurchasedQty: item.boughtQty,
			})
			if !res.Success {
				log.Fatalf("failed to buy %s: %s", item.in.Name, res.Error)
			}
		}
	}

	list, err := pantry.ListWithSpoilage(ctx, "")
	if err != nil {
		log.Fatalf("failed to list ingredients: %v", err)
	}

	fmt.Printf("seeded %d ingredients into %s\n", len(list), path)
	for _, item := range list {
		days := "-"
		if item.DaysRemaining != nil {
			days = fmt.Sprintf("%d", *item.DaysRemaining)
		}
		fmt.Printf("  %-10s %8.1f %-4s status=%-11s days_remaining=%s\n",
			item.Name, item.StockQty, item.Unit, item.Status, days)
	}
}
