package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nk2109/pantry/internal/core/domain"
	"github.com/nk2109/pantry/internal/port"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "pantry.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLStore(context.Background(), db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return store
}

func testIngredient(id string) domain.Ingredient {
	return domain.Ingredient{
		ID:            id,
		Name:          "Milk",
		Unit:          "l",
		StockQty:      2.5,
		ShelfLifeDays: 7,
		CreatedAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	purchased := time.Date(2026, 3, 9, 8, 30, 0, 123456789, time.UTC)
	ing := testIngredient("ing-1")
	ing.PurchasedAt = &purchased

	if err := store.Insert(ctx, ing); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.Get(ctx, "ing-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.Name != "Milk" || got.Unit != "l" || got.StockQty != 2.5 || got.ShelfLifeDays != 7 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.PurchasedAt == nil || !got.PurchasedAt.Equal(purchased) {
		t.Errorf("expected purchase instant %v, got %v", purchased, got.PurchasedAt)
	}
	if !got.CreatedAt.Equal(ing.CreatedAt) {
		t.Errorf("created_at mismatch: %v vs %v", got.CreatedAt, ing.CreatedAt)
	}
}

func TestGet_AbsentIsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestGet_NullPurchasedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, testIngredient("ing-1")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.Get(ctx, "ing-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PurchasedAt != nil {
		t.Errorf("expected nil purchase instant, got %v", got.PurchasedAt)
	}
}

func TestGetAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testIngredient("ing-1")
	second := testIngredient("ing-2")
	second.Name = "Eggs"
	second.CreatedAt = first.CreatedAt.Add(time.Minute)

	if err := store.Insert(ctx, second); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatal(err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("getAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].ID != "ing-1" || all[1].ID != "ing-2" {
		t.Errorf("expected creation order, got %s, %s", all[0].ID, all[1].ID)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, testIngredient("ing-1")); err != nil {
		t.Fatal(err)
	}

	qty := 9.0
	purchased := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2026, 3, 11, 9, 0, 1, 0, time.UTC)
	err := store.Update(ctx, "ing-1", domain.IngredientPatch{StockQty: &qty, PurchasedAt: &purchased, UpdatedAt: &updatedAt})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, _ := store.Get(ctx, "ing-1")
	if got.StockQty != 9 {
		t.Errorf("expected stock 9, got %v", got.StockQty)
	}
	if got.PurchasedAt == nil || !got.PurchasedAt.Equal(purchased) {
		t.Errorf("expected purchase instant set, got %v", got.PurchasedAt)
	}
	if !got.UpdatedAt.Equal(updatedAt) {
		t.Errorf("expected caller-supplied updated_at, got %v", got.UpdatedAt)
	}
	if got.Name != "Milk" || got.Unit != "l" || got.ShelfLifeDays != 7 {
		t.Error("untouched fields changed")
	}
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, testIngredient("ing-1")); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(ctx, "ing-1", domain.IngredientPatch{}); err != nil {
		t.Fatalf("empty patch failed: %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, testIngredient("ing-1")); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Delete(ctx, "ing-1")
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got %v %v", deleted, err)
	}

	deleted, err = store.Delete(ctx, "ing-1")
	if err != nil || deleted {
		t.Fatalf("expected false for absent id, got %v %v", deleted, err)
	}
}

func TestCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}

	store.Insert(ctx, testIngredient("ing-1"))
	ing2 := testIngredient("ing-2")
	store.Insert(ctx, ing2)

	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}

func TestWithinTransaction_Commits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(repo port.IngredientRepository) error {
		return repo.Insert(ctx, testIngredient("ing-1"))
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	got, _ := store.Get(ctx, "ing-1")
	if got == nil {
		t.Error("committed write not visible")
	}
}

func TestWithinTransaction_RollsBackAllWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, testIngredient("ing-1")); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	qty := 99.0
	err := store.WithinTransaction(ctx, func(repo port.IngredientRepository) error {
		if err := repo.Update(ctx, "ing-1", domain.IngredientPatch{StockQty: &qty}); err != nil {
			return err
		}
		if err := repo.Insert(ctx, testIngredient("ing-2")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := store.Get(ctx, "ing-1")
	if got.StockQty != 2.5 {
		t.Errorf("update not rolled back: %v", got.StockQty)
	}
	if ghost, _ := store.Get(ctx, "ing-2"); ghost != nil {
		t.Error("insert not rolled back")
	}
}

func TestWithinTransaction_NestedJoinsScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(repo port.IngredientRepository) error {
		return repo.WithinTransaction(ctx, func(inner port.IngredientRepository) error {
			return inner.Insert(ctx, testIngredient("ing-1"))
		})
	})
	if err != nil {
		t.Fatalf("nested transaction failed: %v", err)
	}

	got, _ := store.Get(ctx, "ing-1")
	if got == nil {
		t.Error("nested write not committed")
	}
}
