package account

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepository_SaveAllocatesID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a, err := repo.Save(ctx, Account{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a.ID == "" {
		t.Fatalf("expected an allocated id")
	}
	b, _ := repo.Save(ctx, Account{})
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %s twice", a.ID)
	}

	fetched, err := repo.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched != a {
		t.Fatalf("expected %+v, got %+v", a, fetched)
	}
}

func TestMemoryRepository_SaveReplacesInPlace(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Save(ctx, Account{ID: "100", Balance: 10}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.Save(ctx, Account{ID: "100", Balance: 25}); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, _ := repo.List(ctx)
	if len(all) != 1 || all[0].Balance != 25 {
		t.Fatalf("expected single account with balance 25, got %+v", all)
	}
}

func TestMemoryRepository_GetMissing(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_ListSortedAndReset(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, id := range []string{"300", "100", "200"} {
		repo.Save(ctx, Account{ID: id})
	}

	all, _ := repo.List(ctx)
	if len(all) != 3 || all[0].ID != "100" || all[2].ID != "300" {
		t.Fatalf("unexpected listing: %+v", all)
	}

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	all, _ = repo.List(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty store after reset, got %+v", all)
	}
}
