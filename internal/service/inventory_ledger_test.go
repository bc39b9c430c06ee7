package service

import (
	"context"
	"errors"
	"testing"
)

func TestLedgerReserveReleaseCommit(t *testing.T) {
	f := newServiceFixture(t, "ledger_flow", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "Ledger", 10, 5)

	if err := f.ledger.Reserve(ctx, book.ID, 4); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := f.ledger.Reserve(ctx, book.ID, 2); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("overdraw want ErrInsufficientStock got %v", err)
	}
	if err := f.ledger.Reserve(ctx, 9999, 1); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("missing book want ErrBookNotFound got %v", err)
	}
	if err := f.ledger.Reserve(ctx, book.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity want ErrInvalidQuantity got %v", err)
	}
	if err := f.ledger.Release(ctx, book.ID, 1); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := f.ledger.Commit(ctx, []LedgerLine{{BookID: book.ID, Quantity: 2}, {BookID: book.ID, Quantity: 1}}); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	got := reloadServiceBook(t, f.db, book.ID)
	if got.AvailableQuantity != 2 || got.ReservedQuantity != 0 || got.SoldQuantity != 3 {
		t.Fatalf("want 2/0/3 got %d/%d/%d", got.AvailableQuantity, got.ReservedQuantity, got.SoldQuantity)
	}
	if got.AvailableQuantity+got.ReservedQuantity+got.SoldQuantity != 5 {
		t.Fatalf("stock total must be conserved")
	}

	// reserved 不足时释放不做任何修改
	if err := f.ledger.Release(ctx, book.ID, 1); err != nil {
		t.Fatalf("over-release should only warn, got %v", err)
	}
	if got := reloadServiceBook(t, f.db, book.ID); got.AvailableQuantity != 2 {
		t.Fatalf("over-release must not change stock, got available=%d", got.AvailableQuantity)
	}
}

func TestMergeLedgerLines(t *testing.T) {
	merged := mergeLedgerLines([]LedgerLine{
		{BookID: 3, Quantity: 1},
		{BookID: 1, Quantity: 2},
		{BookID: 3, Quantity: 4},
		{BookID: 0, Quantity: 9},
		{BookID: 2, Quantity: 0},
	})
	want := []LedgerLine{{BookID: 1, Quantity: 2}, {BookID: 3, Quantity: 5}}
	if len(merged) != len(want) {
		t.Fatalf("want %v got %v", want, merged)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Fatalf("want %v got %v", want, merged)
		}
	}
}

func TestRunWithContentionRetry(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := runWithContentionRetry(ctx, 2, "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("want success after 3 attempts, got %d %v", attempts, err)
	}

	attempts = 0
	err = runWithContentionRetry(ctx, 2, "test", func() error {
		attempts++
		return ErrInsufficientStock
	})
	if !errors.Is(err, ErrInsufficientStock) || attempts != 1 {
		t.Fatalf("domain errors must not be retried, got %d %v", attempts, err)
	}

	attempts = 0
	err = runWithContentionRetry(ctx, 1, "test", func() error {
		attempts++
		return errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)")
	})
	if err == nil || attempts != 2 {
		t.Fatalf("want failure after 2 attempts, got %d %v", attempts, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = runWithContentionRetry(cancelled, 3, "test", func() error {
		return errors.New("deadlock detected")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context should stop retries, got %v", err)
	}
}
