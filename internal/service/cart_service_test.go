package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/models"

	"github.com/alicebob/miniredis/v2"
)

func TestAddItemRejectsOverdraw(t *testing.T) {
	f := newServiceFixture(t, "cart_overdraw", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "Scarce", 20, 3)
	user := createServiceUser(t, f.db, "overdraw@example.com", 0)

	if err := f.cart.AddItem(ctx, user.ID, book.ID, 5); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
	got := reloadServiceBook(t, f.db, book.ID)
	if got.AvailableQuantity != 3 || got.ReservedQuantity != 0 {
		t.Fatalf("failed add must not change stock, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
	if n := countCartItems(t, f.db, user.ID); n != 0 {
		t.Fatalf("failed add must not create a line, got %d", n)
	}
}

func TestAddItemValidation(t *testing.T) {
	f := newServiceFixture(t, "cart_add_validation", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "Hidden", 20, 3)
	if err := f.db.Model(book).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate book failed: %v", err)
	}

	if err := f.cart.AddItem(ctx, 1, book.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity want ErrInvalidQuantity got %v", err)
	}
	if err := f.cart.AddItem(ctx, 1, book.ID, 1); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("inactive book want ErrBookNotFound got %v", err)
	}
	if err := f.cart.AddItem(ctx, 1, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing book want ErrNotFound got %v", err)
	}
}

func TestAddItemAccumulatesAndSnapshots(t *testing.T) {
	f := newServiceFixture(t, "cart_accumulate", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "Snapshot", 30, 10)
	user := createServiceUser(t, f.db, "acc@example.com", 0)

	if err := f.cart.AddItem(ctx, user.ID, book.ID, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := f.db.Model(book).Update("price", models.NewMoneyFromInt(99)).Error; err != nil {
		t.Fatalf("reprice failed: %v", err)
	}
	if err := f.cart.AddItem(ctx, user.ID, book.ID, 3); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	view, err := f.cart.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 5 {
		t.Fatalf("want one line with quantity 5, got %+v", view.Items)
	}
	assertMoney(t, "unit price snapshot", view.Items[0].UnitPrice, "30")
	assertMoney(t, "checked subtotal", view.CheckedSubtotal, "150")
	if !strings.HasPrefix(view.Items[0].CoverURL, "/uploads/covers/Snapshot.jpg?") {
		t.Fatalf("cover should be a signed url, got %q", view.Items[0].CoverURL)
	}
	got := reloadServiceBook(t, f.db, book.ID)
	if got.AvailableQuantity != 5 || got.ReservedQuantity != 5 {
		t.Fatalf("want available=5 reserved=5 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestAddThenRemoveRestoresStock(t *testing.T) {
	f := newServiceFixture(t, "cart_add_remove", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "RoundTrip", 20, 7)
	user := createServiceUser(t, f.db, "rt@example.com", 0)

	if err := f.cart.AddItem(ctx, user.ID, book.ID, 4); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.cart.RemoveItem(ctx, user.ID, book.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	got := reloadServiceBook(t, f.db, book.ID)
	if got.AvailableQuantity != 7 || got.ReservedQuantity != 0 {
		t.Fatalf("stock should be restored, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
	if n := countCartItems(t, f.db, user.ID); n != 0 {
		t.Fatalf("line should be gone, got %d", n)
	}
	if err := f.cart.RemoveItem(ctx, user.ID, book.ID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("second remove want ErrCartItemNotFound got %v", err)
	}
	// 删除后可再次加入同一本书
	if err := f.cart.AddItem(ctx, user.ID, book.ID, 1); err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
}

func TestUpdateItemAdjustsReservation(t *testing.T) {
	f := newServiceFixture(t, "cart_update", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "Adjust", 20, 6)
	user := createServiceUser(t, f.db, "upd@example.com", 0)

	if err := f.cart.AddItem(ctx, user.ID, book.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.cart.UpdateItem(ctx, user.ID, book.ID, 5); err != nil {
		t.Fatalf("increase failed: %v", err)
	}
	if got := reloadServiceBook(t, f.db, book.ID); got.AvailableQuantity != 1 || got.ReservedQuantity != 5 {
		t.Fatalf("after increase want 1/5 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
	if err := f.cart.UpdateItem(ctx, user.ID, book.ID, 9); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("increase beyond stock want ErrInsufficientStock got %v", err)
	}
	var item models.CartItem
	if err := f.db.Where("book_id = ?", book.ID).First(&item).Error; err != nil {
		t.Fatalf("load line failed: %v", err)
	}
	if item.Quantity != 5 {
		t.Fatalf("failed increase must roll back the line, got %d", item.Quantity)
	}
	if err := f.cart.UpdateItem(ctx, user.ID, book.ID, 1); err != nil {
		t.Fatalf("decrease failed: %v", err)
	}
	if got := reloadServiceBook(t, f.db, book.ID); got.AvailableQuantity != 5 || got.ReservedQuantity != 1 {
		t.Fatalf("after decrease want 5/1 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
	if err := f.cart.UpdateItem(ctx, user.ID, book.ID, 0); err != nil {
		t.Fatalf("update to zero failed: %v", err)
	}
	if got := reloadServiceBook(t, f.db, book.ID); got.AvailableQuantity != 6 || got.ReservedQuantity != 0 {
		t.Fatalf("update to zero should release everything, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
	if err := f.cart.UpdateItem(ctx, user.ID, book.ID, 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("updating a removed line want ErrCartItemNotFound got %v", err)
	}
}

func TestClearReleasesAllLines(t *testing.T) {
	f := newServiceFixture(t, "cart_clear", CheckoutServiceOptions{})
	ctx := context.Background()
	first := createServiceBook(t, f.db, "ClearA", 10, 4)
	second := createServiceBook(t, f.db, "ClearB", 10, 4)
	user := createServiceUser(t, f.db, "clear@example.com", 0)

	for _, book := range []*models.Book{first, second} {
		if err := f.cart.AddItem(ctx, user.ID, book.ID, 3); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	if err := f.cart.Clear(ctx, user.ID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	for _, book := range []*models.Book{first, second} {
		if got := reloadServiceBook(t, f.db, book.ID); got.AvailableQuantity != 4 || got.ReservedQuantity != 0 {
			t.Fatalf("book %d should be fully released, got %d/%d", book.ID, got.AvailableQuantity, got.ReservedQuantity)
		}
	}
	if n := countCartItems(t, f.db, user.ID); n != 0 {
		t.Fatalf("cart should be empty, got %d", n)
	}
	if err := f.cart.Clear(ctx, 424242); err != nil {
		t.Fatalf("clearing a missing cart should be a no-op, got %v", err)
	}
}

func TestSetAllCheckedIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, "cart_check_all", CheckoutServiceOptions{})
	ctx := context.Background()
	first := createServiceBook(t, f.db, "CheckA", 10, 4)
	second := createServiceBook(t, f.db, "CheckB", 15, 4)
	user := createServiceUser(t, f.db, "check@example.com", 0)

	for _, book := range []*models.Book{first, second} {
		if err := f.cart.AddItem(ctx, user.ID, book.ID, 1); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := f.cart.SetAllChecked(ctx, user.ID, false); err != nil {
			t.Fatalf("uncheck all failed: %v", err)
		}
		view, err := f.cart.GetCart(ctx, user.ID)
		if err != nil {
			t.Fatalf("get cart failed: %v", err)
		}
		if view.CheckedCount != 0 || !view.CheckedSubtotal.IsZero() || len(view.Items) != 2 {
			t.Fatalf("round %d: want nothing checked, got %+v", i, view)
		}
	}
	if err := f.cart.SetAllChecked(ctx, user.ID, true); err != nil {
		t.Fatalf("check all failed: %v", err)
	}
	view, err := f.cart.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.CheckedCount != 2 {
		t.Fatalf("want 2 checked got %d", view.CheckedCount)
	}
	assertMoney(t, "checked subtotal", view.CheckedSubtotal, "25")
	if got := reloadServiceBook(t, f.db, first.ID); got.ReservedQuantity != 1 {
		t.Fatalf("checking must not touch stock, got reserved %d", got.ReservedQuantity)
	}
	if err := f.cart.SetChecked(ctx, user.ID, 9999, true); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("missing line want ErrCartItemNotFound got %v", err)
	}
}

func TestConcurrentAddItemNeverOversells(t *testing.T) {
	f := newServiceFixture(t, "cart_concurrent_add", CheckoutServiceOptions{})
	ctx := context.Background()
	book := createServiceBook(t, f.db, "Hot", 20, 5)

	const workers = 12
	users := make([]uint, 0, workers)
	for i := 0; i < workers; i++ {
		users = append(users, createServiceUser(t, f.db, fmt.Sprintf("hot%d@example.com", i), 0).ID)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, userID := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			err := f.cart.AddItem(ctx, userID, book.ID, 1)
			if err != nil && !errors.Is(err, ErrInsufficientStock) {
				t.Errorf("unexpected add error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(userID)
	}
	wg.Wait()

	if succeeded != 5 {
		t.Fatalf("exactly 5 reservations should succeed, got %d", succeeded)
	}
	got := reloadServiceBook(t, f.db, book.ID)
	if got.AvailableQuantity != 0 || got.ReservedQuantity != 5 {
		t.Fatalf("want available=0 reserved=5 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestGetCartUsesCacheAndInvalidates(t *testing.T) {
	f := newServiceFixture(t, "cart_cache", CheckoutServiceOptions{})
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("parse miniredis port failed: %v", err)
	}
	if err := cache.InitRedis(&config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port, Prefix: "svc"}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	book := createServiceBook(t, f.db, "Cached", 10, 10)
	user := createServiceUser(t, f.db, "cache@example.com", 0)
	if err := f.cart.AddItem(ctx, user.ID, book.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if _, err := f.cart.GetCart(ctx, user.ID); err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	key := fmt.Sprintf("svc:cart:view:%d", user.ID)
	if !mr.Exists(key) {
		t.Fatalf("cart view should be cached under %s", key)
	}

	// 直接改库后缓存仍返回旧视图
	if err := f.db.Model(&models.CartItem{}).Where("book_id = ?", book.ID).Update("quantity", 7).Error; err != nil {
		t.Fatalf("raw update failed: %v", err)
	}
	view, err := f.cart.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.Items[0].Quantity != 1 {
		t.Fatalf("cached view expected, got quantity %d", view.Items[0].Quantity)
	}

	if err := f.cart.SetAllChecked(ctx, user.ID, true); err != nil {
		t.Fatalf("check all failed: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("mutation should invalidate the cached view")
	}
	view, err = f.cart.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.Items[0].Quantity != 7 {
		t.Fatalf("fresh view expected after invalidation, got %d", view.Items[0].Quantity)
	}
}
