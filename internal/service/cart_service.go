package service

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"

	"gorm.io/gorm"
)

const defaultCartUpdateRetries = 3

// CartLineView 购物车行（用于响应）
type CartLineView struct {
	BookID        uint         `json:"book_id"`
	Name          string       `json:"name"`
	UnitPrice     models.Money `json:"unit_price"`
	PriceDiscount models.Money `json:"price_discount"`
	Quantity      int          `json:"quantity"`
	IsChecked     bool         `json:"is_checked"`
	LineTotal     models.Money `json:"line_total"`
	CoverURL      string       `json:"cover_url,omitempty"`
}

// CartView 购物车视图
type CartView struct {
	CartID          uint           `json:"cart_id"`
	UserID          uint           `json:"user_id"`
	Items           []CartLineView `json:"items"`
	CheckedSubtotal models.Money   `json:"checked_subtotal"`
	CheckedCount    int            `json:"checked_count"`
	TotalQuantity   int            `json:"total_quantity"`
}

// CartServiceOptions 购物车服务参数
type CartServiceOptions struct {
	UpdateMaxRetries     int
	ContentionMaxRetries int
	CacheTTL             time.Duration
}

// CartService 购物车服务
type CartService struct {
	cartRepo  repository.CartRepository
	bookRepo  repository.BookRepository
	ledger    *InventoryLedger
	blobStore BlobStore
	opts      CartServiceOptions
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, bookRepo repository.BookRepository, ledger *InventoryLedger, blobStore BlobStore, opts CartServiceOptions) *CartService {
	if opts.UpdateMaxRetries <= 0 {
		opts.UpdateMaxRetries = defaultCartUpdateRetries
	}
	return &CartService{
		cartRepo:  cartRepo,
		bookRepo:  bookRepo,
		ledger:    ledger,
		blobStore: blobStore,
		opts:      opts,
	}
}

// AddItem 加入购物车：已有行累加数量，新行快照书名与价格，同一事务内占用库存
func (s *CartService) AddItem(ctx context.Context, userID, bookID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	book, err := s.bookRepo.WithContext(ctx).GetByID(bookID)
	if err != nil {
		return wrapStorage(err)
	}
	if book == nil || !book.IsActive {
		return ErrBookNotFound
	}
	if book.AvailableQuantity < quantity {
		return ErrInsufficientStock
	}

	err = runWithContentionRetry(ctx, s.opts.ContentionMaxRetries, "cart_add_item", func() error {
		return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cartRepo := s.cartRepo.WithTx(tx)
			cart, err := cartRepo.GetOrCreateByUser(userID)
			if err != nil {
				return err
			}
			if err := s.ledger.WithTx(tx).Reserve(ctx, bookID, quantity); err != nil {
				return err
			}
			affected, err := cartRepo.IncrementItemQuantity(cart.ID, bookID, quantity)
			if err != nil || affected > 0 {
				return err
			}
			affected, err = cartRepo.CreateItem(&models.CartItem{
				CartID:        cart.ID,
				BookID:        bookID,
				Name:          book.Title,
				UnitPrice:     book.Price,
				PriceDiscount: book.PriceDiscount,
				Quantity:      quantity,
				IsChecked:     true,
			})
			if err != nil || affected > 0 {
				return err
			}
			// 并发插入同一行时回退为累加
			_, err = cartRepo.IncrementItemQuantity(cart.ID, bookID, quantity)
			return err
		})
	})
	if err != nil {
		return wrapStorage(err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// UpdateItem 修改行数量：增加部分占用库存，减少部分释放库存，数量 <= 0 等同删除
func (s *CartService) UpdateItem(ctx context.Context, userID, bookID uint, newQuantity int) error {
	if newQuantity <= 0 {
		return s.RemoveItem(ctx, userID, bookID)
	}
	err := s.retryOnConflict(ctx, "cart_update_item", func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, item, err := s.loadItem(cartRepo, userID, bookID)
		if err != nil {
			return err
		}
		if item.Quantity == newQuantity {
			return nil
		}
		affected, err := cartRepo.UpdateItemQuantity(cart.ID, bookID, item.Quantity, newQuantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCartItemConflict
		}
		ledger := s.ledger.WithTx(tx)
		delta := newQuantity - item.Quantity
		if delta > 0 {
			return ledger.Reserve(ctx, bookID, delta)
		}
		return ledger.Release(ctx, bookID, -delta)
	})
	if err != nil {
		return wrapStorage(err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// RemoveItem 删除行并释放其占用的库存
func (s *CartService) RemoveItem(ctx context.Context, userID, bookID uint) error {
	err := s.retryOnConflict(ctx, "cart_remove_item", func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, item, err := s.loadItem(cartRepo, userID, bookID)
		if err != nil {
			return err
		}
		affected, err := cartRepo.DeleteItem(cart.ID, bookID, item.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCartItemConflict
		}
		return s.ledger.WithTx(tx).Release(ctx, bookID, item.Quantity)
	})
	if err != nil {
		return wrapStorage(err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// Clear 清空购物车并释放全部库存（放弃购物车）
func (s *CartService) Clear(ctx context.Context, userID uint) error {
	err := s.retryOnConflict(ctx, "cart_clear", func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := cartRepo.GetByUser(userID)
		if err != nil || cart == nil {
			return err
		}
		items, err := cartRepo.ListItems(cart.ID)
		if err != nil {
			return err
		}
		ledger := s.ledger.WithTx(tx)
		for _, item := range items {
			affected, err := cartRepo.DeleteItem(cart.ID, item.BookID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrCartItemConflict
			}
			if err := ledger.Release(ctx, item.BookID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapStorage(err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// ClearCheckedAfterCheckout 结算后删除已勾选行，库存已在加购时占用，此处不回补
func (s *CartService) ClearCheckedAfterCheckout(tx *gorm.DB, cartID uint) (int64, error) {
	return s.cartRepo.WithTx(tx).DeleteCheckedItems(cartID)
}

// SetChecked 设置单行勾选状态
func (s *CartService) SetChecked(ctx context.Context, userID, bookID uint, checked bool) error {
	cartRepo := s.cartRepo.WithContext(ctx)
	cart, item, err := s.loadItem(cartRepo, userID, bookID)
	if err != nil {
		return wrapStorage(err)
	}
	if item.IsChecked != checked {
		if _, err := cartRepo.SetItemChecked(cart.ID, bookID, checked); err != nil {
			return wrapStorage(err)
		}
	}
	s.invalidate(ctx, userID)
	return nil
}

// SetAllChecked 设置全部行勾选状态
func (s *CartService) SetAllChecked(ctx context.Context, userID uint, checked bool) error {
	cartRepo := s.cartRepo.WithContext(ctx)
	cart, err := cartRepo.GetByUser(userID)
	if err != nil {
		return wrapStorage(err)
	}
	if cart == nil {
		return nil
	}
	if _, err := cartRepo.SetAllChecked(cart.ID, checked); err != nil {
		return wrapStorage(err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// GetCart 获取购物车视图，优先读取缓存
func (s *CartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	var cached CartView
	if hit, err := cache.GetCartView(ctx, userID, &cached); err != nil {
		logger.Warnw("cart_cache_get_failed", "user_id", userID, "error", err)
	} else if hit {
		return &cached, nil
	}

	cartRepo := s.cartRepo.WithContext(ctx)
	cart, err := cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	items, err := cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	view := s.buildView(cart, items)
	if err := cache.SetCartView(ctx, userID, view, s.opts.CacheTTL); err != nil {
		logger.Warnw("cart_cache_set_failed", "user_id", userID, "error", err)
	}
	return view, nil
}

func (s *CartService) buildView(cart *models.Cart, items []models.CartItem) *CartView {
	view := &CartView{
		CartID:          cart.ID,
		UserID:          cart.UserID,
		Items:           make([]CartLineView, 0, len(items)),
		CheckedSubtotal: models.ZeroMoney(),
	}
	for _, item := range items {
		line := CartLineView{
			BookID:        item.BookID,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			PriceDiscount: item.PriceDiscount,
			Quantity:      item.Quantity,
			IsChecked:     item.IsChecked,
			LineTotal:     item.LineTotal(),
		}
		if item.Book != nil && s.blobStore != nil {
			url, err := s.blobStore.SignedURL(item.Book.ImageCover)
			if err != nil {
				logger.Warnw("cart_cover_sign_failed", "book_id", item.BookID, "error", err)
			}
			line.CoverURL = url
		}
		view.Items = append(view.Items, line)
		view.TotalQuantity += item.Quantity
		if item.IsChecked {
			view.CheckedCount++
			view.CheckedSubtotal = view.CheckedSubtotal.Add(line.LineTotal)
		}
	}
	return view
}

// loadItem 读取用户购物车及指定行，任一不存在返回 ErrCartItemNotFound
func (s *CartService) loadItem(cartRepo repository.CartRepository, userID, bookID uint) (*models.Cart, *models.CartItem, error) {
	cart, err := cartRepo.GetByUser(userID)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, ErrCartItemNotFound
	}
	item, err := cartRepo.GetItem(cart.ID, bookID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, ErrCartItemNotFound
	}
	return cart, item, nil
}

// retryOnConflict 在事务中执行条件更新，行被并发修改时重新读取后重试
func (s *CartService) retryOnConflict(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.UpdateMaxRetries; attempt++ {
		err = runWithContentionRetry(ctx, s.opts.ContentionMaxRetries, op, func() error {
			return models.DB.WithContext(ctx).Transaction(fn)
		})
		if !errors.Is(err, ErrCartItemConflict) {
			return err
		}
		logger.Debugw("cart_item_conflict_retry", "op", op, "attempt", attempt+1)
	}
	return err
}

func (s *CartService) invalidate(ctx context.Context, userID uint) {
	if err := cache.DelCartView(ctx, userID); err != nil {
		logger.Warnw("cart_cache_invalidate_failed", "user_id", userID, "error", err)
	}
}
