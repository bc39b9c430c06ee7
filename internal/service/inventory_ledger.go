package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"

	"gorm.io/gorm"
)

const defaultContentionRetries = 3

// LedgerLine 库存台账批量操作行
type LedgerLine struct {
	BookID   uint
	Quantity int
}

// InventoryLedger 库存台账：available / reserved / sold 三段式流转
type InventoryLedger struct {
	bookRepo repository.BookRepository
}

// NewInventoryLedger 创建库存台账
func NewInventoryLedger(bookRepo repository.BookRepository) *InventoryLedger {
	return &InventoryLedger{bookRepo: bookRepo}
}

// WithTx 绑定事务
func (l *InventoryLedger) WithTx(tx *gorm.DB) *InventoryLedger {
	return &InventoryLedger{bookRepo: l.bookRepo.WithTx(tx)}
}

// Reserve 占用库存，available 不足时返回 ErrInsufficientStock
func (l *InventoryLedger) Reserve(ctx context.Context, bookID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	repo := l.bookRepo.WithContext(ctx)
	affected, err := repo.ReserveStock(bookID, quantity)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	book, err := repo.GetByID(bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return ErrBookNotFound
	}
	return ErrInsufficientStock
}

// Release 释放库存，reserved 不足时仅记录告警
func (l *InventoryLedger) Release(ctx context.Context, bookID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	affected, err := l.bookRepo.WithContext(ctx).ReleaseStock(bookID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Warnw("inventory_release_skipped", "book_id", bookID, "quantity", quantity)
	}
	return nil
}

// ReleaseLines 批量释放库存
func (l *InventoryLedger) ReleaseLines(ctx context.Context, lines []LedgerLine) error {
	for _, line := range mergeLedgerLines(lines) {
		if err := l.Release(ctx, line.BookID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Commit 支付确认后批量确认售出：reserved -> sold
func (l *InventoryLedger) Commit(ctx context.Context, lines []LedgerLine) error {
	repo := l.bookRepo.WithContext(ctx)
	for _, line := range mergeLedgerLines(lines) {
		affected, err := repo.CommitStock(line.BookID, line.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			logger.Warnw("inventory_commit_mismatch", "book_id", line.BookID, "quantity", line.Quantity)
		}
	}
	return nil
}

// mergeLedgerLines 合并同一本书的数量并按 ID 排序，保证加锁顺序一致
func mergeLedgerLines(lines []LedgerLine) []LedgerLine {
	totals := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.BookID == 0 || line.Quantity <= 0 {
			continue
		}
		totals[line.BookID] += line.Quantity
	}
	merged := make([]LedgerLine, 0, len(totals))
	for bookID, quantity := range totals {
		merged = append(merged, LedgerLine{BookID: bookID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].BookID < merged[j].BookID })
	return merged
}

func ledgerLinesFromOrderItems(items []models.OrderItem) []LedgerLine {
	lines := make([]LedgerLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, LedgerLine{BookID: item.BookID, Quantity: item.Quantity})
	}
	return lines
}

// isContentionError 判断是否为可重试的锁冲突
func isContentionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"could not serialize access",
		"deadlock detected",
		"sqlstate 40001",
		"sqlstate 40p01",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// runWithContentionRetry 对锁冲突做有限次重试，业务错误直接返回
func runWithContentionRetry(ctx context.Context, maxRetries int, op string, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = defaultContentionRetries
	}
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !isContentionError(err) {
			return err
		}
		logger.Warnw("storage_contention_retry", "op", op, "attempt", attempt+1, "error", err)
		backoff := time.Duration(attempt+1) * 20 * time.Millisecond
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return err
}
