package service

import (
	"context"

	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"
)

// BookView 图书详情（封面为签名地址）
type BookView struct {
	models.Book
	CoverURL string `json:"cover_url,omitempty"`
}

// BookService 图书目录服务
type BookService struct {
	bookRepo  repository.BookRepository
	blobStore BlobStore
}

// NewBookService 创建图书服务
func NewBookService(bookRepo repository.BookRepository, blobStore BlobStore) *BookService {
	return &BookService{bookRepo: bookRepo, blobStore: blobStore}
}

// GetPublic 获取上架图书详情
func (s *BookService) GetPublic(ctx context.Context, id uint) (*BookView, error) {
	book, err := s.bookRepo.WithContext(ctx).GetByID(id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if book == nil || !book.IsActive {
		return nil, ErrBookNotFound
	}
	view := s.toView(*book)
	return &view, nil
}

// ListPublic 上架图书列表，支持书名/作者模糊搜索
func (s *BookService) ListPublic(ctx context.Context, filter repository.BookListFilter) ([]BookView, int64, error) {
	filter.OnlyActive = true
	books, total, err := s.bookRepo.WithContext(ctx).List(filter)
	if err != nil {
		return nil, 0, wrapStorage(err)
	}
	views := make([]BookView, 0, len(books))
	for _, book := range books {
		views = append(views, s.toView(book))
	}
	return views, total, nil
}

func (s *BookService) toView(book models.Book) BookView {
	view := BookView{Book: book}
	if s.blobStore == nil {
		return view
	}
	url, err := s.blobStore.SignedURL(book.ImageCover)
	if err != nil {
		logger.Warnw("book_cover_sign_failed", "book_id", book.ID, "error", err)
		return view
	}
	view.CoverURL = url
	return view
}
