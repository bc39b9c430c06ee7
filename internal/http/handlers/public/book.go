package public

import (
	"strings"

	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListBooks 上架图书列表，支持书名/作者搜索
func (h *Handler) ListBooks(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	books, total, err := h.BookService.ListPublic(c.Request.Context(), repository.BookListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.book_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, books, response.NewPagination(page, pageSize, total))
}

// GetBook 图书详情
func (h *Handler) GetBook(c *gin.Context) {
	bookID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	book, err := h.BookService.GetPublic(c.Request.Context(), bookID)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.book_fetch_failed")
		return
	}
	response.Success(c, book)
}
