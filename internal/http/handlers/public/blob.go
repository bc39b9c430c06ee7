package public

import (
	"path/filepath"

	"github.com/shelfwise/bookstore/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ServeBlob 校验签名后返回本地文件
func (h *Handler) ServeBlob(c *gin.Context) {
	key, err := h.BlobStore.Verify(c.Param("key"), c.Query("expires"), c.Query("sig"))
	if err != nil {
		respondMapped(c, err, response.CodeForbidden, "error.blob_signature_invalid")
		return
	}
	c.File(filepath.Join(h.BlobStore.Dir(), filepath.FromSlash(key)))
}
