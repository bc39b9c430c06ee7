package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
)

// ErrBlobSignatureInvalid 签名无效或已过期
var ErrBlobSignatureInvalid = errors.New("blob signature invalid")

// BlobStore 对象存储签名地址
type BlobStore interface {
	SignedURL(key string) (string, error)
}

// LocalBlobStore 本地目录存储，使用 HMAC-SHA256 签发带过期时间的访问地址
type LocalBlobStore struct {
	baseURL string
	dir     string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewLocalBlobStore 创建本地存储
func NewLocalBlobStore(cfg config.BlobConfig) *LocalBlobStore {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "/uploads"
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "uploads"
	}
	return &LocalBlobStore{
		baseURL: baseURL,
		dir:     dir,
		secret:  []byte(cfg.Secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Dir 本地存储目录
func (s *LocalBlobStore) Dir() string {
	return s.dir
}

// SignedURL 生成签名地址，空 key 返回空字符串
func (s *LocalBlobStore) SignedURL(key string) (string, error) {
	cleaned, err := cleanBlobKey(key)
	if err != nil || cleaned == "" {
		return "", err
	}
	expires := s.now().Add(s.ttl).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("sig", s.sign(cleaned, expires))
	return fmt.Sprintf("%s/%s?%s", s.baseURL, cleaned, query.Encode()), nil
}

// Verify 校验签名与过期时间，返回规范化后的 key
func (s *LocalBlobStore) Verify(key, expiresRaw, sig string) (string, error) {
	cleaned, err := cleanBlobKey(key)
	if err != nil || cleaned == "" {
		return "", ErrBlobSignatureInvalid
	}
	expires, err := strconv.ParseInt(strings.TrimSpace(expiresRaw), 10, 64)
	if err != nil || s.now().Unix() > expires {
		return "", ErrBlobSignatureInvalid
	}
	expected := s.sign(cleaned, expires)
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(sig))) {
		return "", ErrBlobSignatureInvalid
	}
	return cleaned, nil
}

func (s *LocalBlobStore) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// cleanBlobKey 规范化 key，拒绝越级路径
func cleanBlobKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", nil
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrBlobSignatureInvalid
	}
	return cleaned, nil
}
