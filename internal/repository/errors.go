package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var uniqueViolationMarkers = []string{
	"unique constraint",
	"duplicate key",
	"sqlstate 23505",
}

// IsUniqueViolation 判断 err 是否为唯一约束冲突；column 非空时要求错误信息提到该列
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			return column == "" || strings.Contains(msg, strings.ToLower(column))
		}
	}
	return false
}
