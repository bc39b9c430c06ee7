package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// paginate 分页 scope；pageSize <= 0 时不分页
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return tx
		}
		if page < 1 {
			page = 1
		}
		return tx.Limit(pageSize).Offset((page - 1) * pageSize)
	}
}

// keywordMatch 任一列包含 keyword 即命中；postgres 下不区分大小写
func keywordMatch(keyword string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			return tx
		}
		condition, args := likeClause(dialectOf(tx), "%"+likeEscaper.Replace(keyword)+"%", columns)
		if condition == "" {
			return tx
		}
		return tx.Where(condition, args...)
	}
}

func likeClause(dialect, pattern string, columns []string) (string, []interface{}) {
	operator := "LIKE"
	if dialect == "postgres" {
		operator = "ILIKE"
	}
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		if column = strings.TrimSpace(column); column == "" {
			continue
		}
		parts = append(parts, column+" "+operator+` ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	return strings.Join(parts, " OR "), args
}

func dialectOf(tx *gorm.DB) string {
	if tx == nil || tx.Dialector == nil {
		return ""
	}
	return strings.ToLower(tx.Dialector.Name())
}

// firstOrNil 取第一条记录，不存在时返回 nil, nil
func firstOrNil[T any](query *gorm.DB, conds ...interface{}) (*T, error) {
	var row T
	err := query.First(&row, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
