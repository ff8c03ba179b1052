package service

import (
	"strings"

	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern 生成不区分大小写的子串匹配模式
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// likeClause 单列匹配条件，配合 likePattern 使用
func likeClause(col string) string {
	return "LOWER(" + col + ") LIKE ? ESCAPE '!'"
}

// searchScope 在多个字段上做 OR 子串匹配，term 为空时不加条件
func searchScope(term string, cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(cols) == 0 {
			return db
		}
		pattern := likePattern(term)
		clauses := make([]string, 0, len(cols))
		args := make([]interface{}, 0, len(cols))
		for _, col := range cols {
			clauses = append(clauses, likeClause(col))
			args = append(args, pattern)
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// paginate 分页作用域
func paginate(p pagination.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit())
	}
}
