// Package pagination 分页与排序参数
package pagination

import (
	"math"
	"strings"
)

const (
	// DefaultPage 默认页码
	DefaultPage = 1
	// MaxPageSize 单页最大条数
	MaxPageSize = 100
	// MaxPage 页码上限，保证偏移量不溢出
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Params 分页排序参数
type Params struct {
	Page     int
	PageSize int
	// Ordering 形如 "title" 或 "-published_at"
	Ordering string
}

// New 规范化分页参数
func New(page, pageSize, defaultSize int, ordering string) Params {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize, Ordering: strings.TrimSpace(ordering)}
}

// Limit 每页条数
func (p Params) Limit() int { return p.PageSize }

// Offset 偏移量
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// OrderClause 根据白名单生成排序子句，非法字段回退到 fallback
func (p Params) OrderClause(allowed map[string]string, fallback string) string {
	if clause, ok := orderClause(p.Ordering, allowed); ok {
		return clause
	}
	clause, _ := orderClause(fallback, allowed)
	return clause
}

func orderClause(ordering string, allowed map[string]string) (string, bool) {
	if ordering == "" {
		return "", false
	}
	dir := "ASC"
	key := ordering
	if strings.HasPrefix(ordering, "-") {
		dir = "DESC"
		key = ordering[1:]
	}
	col, ok := allowed[key]
	if !ok {
		return "", false
	}
	return col + " " + dir, true
}

// TotalPages 计算总页数
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
