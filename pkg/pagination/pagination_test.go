package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNormalizesBounds(t *testing.T) {
	p := New(0, 0, 10, "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)

	p = New(3, 500, 10, "")
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, 200, p.Offset())
	assert.Equal(t, MaxPageSize, p.Limit())

	p = New(math.MaxInt/2, 4, 10, "")
	assert.Equal(t, MaxPage, p.Page)
	assert.Greater(t, p.Offset(), 0)
	p = New(math.MaxInt, MaxPageSize, 10, "")
	assert.Greater(t, p.Offset(), 0)
}

func TestOrderClause(t *testing.T) {
	allowed := map[string]string{"title": "books.title", "publication_year": "books.publication_year"}

	assert.Equal(t, "books.publication_year DESC", New(1, 10, 10, "-publication_year").OrderClause(allowed, "title"))
	assert.Equal(t, "books.title ASC", New(1, 10, 10, "title").OrderClause(allowed, "title"))
	// 非白名单字段回退
	assert.Equal(t, "books.title ASC", New(1, 10, 10, "password; DROP TABLE").OrderClause(allowed, "title"))
	assert.Equal(t, "books.title ASC", New(1, 10, 10, "").OrderClause(allowed, "title"))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
}
