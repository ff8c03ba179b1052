package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTMLStripsScripts(t *testing.T) {
	html, err := ToHTML("# Title\n\nHello **world**<script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<strong>world</strong>")
	assert.NotContains(t, html, "script")

	_, err = ToHTML("   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Title Hello world", PlainText("# Title\n\nHello *world*"))
	assert.Equal(t, "", PlainText(""))
}

func TestExcerpt(t *testing.T) {
	short := "short content"
	assert.Equal(t, short, Excerpt(short))

	exact := strings.Repeat("a", 500)
	assert.Equal(t, exact, Excerpt(exact))

	long := strings.Repeat("é", 501)
	got := Excerpt(long)
	assert.Equal(t, 500, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("é", 497), strings.TrimSuffix(got, "..."))
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

	assert.Equal(t, "1 min read", ReadingTime(""))
	assert.Equal(t, "1 min read", ReadingTime(words(50)))
	assert.Equal(t, "1 min read", ReadingTime(words(200)))
	// 半数向偶数舍入：2.5 -> 2
	assert.Equal(t, "2 min read", ReadingTime(words(500)))
	// 3.5 -> 4
	assert.Equal(t, "4 min read", ReadingTime(words(700)))
	assert.Equal(t, "3 min read", ReadingTime(words(601)))
}
