package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "Robert Tables", Name(`  Robert'; Tables<> `))
	assert.Equal(t, "plain", Name("plain"))
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", Email("  Alice@Example.COM "))
}

func TestBio(t *testing.T) {
	assert.Equal(t, "hello world", Bio("hello <script>alert('x')</script>world"))
	assert.Equal(t, "bold", Bio("<b>bold</b>"))
	assert.Len(t, []rune(Bio(strings.Repeat("x", 800))), BioMaxLen)
}

func TestTextKeepsPlainPunctuation(t *testing.T) {
	assert.Equal(t, "Tom & Jerry's", Text("Tom & Jerry's", 0))
	assert.Equal(t, "abc", Text("<i>abcdef</i>", 3))
}
