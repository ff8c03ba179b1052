package slug

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Hello World":              "hello-world",
		"  Go -- is   fun!  ":      "go-is-fun",
		"Django & Go: a tale":      "django-go-a-tale",
		"---":                      "",
		"Ünïcode stays":            "ünïcode-stays",
		"multiple___underscores__": "multiple-underscores",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

type entry struct {
	ID   uint
	Slug string
}

func TestUniqueAppendsSuffix(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "slug.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Table("entries").AutoMigrate(&entry{}))

	opts := Options{Table: "entries", Column: "slug"}

	s, err := Unique(db, opts, "My Post")
	require.NoError(t, err)
	assert.Equal(t, "my-post", s)
	require.NoError(t, db.Table("entries").Create(&entry{Slug: s}).Error)

	s, err = Unique(db, opts, "My Post")
	require.NoError(t, err)
	assert.Equal(t, "my-post-2", s)
	require.NoError(t, db.Table("entries").Create(&entry{Slug: s}).Error)

	s, err = Unique(db, opts, "my post")
	require.NoError(t, err)
	assert.Equal(t, "my-post-3", s)

	// 更新自身时不冲突
	opts.ExcludeID = 1
	s, err = Unique(db, opts, "My Post")
	require.NoError(t, err)
	assert.Equal(t, "my-post", s)

	s, err = Unique(db, Options{Table: "entries", Column: "slug", DefaultBase: "post"}, "!!!")
	require.NoError(t, err)
	assert.Equal(t, "post", s)
}
