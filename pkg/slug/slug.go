// Package slug 生成URL友好的短标识
package slug

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// DefaultMaxLen slug 默认最大长度
const DefaultMaxLen = 250

// Make 将字符串规范化为 slug：小写，非字母数字折叠为单个 "-"，去掉首尾 "-"
func Make(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return strings.Trim(s, "-")
	}
	return strings.Trim(string(r[:n]), "-")
}

// Options 唯一性检查参数
type Options struct {
	Table       string
	Column      string
	MaxLen      int
	DefaultBase string
	// ExcludeID 更新时排除自身
	ExcludeID uint
}

func taken(db *gorm.DB, opts Options, candidate string) (bool, error) {
	q := db.Table(opts.Table).Where(fmt.Sprintf("%s = ?", opts.Column), candidate)
	if opts.ExcludeID != 0 {
		q = q.Where("id <> ?", opts.ExcludeID)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// Unique 生成在表内唯一的 slug，冲突时依次追加 -2、-3…
func Unique(db *gorm.DB, opts Options, base string) (string, error) {
	if opts.Table == "" || opts.Column == "" {
		return "", errors.New("slug: 缺少表名或字段名")
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	base = Make(base)
	if base == "" {
		base = Make(opts.DefaultBase)
	}
	if base == "" {
		base = "item"
	}
	base = cut(base, maxLen)

	ok, err := taken(db, opts, base)
	if err != nil {
		return "", err
	}
	if !ok {
		return base, nil
	}

	for i := 2; i < 10000; i++ {
		suffix := fmt.Sprintf("-%d", i)
		candidate := cut(base, maxLen-len(suffix)) + suffix
		ok, err = taken(db, opts, candidate)
		if err != nil {
			return "", err
		}
		if !ok {
			return candidate, nil
		}
	}
	return "", errors.New("slug: 无法生成唯一值")
}
