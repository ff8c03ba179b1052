// Package sanitize 清洗用户输入
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// BioMaxLen 个人简介最大长度
const BioMaxLen = 500

var strict = bluemonday.StrictPolicy()

// Name 去掉首尾空白以及 <>&"'; 字符
func Name(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>&"';`, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Email 小写并去掉首尾空白
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Text 去掉全部标签（脚本连同内容一起移除）并截断到 maxLen 个字符，结果为纯文本
func Text(s string, maxLen int) string {
	s = strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = string(r[:maxLen])
		}
	}
	return s
}

// Bio 清洗个人简介
func Bio(s string) string {
	return Text(s, BioMaxLen)
}
