package markdown

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

const (
	// ExcerptMaxLen 摘要最大长度（字符）
	ExcerptMaxLen = 500
	// WordsPerMinute 阅读速度
	WordsPerMinute = 200
)

var (
	ErrEmptyContent = errors.New("内容不能为空")

	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// ToHTML 将 Markdown 内容转换为 HTML，移除脚本并按 UGC 策略清洗
func ToHTML(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	unsafe := blackfriday.MarkdownCommon([]byte(content))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(unsafe)))
	if err != nil {
		return "", fmt.Errorf("解析 HTML 文档失败: %w", err)
	}
	doc.Find("script").Remove()

	html, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("生成 HTML 失败: %w", err)
	}
	return ugcPolicy.Sanitize(html), nil
}

// PlainText 返回 Markdown 渲染后的纯文本，用于搜索索引
func PlainText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	unsafe := blackfriday.MarkdownCommon([]byte(content))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(unsafe)))
	if err != nil {
		return StripTags(content)
	}
	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// StripTags 去掉所有 HTML 标签
func StripTags(s string) string {
	return strictPolicy.Sanitize(s)
}

// Excerpt 超过 500 字符时截取前 497 字符并追加 "..."
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) > ExcerptMaxLen {
		return string(r[:ExcerptMaxLen-3]) + "..."
	}
	return content
}

// WordCount 以空白分词统计词数
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// ReadingMinutes 预计阅读分钟数，至少 1 分钟
func ReadingMinutes(content string) int {
	minutes := int(math.RoundToEven(float64(WordCount(content)) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// ReadingTime 形如 "3 min read"
func ReadingTime(content string) string {
	return fmt.Sprintf("%d min read", ReadingMinutes(content))
}
