// Package content 负责评论内容的清洗、Markdown 渲染与 HTML 白名单过滤。
package content

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

var scriptPattern = regexp.MustCompile(`<script[\s\S]*?</script>`)

// StripScripts 删除 <script>...</script> 片段
func StripScripts(s string) string {
	return scriptPattern.ReplaceAllString(s, "")
}

// NewPolicy 在 UGC 白名单基础上放开代码块、样式容器和图片属性
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "span", "pre", "div")
	p.AllowAttrs("style").OnElements("span", "div", "img")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	return p
}

// Sanitizer 评论内容处理器
type Sanitizer struct {
	policy *bluemonday.Policy
	words  *WordFilter
}

// NewSanitizer 创建内容处理器，words 可为 nil
func NewSanitizer(words *WordFilter) *Sanitizer {
	return &Sanitizer{
		policy: NewPolicy(),
		words:  words,
	}
}

// Clean 去除脚本并屏蔽敏感词，返回值作为 content_text 保存
func (s *Sanitizer) Clean(raw string) string {
	return s.words.Mask(StripScripts(raw))
}

// Render 将清洗后的 Markdown 渲染为安全的 HTML
func (s *Sanitizer) Render(cleaned string) string {
	if strings.TrimSpace(cleaned) == "" {
		return ""
	}
	unsafe := blackfriday.MarkdownCommon([]byte(cleaned))
	return string(s.policy.SanitizeBytes(unsafe))
}

// Process 依次执行 Clean 与 Render
func (s *Sanitizer) Process(raw string) (text, html string) {
	text = s.Clean(raw)
	return text, s.Render(text)
}
