package content

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// PlainText 提取 HTML 中的纯文本
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt 纯文本摘要，超过 n 个字符时截断并追加省略号
func Excerpt(html string, n int) string {
	text := []rune(PlainText(html))
	if len(text) <= n {
		return string(text)
	}
	return string(text[:n]) + "…"
}

// HTMLToMarkdown 将 HTML 转回 Markdown，导入只有 content_html 的旧数据时使用
func HTMLToMarkdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	converter := md.NewConverter("", true, nil)
	return converter.ConvertString(html)
}
