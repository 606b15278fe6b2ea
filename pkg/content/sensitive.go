package content

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/importcjj/sensitive"
)

// WordFilter 敏感词屏蔽，nil 或空词表时原样返回
type WordFilter struct {
	filter *sensitive.Filter
	count  int
}

// NewWordFilter 使用给定词表创建过滤器
func NewWordFilter(words ...string) *WordFilter {
	w := &WordFilter{filter: sensitive.New()}
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		w.filter.AddWord(word)
		w.count++
	}
	return w
}

// LoadWordFilter 从文件加载词表，每行一个，# 开头为注释
func LoadWordFilter(path string) (*WordFilter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开敏感词文件失败: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取敏感词文件出错: %w", err)
	}
	return NewWordFilter(words...), nil
}

// Len 词表大小
func (w *WordFilter) Len() int {
	if w == nil {
		return 0
	}
	return w.count
}

// Mask 将命中的敏感词替换为 *
func (w *WordFilter) Mask(text string) string {
	if w.Len() == 0 {
		return text
	}
	return w.filter.Replace(text, '*')
}
