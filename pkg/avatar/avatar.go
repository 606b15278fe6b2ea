// Package avatar 根据邮箱生成头像地址。
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// DefaultPrefix 默认头像服务
const DefaultPrefix = "https://cravatar.cn/avatar/"

// URL 返回头像地址。prefix 中包含 {hash} 时按模板替换，否则直接拼接邮箱哈希。
func URL(email, prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	hash := hex.EncodeToString(sum[:])
	if strings.Contains(prefix, "{hash}") {
		return strings.ReplaceAll(prefix, "{hash}", hash)
	}
	if !strings.HasSuffix(prefix, "/") && !strings.HasSuffix(prefix, "=") {
		prefix += "/"
	}
	return prefix + hash
}
