// Package objectstore 提供备份文件使用的对象存储客户端。
package objectstore

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotConfigured 存储配置不完整
var ErrNotConfigured = errors.New("object store is not configured")

// Object 对象元信息
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Store 对象存储接口
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List 返回前缀匹配的对象，按最后修改时间倒序
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

func sortByLastModified(objects []Object) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}
