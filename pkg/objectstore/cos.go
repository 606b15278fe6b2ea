package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig 腾讯云 COS 配置
type COSConfig struct {
	BucketURL string
	SecretID  string
	SecretKey string
}

// COSClient 腾讯云 COS 实现
type COSClient struct {
	client *cos.Client
}

// NewCOSClient 创建 COS 客户端
func NewCOSClient(cfg COSConfig) (*COSClient, error) {
	if cfg.BucketURL == "" || cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	b := &cos.BaseURL{BucketURL: u}
	client := cos.NewClient(b, &http.Client{
		Timeout: 60 * time.Second,
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})
	return &COSClient{client: client}, nil
}

// Put 上传对象
func (c *COSClient) Put(ctx context.Context, key string, body []byte, contentType string) error {
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	}
	_, err := c.client.Object.Put(ctx, key, bytes.NewReader(body), opt)
	return err
}

// Get 下载对象
func (c *COSClient) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Delete 删除对象
func (c *COSClient) Delete(ctx context.Context, key string) error {
	_, err := c.client.Object.Delete(ctx, key)
	return err
}

// List 列出对象，按最后修改时间倒序
func (c *COSClient) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	marker := ""
	for {
		result, _, err := c.client.Bucket.Get(ctx, &cos.BucketGetOptions{
			Prefix:  prefix,
			Marker:  marker,
			MaxKeys: 1000,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range result.Contents {
			modified, _ := time.Parse(time.RFC3339Nano, item.LastModified)
			objects = append(objects, Object{Key: item.Key, Size: item.Size, LastModified: modified})
		}
		if !result.IsTruncated || result.NextMarker == "" {
			break
		}
		marker = result.NextMarker
	}
	sortByLastModified(objects)
	return objects, nil
}
