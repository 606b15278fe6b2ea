package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// S3Config S3 兼容存储配置
type S3Config struct {
	Endpoint        string `json:"endpoint"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// Complete 必填项是否齐全
func (c S3Config) Complete() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// S3Client 基于 path-style 地址与 SigV4 签名的 S3 客户端
type S3Client struct {
	endpoint string
	bucket   string
	region   string
	creds    aws.Credentials
	signer   *v4.Signer
	http     *http.Client
	now      func() time.Time
}

// NewS3Client 创建客户端
func NewS3Client(cfg S3Config, httpClient *http.Client) (*S3Client, error) {
	if !cfg.Complete() {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	return &S3Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		bucket:   cfg.Bucket,
		region:   region,
		creds: aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		},
		signer: v4.NewSigner(func(o *v4.SignerOptions) {
			o.DisableURIPathEscaping = true
		}),
		http: httpClient,
		now:  time.Now,
	}, nil
}

func (c *S3Client) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, strings.Join(segments, "/"))
}

func (c *S3Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	if err := c.signer.SignHTTP(ctx, c.creds, req, payloadHash, "s3", c.region, c.now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	return c.http.Do(req)
}

func statusError(op string, resp *http.Response) error {
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("S3 %s failed: %d %s - %s", op, resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(text)))
}

// Put 上传对象
func (c *S3Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	resp, err := c.do(ctx, http.MethodPut, c.objectURL(key), body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("upload", resp)
	}
	return nil
}

// Get 下载对象
func (c *S3Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.objectURL(key), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("get", resp)
	}
	return io.ReadAll(resp.Body)
}

// Delete 删除对象，204 视为成功
func (c *S3Client) Delete(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.objectURL(key), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return statusError("delete", resp)
	}
	return nil
}

type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []struct {
		Key          string `xml:"Key"`
		Size         int64  `xml:"Size"`
		LastModified string `xml:"LastModified"`
	} `xml:"Contents"`
}

// List 列出对象（ListObjectsV2），自动翻页
func (c *S3Client) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	token := ""
	for {
		q := url.Values{}
		q.Set("list-type", "2")
		if prefix != "" {
			q.Set("prefix", prefix)
		}
		if token != "" {
			q.Set("continuation-token", token)
		}
		rawURL := fmt.Sprintf("%s/%s?%s", c.endpoint, c.bucket, q.Encode())

		page, err := c.listPage(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Contents {
			if item.Key == "" {
				continue
			}
			modified, _ := time.Parse(time.RFC3339Nano, item.LastModified)
			objects = append(objects, Object{Key: item.Key, Size: item.Size, LastModified: modified})
		}
		if !page.IsTruncated || page.NextContinuationToken == "" {
			break
		}
		token = page.NextContinuationToken
	}
	sortByLastModified(objects)
	return objects, nil
}

func (c *S3Client) listPage(ctx context.Context, rawURL string) (*listBucketResult, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("list", resp)
	}
	var result listBucketResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse list response: %w", err)
	}
	return &result, nil
}
