package dto

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CommentCreateRequest 创建评论请求，字段同时接受 snake_case 与 camelCase
type CommentCreateRequest struct {
	PostSlug  string `json:"post_slug" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,comment_email"`
	URL       string `json:"url"`
	ParentID  *uint  `json:"parent_id"`
	PostTitle string `json:"post_title"`
	PostURL   string `json:"post_url"`
}

// UnmarshalJSON 宽松解码：非字符串的文本字段视为缺失，交给 required 校验；
// parent_id 接受数字或数字字符串，同时合并 camelCase 字段
func (r *CommentCreateRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.PostSlug = stringField(raw, "post_slug", "postSlug")
	r.Content = stringField(raw, "content")
	r.Name = stringField(raw, "name")
	r.Email = stringField(raw, "email")
	r.URL = stringField(raw, "url")
	r.PostTitle = stringField(raw, "post_title", "postTitle")
	r.PostURL = stringField(raw, "post_url", "postUrl")
	r.ParentID = uintField(raw, "parent_id", "parentId")
	return nil
}

// stringField 取第一个非空的字符串值
func stringField(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		var s string
		if v, ok := raw[key]; ok && json.Unmarshal(v, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// uintField 取第一个可解析的非负整数，"3" 与 3 等价
func uintField(raw map[string]json.RawMessage, keys ...string) *uint {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			continue
		}
		var n uint
		if json.Unmarshal(v, &n) == nil {
			return &n
		}
		var s string
		if json.Unmarshal(v, &s) == nil {
			if parsed, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil {
				id := uint(parsed)
				return &id
			}
		}
	}
	return nil
}

// ClientMeta 请求方信息
type ClientMeta struct {
	IP        string
	UserAgent string
}

// CommentCreateResponse 创建评论响应
type CommentCreateResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// 评论列表默认参数
const (
	DefaultCommentPage  = 1
	DefaultCommentLimit = 20
	MaxCommentLimit     = 50
	AdminCommentLimit   = 10
)

// CommentListQuery 评论列表查询参数
type CommentListQuery struct {
	PostSlug string
	Page     int
	Limit    int
	Nested   bool
}

// NewCommentListQuery 解析查询参数，非法值回退为默认值
func NewCommentListQuery(postSlug, page, limit, nested string) CommentListQuery {
	q := CommentListQuery{
		PostSlug: postSlug,
		Page:     DefaultCommentPage,
		Limit:    DefaultCommentLimit,
		Nested:   nested != "false",
	}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		q.Limit = n
	}
	if q.Limit > MaxCommentLimit {
		q.Limit = MaxCommentLimit
	}
	return q
}

// CommentResponse 公开评论数据
type CommentResponse struct {
	ID            uint               `json:"id"`
	Name          string             `json:"name"`
	Email         string             `json:"-"`
	URL           string             `json:"url"`
	ContentText   string             `json:"contentText"`
	ContentHTML   string             `json:"contentHtml"`
	Created       int64              `json:"created"`
	ParentID      *uint              `json:"parentId"`
	PostSlug      string             `json:"postSlug"`
	Priority      int                `json:"priority"`
	Likes         int64              `json:"likes"`
	Avatar        string             `json:"avatar"`
	IsAdmin       bool               `json:"isAdmin"`
	ReplyToAuthor string             `json:"replyToAuthor,omitempty"`
	Replies       []*CommentResponse `json:"replies"`
}

// AdminCommentResponse 管理端评论数据
type AdminCommentResponse struct {
	ID          uint   `json:"id"`
	Created     int64  `json:"created"`
	PostSlug    string `json:"postSlug"`
	PostURL     string `json:"postUrl"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	URL         string `json:"url"`
	IPAddress   string `json:"ipAddress"`
	OS          string `json:"os"`
	Browser     string `json:"browser"`
	Device      string `json:"device"`
	UA          string `json:"ua"`
	ContentText string `json:"contentText"`
	ContentHTML string `json:"contentHtml"`
	ParentID    *uint  `json:"parentId"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	Likes       int64  `json:"likes"`
	Avatar      string `json:"avatar"`
	IsAdmin     bool   `json:"isAdmin"`
}

// CommentStatusRequest 修改评论状态
type CommentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
}

// CommentPriorityRequest 修改评论置顶权重
type CommentPriorityRequest struct {
	Priority *int `json:"priority" binding:"required"`
}

// CommentLikeResponse 评论点赞结果
type CommentLikeResponse struct {
	ID    uint  `json:"id"`
	Likes int64 `json:"likes"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalCount *int `json:"totalCount,omitempty"`
}

// NewPagination 计算总页数，limit 必须大于 0
func NewPagination(page, limit, count int) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: (count + limit - 1) / limit,
	}
}

// WithTotalCount 附带总条数
func (p Pagination) WithTotalCount(n int) Pagination {
	p.TotalCount = &n
	return p
}
