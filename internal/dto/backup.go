package dto

import (
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/objectstore"
)

// BackupVersion 备份格式版本
const BackupVersion = "1.0"

// BackupDocument 导出的完整备份
type BackupDocument struct {
	Version        string                 `json:"version"`
	Timestamp      int64                  `json:"timestamp"`
	Comments       []model.Comment        `json:"comments"`
	Settings       []model.Setting        `json:"settings"`
	PageStats      []model.PageStat       `json:"page_stats"`
	PageVisitDaily []model.PageVisitDaily `json:"page_visit_daily"`
	Likes          []model.Like           `json:"likes"`
}

// ImportComment 导入的评论行，字段均可缺省
type ImportComment struct {
	ID          *uint   `json:"id"`
	Created     *int64  `json:"created"`
	PostSlug    string  `json:"post_slug"`
	PostURL     string  `json:"post_url"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	URL         string  `json:"url"`
	IPAddress   string  `json:"ip_address"`
	OS          string  `json:"os"`
	Browser     string  `json:"browser"`
	Device      string  `json:"device"`
	UA          string  `json:"ua"`
	ContentText string  `json:"content_text"`
	ContentHTML string  `json:"content_html"`
	ParentID    *uint   `json:"parent_id"`
	Status      string  `json:"status"`
	Priority    int     `json:"priority"`
	Likes       any     `json:"likes"`
	SiteID      *string `json:"site_id"`
}

// ImportDocument 导入请求，缺省的部分直接跳过
type ImportDocument struct {
	Comments       []ImportComment        `json:"comments"`
	Settings       []model.Setting        `json:"settings"`
	PageStats      []model.PageStat       `json:"page_stats"`
	PageVisitDaily []model.PageVisitDaily `json:"page_visit_daily"`
	Likes          []model.Like           `json:"likes"`
}

// ImportResult 导入结果
type ImportResult struct {
	Message        string `json:"message"`
	Comments       int    `json:"comments"`
	Settings       int    `json:"settings"`
	PageStats      int    `json:"pageStats"`
	PageVisitDaily int    `json:"pageVisitDaily"`
	Likes          int    `json:"likes"`
}

// BackupUploadResponse 上传到对象存储的结果
type BackupUploadResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
}

// BackupFileList 对象存储中的备份文件
type BackupFileList struct {
	Files []objectstore.Object `json:"files"`
}
