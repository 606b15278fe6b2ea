package model

// 评论状态
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
)

// Comment 评论模型，created 为毫秒时间戳
type Comment struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Created     int64  `gorm:"not null;index" json:"created"`
	PostSlug    string `gorm:"type:varchar(512);not null;index" json:"post_slug"`
	PostURL     string `gorm:"type:varchar(512)" json:"post_url"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Email       string `gorm:"type:varchar(255);not null" json:"email"`
	URL         string `gorm:"type:varchar(512)" json:"url"`
	IPAddress   string `gorm:"type:varchar(64);index" json:"ip_address"`
	OS          string `gorm:"type:varchar(128)" json:"os"`
	Browser     string `gorm:"type:varchar(128)" json:"browser"`
	Device      string `gorm:"type:varchar(128)" json:"device"`
	UA          string `gorm:"type:text" json:"ua"`
	ContentText string `gorm:"type:text" json:"content_text"`
	ContentHTML string `gorm:"type:text" json:"content_html"`
	ParentID    *uint  `gorm:"index" json:"parent_id"`
	Status      string `gorm:"type:varchar(20);not null;default:approved;index" json:"status"`
	Priority    int    `gorm:"not null;default:0" json:"priority"`
	Likes       int64  `gorm:"not null;default:0" json:"likes"`
	SiteID      string `gorm:"type:varchar(64);not null;default:''" json:"site_id"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "Comment"
}

// NormalizedLikes 点赞数非负
func (c *Comment) NormalizedLikes() int64 {
	if c.Likes < 0 {
		return 0
	}
	return c.Likes
}

// IsValidCommentStatus 校验评论状态
func IsValidCommentStatus(status string) bool {
	switch status {
	case CommentStatusPending, CommentStatusApproved, CommentStatusRejected:
		return true
	}
	return false
}
