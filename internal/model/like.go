package model

// Like 页面点赞，同一访客对同一页面只记一次
type Like struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PageSlug  string `gorm:"type:varchar(512);not null;uniqueIndex:idx_like_page_user" json:"page_slug"`
	UserID    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_like_page_user" json:"user_id"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

// TableName 指定表名
func (Like) TableName() string {
	return "likes"
}
