package model

// PageStat 页面累计访问
type PageStat struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PostSlug    string `gorm:"type:varchar(512);not null;uniqueIndex" json:"post_slug"`
	PostTitle   string `gorm:"type:varchar(512)" json:"post_title"`
	PostURL     string `gorm:"type:varchar(512)" json:"post_url"`
	PV          int64  `gorm:"column:pv;not null;default:0" json:"pv"`
	LastVisitAt *int64 `json:"last_visit_at"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// TableName 指定表名
func (PageStat) TableName() string {
	return "page_stats"
}

// PageVisitDaily 按天、域名汇总的访问量，date 为 UTC YYYY-MM-DD
type PageVisitDaily struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Date      string `gorm:"type:varchar(10);not null;uniqueIndex:idx_visit_date_domain" json:"date"`
	Domain    string `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_visit_date_domain" json:"domain"`
	Count     int64  `gorm:"not null;default:0" json:"count"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// TableName 指定表名
func (PageVisitDaily) TableName() string {
	return "page_visit_daily"
}
