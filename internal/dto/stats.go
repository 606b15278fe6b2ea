package dto

// StatusCounts 按状态统计的评论数
type StatusCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// Add 计入一条评论
func (s *StatusCounts) Add(status string) {
	s.Total++
	switch status {
	case "approved":
		s.Approved++
	case "pending":
		s.Pending++
	case "rejected":
		s.Rejected++
	}
}

// DomainCounts 单个域名的评论统计
type DomainCounts struct {
	Domain string `json:"domain"`
	StatusCounts
}

// DailyCount 单日数量
type DailyCount struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

// CommentStats 评论统计，last7Days 实际为最近30天
type CommentStats struct {
	Summary   StatusCounts   `json:"summary"`
	Domains   []DomainCounts `json:"domains"`
	Last7Days []DailyCount   `json:"last7Days"`
}

// VisitOverview 访问概览
type VisitOverview struct {
	TotalPv     int64        `json:"totalPv"`
	TotalPages  int          `json:"totalPages"`
	TodayPv     int64        `json:"todayPv"`
	YesterdayPv int64        `json:"yesterdayPv"`
	WeekPv      int64        `json:"weekPv"`
	LastWeekPv  int64        `json:"lastWeekPv"`
	MonthPv     int64        `json:"monthPv"`
	LastMonthPv int64        `json:"lastMonthPv"`
	Last30Days  []DailyCount `json:"last30Days"`
}

// VisitPageItem 页面访问排行项
type VisitPageItem struct {
	PostSlug    string `json:"postSlug"`
	PostTitle   string `json:"postTitle"`
	PostURL     string `json:"postUrl"`
	Pv          int64  `json:"pv"`
	LastVisitAt *int64 `json:"lastVisitAt"`
}

// VisitPages 页面访问排行
type VisitPages struct {
	Items         []VisitPageItem `json:"items"`
	ItemsByPv     []VisitPageItem `json:"itemsByPv"`
	ItemsByLatest []VisitPageItem `json:"itemsByLatest"`
}

// DomainList 域名列表
type DomainList struct {
	Domains []string `json:"domains"`
}
