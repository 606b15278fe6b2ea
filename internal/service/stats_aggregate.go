package service

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/model"
)

const (
	day = 24 * time.Hour
	// 统计序列的天数
	seriesDays = 30
	// 页面排行条数
	topPages = 20
	// UnknownDomain 无法解析域名的评论归入此分组
	UnknownDomain = "unknown"
)

var httpPrefix = regexp.MustCompile(`(?i)^https?://`)

// ExtractDomain 从 http(s) 地址中提取小写主机名
func ExtractDomain(source string) (string, bool) {
	value := strings.TrimSpace(source)
	if value == "" || !httpPrefix.MatchString(value) {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

// domainOf 优先使用 post_url，其次 post_slug
func domainOf(postURL, postSlug string) (string, bool) {
	if d, ok := ExtractDomain(postURL); ok {
		return d, true
	}
	return ExtractDomain(postSlug)
}

// DateKey UTC 日期键 YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func dailySeries(now time.Time, counts map[string]int64) []dto.DailyCount {
	series := make([]dto.DailyCount, 0, seriesDays)
	for i := seriesDays - 1; i >= 0; i-- {
		key := DateKey(now.Add(-time.Duration(i) * day))
		series = append(series, dto.DailyCount{Date: key, Total: counts[key]})
	}
	return series
}

// CommentStatRow 评论统计所需字段
type CommentStatRow struct {
	Created  int64
	PostSlug string
	PostURL  string
	Status   string
}

// AggregateCommentStats 汇总评论状态、域名分布与最近30天趋势。
// domainFilter 非空时 summary 与趋势只统计该域名，domains 始终为全部域名。
func AggregateCommentStats(rows []CommentStatRow, domainFilter string, now time.Time) *dto.CommentStats {
	filter := strings.ToLower(strings.TrimSpace(domainFilter))
	since := now.Add(-(seriesDays - 1) * day).UnixMilli()

	var summaryAll, summaryFiltered dto.StatusCounts
	domainIndex := make(map[string]int)
	domains := make([]dto.DomainCounts, 0)
	dailyAll := make(map[string]int64)
	dailyFiltered := make(map[string]int64)

	for _, row := range rows {
		domain, ok := domainOf(row.PostURL, row.PostSlug)
		if !ok {
			domain = UnknownDomain
		}

		idx, seen := domainIndex[domain]
		if !seen {
			idx = len(domains)
			domainIndex[domain] = idx
			domains = append(domains, dto.DomainCounts{Domain: domain})
		}
		domains[idx].Add(row.Status)
		summaryAll.Add(row.Status)

		matches := filter != "" && domain == filter
		if matches {
			summaryFiltered.Add(row.Status)
		}

		if row.Created >= since {
			key := DateKey(time.UnixMilli(row.Created))
			dailyAll[key]++
			if matches {
				dailyFiltered[key]++
			}
		}
	}

	sort.SliceStable(domains, func(i, j int) bool {
		return domains[i].Total > domains[j].Total
	})

	stats := &dto.CommentStats{
		Summary:   summaryAll,
		Domains:   domains,
		Last7Days: dailySeries(now, dailyAll),
	}
	if filter != "" {
		stats.Summary = summaryFiltered
		stats.Last7Days = dailySeries(now, dailyFiltered)
	}
	return stats
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// visitWindow 概览所需的各个日期边界
type visitWindow struct {
	now            time.Time
	weekStart      time.Time
	lastWeekStart  time.Time
	lastWeekEnd    time.Time
	monthStart     time.Time
	lastMonthStart time.Time
	lastMonthEnd   time.Time
	seriesStart    time.Time
}

func newVisitWindow(now time.Time) visitWindow {
	now = now.UTC()
	today := startOfDay(now)
	// 周一为一周的开始
	offset := (int(today.Weekday()) + 6) % 7
	weekStart := today.Add(-time.Duration(offset) * day)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	return visitWindow{
		now:            now,
		weekStart:      weekStart,
		lastWeekStart:  weekStart.Add(-7 * day),
		lastWeekEnd:    weekStart.Add(-day),
		monthStart:     monthStart,
		lastMonthStart: time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC),
		lastMonthEnd:   monthStart.Add(-day),
		seriesStart:    now.Add(-(seriesDays - 1) * day),
	}
}

// EarliestDate 需要读取的最早日期键
func (w visitWindow) EarliestDate() string {
	earliest := DateKey(w.seriesStart)
	for _, t := range []time.Time{w.lastMonthStart, w.lastWeekStart} {
		if k := DateKey(t); k < earliest {
			earliest = k
		}
	}
	return earliest
}

// VisitEarliestDate 访问概览需要读取的最早日期键
func VisitEarliestDate(now time.Time) string {
	return newVisitWindow(now).EarliestDate()
}

func sumRange(daily map[string]int64, from, to time.Time) int64 {
	var total int64
	for cursor := from; !cursor.After(to); cursor = cursor.Add(day) {
		total += daily[DateKey(cursor)]
	}
	return total
}

// AggregateVisitOverview 计算访问概览。daily 应已按域名过滤。
func AggregateVisitOverview(pages []model.PageStat, daily []model.PageVisitDaily, domainFilter string, now time.Time) *dto.VisitOverview {
	filter := strings.ToLower(strings.TrimSpace(domainFilter))
	w := newVisitWindow(now)

	overview := &dto.VisitOverview{}
	for _, p := range pages {
		if filter != "" {
			if d, ok := domainOf(p.PostURL, p.PostSlug); !ok || d != filter {
				continue
			}
		}
		overview.TotalPv += p.PV
		overview.TotalPages++
	}

	dailyMap := make(map[string]int64)
	for _, row := range daily {
		if row.Date == "" {
			continue
		}
		dailyMap[row.Date] += row.Count
	}
	// 没有按天数据的旧库，把总量记在今天
	if len(dailyMap) == 0 && overview.TotalPv > 0 {
		dailyMap[DateKey(w.now)] = overview.TotalPv
	}

	overview.TodayPv = dailyMap[DateKey(w.now)]
	overview.YesterdayPv = dailyMap[DateKey(w.now.Add(-day))]
	overview.WeekPv = sumRange(dailyMap, w.weekStart, w.now)
	overview.LastWeekPv = sumRange(dailyMap, w.lastWeekStart, w.lastWeekEnd)
	overview.MonthPv = sumRange(dailyMap, w.monthStart, w.now)
	overview.LastMonthPv = sumRange(dailyMap, w.lastMonthStart, w.lastMonthEnd)

	overview.TodayPv = min(overview.TodayPv, overview.TotalPv)
	overview.WeekPv = min(overview.WeekPv, overview.TotalPv)
	overview.MonthPv = min(overview.MonthPv, overview.TotalPv)

	overview.Last30Days = dailySeries(w.now, dailyMap)
	return overview
}

func lastVisit(item dto.VisitPageItem) int64 {
	if item.LastVisitAt == nil {
		return 0
	}
	return *item.LastVisitAt
}

// RankPages 页面访问排行，order 为 latest 时 items 按最近访问排序，否则按 pv
func RankPages(pages []model.PageStat, domainFilter, order string) *dto.VisitPages {
	filter := strings.ToLower(strings.TrimSpace(domainFilter))

	items := make([]dto.VisitPageItem, 0, len(pages))
	for _, p := range pages {
		if filter != "" {
			if d, ok := domainOf(p.PostURL, p.PostSlug); !ok || d != filter {
				continue
			}
		}
		items = append(items, dto.VisitPageItem{
			PostSlug:    p.PostSlug,
			PostTitle:   p.PostTitle,
			PostURL:     p.PostURL,
			Pv:          p.PV,
			LastVisitAt: p.LastVisitAt,
		})
	}

	byPv := append([]dto.VisitPageItem(nil), items...)
	sort.SliceStable(byPv, func(i, j int) bool {
		if byPv[i].Pv != byPv[j].Pv {
			return byPv[i].Pv > byPv[j].Pv
		}
		return lastVisit(byPv[i]) > lastVisit(byPv[j])
	})

	byLatest := append([]dto.VisitPageItem(nil), items...)
	sort.SliceStable(byLatest, func(i, j int) bool {
		a, b := lastVisit(byLatest[i]), lastVisit(byLatest[j])
		if a != b {
			return a > b
		}
		return byLatest[i].Pv > byLatest[j].Pv
	})

	byPv = Paginate(byPv, 1, topPages)
	byLatest = Paginate(byLatest, 1, topPages)

	result := &dto.VisitPages{Items: byPv, ItemsByPv: byPv, ItemsByLatest: byLatest}
	if strings.ToLower(strings.TrimSpace(order)) == "latest" {
		result.Items = byLatest
	}
	return result
}

// MergeDomains 合并去重并排序
func MergeDomains(sources ...[]string) []string {
	set := make(map[string]struct{})
	for _, src := range sources {
		for _, d := range src {
			set[d] = struct{}{}
		}
	}
	list := make([]string, 0, len(set))
	for d := range set {
		list = append(list, d)
	}
	sort.Strings(list)
	return list
}
