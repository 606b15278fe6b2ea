package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "https://Example.COM/a", want: "example.com", wantOK: true},
		{in: "  http://a.b:8080/x ", want: "a.b", wantOK: true},
		{in: "HTTPS://UP.example", want: "up.example", wantOK: true},
		{in: "ftp://x.com/file"},
		{in: "/relative/path"},
		{in: ""},
		{in: "http://"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ExtractDomain(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateCommentStats(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rows := []CommentStatRow{
		{Created: now.UnixMilli(), PostURL: "https://a.com/p", PostSlug: "/p", Status: "approved"},
		{Created: now.Add(-day).UnixMilli(), PostSlug: "https://a.com/q", Status: "pending"},
		{Created: now.Add(-40 * day).UnixMilli(), PostSlug: "https://b.com/x", Status: "rejected"},
		{Created: now.UnixMilli(), PostSlug: "/relative", Status: "approved"},
	}

	t.Run("all domains", func(t *testing.T) {
		stats := AggregateCommentStats(rows, "", now)
		assert.Equal(t, dto.StatusCounts{Total: 4, Approved: 2, Pending: 1, Rejected: 1}, stats.Summary)

		require.Len(t, stats.Domains, 3)
		assert.Equal(t, "a.com", stats.Domains[0].Domain)
		assert.Equal(t, 2, stats.Domains[0].Total)
		assert.Equal(t, "b.com", stats.Domains[1].Domain)
		assert.Equal(t, UnknownDomain, stats.Domains[2].Domain)

		require.Len(t, stats.Last7Days, 30)
		assert.Equal(t, "2024-02-15", stats.Last7Days[0].Date)
		assert.Equal(t, dto.DailyCount{Date: "2024-03-15", Total: 2}, stats.Last7Days[29])
		assert.Equal(t, dto.DailyCount{Date: "2024-03-14", Total: 1}, stats.Last7Days[28])
	})

	t.Run("filtered by domain", func(t *testing.T) {
		stats := AggregateCommentStats(rows, " A.COM ", now)
		assert.Equal(t, dto.StatusCounts{Total: 2, Approved: 1, Pending: 1}, stats.Summary)
		assert.Len(t, stats.Domains, 3)
		assert.Equal(t, int64(1), stats.Last7Days[29].Total)
		assert.Equal(t, int64(1), stats.Last7Days[28].Total)
	})
}

func daily(date string, count int64) model.PageVisitDaily {
	return model.PageVisitDaily{Date: date, Count: count}
}

func TestAggregateVisitOverview(t *testing.T) {
	// 2024-03-13 是周三
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	pages := []model.PageStat{
		{PostSlug: "https://a.com/1", PV: 60},
		{PostSlug: "/2", PostURL: "https://b.com/2", PV: 40},
	}
	rows := []model.PageVisitDaily{
		daily("2024-03-13", 5),
		daily("2024-03-12", 7),
		daily("2024-03-11", 3),
		daily("2024-03-10", 2),
		daily("2024-03-04", 4),
		daily("2024-03-03", 10),
		daily("2024-03-01", 1),
		daily("2024-02-29", 6),
		daily("2024-02-01", 8),
	}

	overview := AggregateVisitOverview(pages, rows, "", now)
	assert.Equal(t, int64(100), overview.TotalPv)
	assert.Equal(t, 2, overview.TotalPages)
	assert.Equal(t, int64(5), overview.TodayPv)
	assert.Equal(t, int64(7), overview.YesterdayPv)
	assert.Equal(t, int64(15), overview.WeekPv)
	assert.Equal(t, int64(6), overview.LastWeekPv)
	assert.Equal(t, int64(32), overview.MonthPv)
	assert.Equal(t, int64(14), overview.LastMonthPv)
	require.Len(t, overview.Last30Days, 30)
	assert.Equal(t, "2024-02-13", overview.Last30Days[0].Date)
	assert.Equal(t, dto.DailyCount{Date: "2024-03-13", Total: 5}, overview.Last30Days[29])

	filtered := AggregateVisitOverview(pages, nil, "b.com", now)
	assert.Equal(t, int64(40), filtered.TotalPv)
	assert.Equal(t, 1, filtered.TotalPages)
}

func TestAggregateVisitOverviewClampAndFallback(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	t.Run("clamped to total", func(t *testing.T) {
		pages := []model.PageStat{{PostSlug: "https://a.com/1", PV: 3}}
		overview := AggregateVisitOverview(pages, []model.PageVisitDaily{daily("2024-03-13", 5)}, "", now)
		assert.Equal(t, int64(3), overview.TodayPv)
		assert.Equal(t, int64(3), overview.WeekPv)
		assert.Equal(t, int64(3), overview.MonthPv)
	})

	t.Run("no daily rows", func(t *testing.T) {
		pages := []model.PageStat{{PostSlug: "https://a.com/1", PV: 42}}
		overview := AggregateVisitOverview(pages, nil, "", now)
		assert.Equal(t, int64(42), overview.TodayPv)
		assert.Equal(t, int64(42), overview.WeekPv)
		assert.Equal(t, int64(42), overview.MonthPv)
		assert.Equal(t, int64(0), overview.YesterdayPv)
		assert.Equal(t, int64(42), overview.Last30Days[29].Total)
	})
}

func TestVisitEarliestDate(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-01", VisitEarliestDate(now))
}

func TestRankPages(t *testing.T) {
	last := func(v int64) *int64 { return &v }
	pages := []model.PageStat{
		{PostSlug: "https://a.com/p1", PV: 10, LastVisitAt: last(100)},
		{PostSlug: "https://a.com/p2", PV: 30, LastVisitAt: last(50)},
		{PostSlug: "https://a.com/p3", PV: 10, LastVisitAt: last(200)},
		{PostSlug: "https://b.com/p4", PV: 5},
	}

	slugs := func(items []dto.VisitPageItem) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.PostSlug)
		}
		return out
	}

	ranked := RankPages(pages, "", "pv")
	assert.Equal(t, []string{"https://a.com/p2", "https://a.com/p3", "https://a.com/p1", "https://b.com/p4"}, slugs(ranked.ItemsByPv))
	assert.Equal(t, []string{"https://a.com/p3", "https://a.com/p1", "https://a.com/p2", "https://b.com/p4"}, slugs(ranked.ItemsByLatest))
	assert.Equal(t, ranked.ItemsByPv, ranked.Items)

	latest := RankPages(pages, "", "LATEST")
	assert.Equal(t, latest.ItemsByLatest, latest.Items)

	onlyB := RankPages(pages, "b.com", "")
	assert.Equal(t, []string{"https://b.com/p4"}, slugs(onlyB.Items))

	many := make([]model.PageStat, 25)
	for i := range many {
		many[i] = model.PageStat{PostSlug: fmt.Sprintf("https://a.com/%d", i), PV: int64(i)}
	}
	assert.Len(t, RankPages(many, "", "").Items, 20)
}

func TestMergeDomains(t *testing.T) {
	got := MergeDomains([]string{"b.com", "a.com"}, []string{"a.com", "c.com"})
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, got)
	assert.Equal(t, []string{}, MergeDomains())
}
