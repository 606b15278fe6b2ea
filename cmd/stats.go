package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// statsCmd 统计命令
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "统计信息命令",
	Long:  `显示评论与访问统计信息`,
}

var statsDomain string

// commentStatsCmd 评论统计命令
var commentStatsCmd = &cobra.Command{
	Use:   "comments",
	Short: "评论统计信息",
	Run: func(cmd *cobra.Command, args []string) {
		showCommentStats()
	},
}

// visitStatsCmd 访问统计命令
var visitStatsCmd = &cobra.Command{
	Use:   "visits",
	Short: "访问统计信息",
	Run: func(cmd *cobra.Command, args []string) {
		showVisitStats()
	},
}

func init() {
	statsCmd.PersistentFlags().StringVarP(&statsDomain, "domain", "d", "", "只统计指定域名")

	statsCmd.AddCommand(commentStatsCmd)
	statsCmd.AddCommand(visitStatsCmd)

	rootCmd.AddCommand(statsCmd)
}

// showCommentStats 显示评论统计
func showCommentStats() {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	stats, err := a.stats.CommentStats(ctx, statsDomain)
	if err != nil {
		exitf("获取评论统计失败: %v", err)
	}

	fmt.Println("=== 评论统计 ===")
	fmt.Printf("总数: %d\n", stats.Summary.Total)
	fmt.Printf("已通过: %d\n", stats.Summary.Approved)
	fmt.Printf("待审核: %d\n", stats.Summary.Pending)
	fmt.Printf("已拒绝: %d\n", stats.Summary.Rejected)

	if len(stats.Domains) > 0 {
		fmt.Println("\n=== 按域名 ===")
		fmt.Printf("%-30s %8s %8s %8s %8s\n", "域名", "总数", "通过", "待审", "拒绝")
		fmt.Println(strings.Repeat("-", 70))
		for _, d := range stats.Domains {
			fmt.Printf("%-30s %8d %8d %8d %8d\n", d.Domain, d.Total, d.Approved, d.Pending, d.Rejected)
		}
	}
}

// showVisitStats 显示访问统计
func showVisitStats() {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	overview, err := a.stats.VisitOverview(ctx, statsDomain)
	if err != nil {
		exitf("获取访问统计失败: %v", err)
	}

	fmt.Println("=== 访问统计 ===")
	fmt.Printf("总访问量: %d\n", overview.TotalPv)
	fmt.Printf("页面数: %d\n", overview.TotalPages)
	fmt.Printf("今日: %d  昨日: %d\n", overview.TodayPv, overview.YesterdayPv)
	fmt.Printf("本周: %d  上周: %d\n", overview.WeekPv, overview.LastWeekPv)
	fmt.Printf("本月: %d  上月: %d\n", overview.MonthPv, overview.LastMonthPv)

	pages, err := a.stats.VisitPages(ctx, statsDomain, "pv")
	if err != nil {
		exitf("获取页面排行失败: %v", err)
	}
	fmt.Println("\n=== 热门页面 ===")
	for i, p := range pages.ItemsByPv {
		if i >= 10 {
			break
		}
		title := p.PostTitle
		if title == "" {
			title = p.PostSlug
		}
		fmt.Printf("%2d. %-50s %d\n", i+1, title, p.Pv)
	}
}
