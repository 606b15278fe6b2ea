package cmd

import (
	"fmt"

	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/spf13/cobra"
)

// databaseCmd 数据库管理命令
var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库管理命令",
	Long:  `数据库管理相关的命令，包括建表和连接检查`,
}

// initTablesCmd 初始化数据库表命令
// 示例：./cmt-rr db init-tables
var initTablesCmd = &cobra.Command{
	Use:   "init-tables",
	Short: "初始化数据库表",
	Long:  `自动迁移评论、配置、访问统计与点赞表`,
	Run: func(cmd *cobra.Command, args []string) {
		initializeTables()
	},
}

// dbStatusCmd 数据库状态命令
var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "数据库状态",
	Long:  `显示数据库连接池状态与各表行数`,
	Run: func(cmd *cobra.Command, args []string) {
		showDatabaseStatus()
	},
}

func init() {
	// 添加数据库相关子命令
	databaseCmd.AddCommand(initTablesCmd)
	databaseCmd.AddCommand(dbStatusCmd)

	// 将数据库命令添加到根命令
	rootCmd.AddCommand(databaseCmd)
}

// initializeTables 初始化数据库表，initializeSystem 中已执行迁移
func initializeTables() {
	a := mustInit()
	defer a.close()
	fmt.Println("数据库表初始化完成")
}

// showDatabaseStatus 显示数据库状态
func showDatabaseStatus() {
	a := mustInit()
	defer a.close()

	sqlDB, err := a.db.DB()
	if err != nil {
		exitf("获取数据库连接失败: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		exitf("数据库连接异常: %v", err)
	}

	stats := sqlDB.Stats()
	fmt.Println("=== 数据库状态 ===")
	fmt.Printf("驱动: %s\n", a.cfg.Database.Driver)
	fmt.Printf("打开连接数: %d\n", stats.OpenConnections)
	fmt.Printf("使用中: %d\n", stats.InUse)
	fmt.Printf("空闲: %d\n", stats.Idle)

	tables := []struct {
		name  string
		model any
	}{
		{"comments", &model.Comment{}},
		{"settings", &model.Setting{}},
		{"page_stats", &model.PageStat{}},
		{"page_visit_daily", &model.PageVisitDaily{}},
		{"likes", &model.Like{}},
	}
	fmt.Println("\n=== 表行数 ===")
	for _, t := range tables {
		var count int64
		if err := a.db.Model(t.model).Count(&count).Error; err != nil {
			fmt.Printf("%-18s 查询失败: %v\n", t.name, err)
			continue
		}
		fmt.Printf("%-18s %d\n", t.name, count)
	}
}
