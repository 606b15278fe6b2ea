package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// 这些变量在编译时通过 -ldflags 设置
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
)

var versionShort bool

// versionCmd 版本信息命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Long:  `显示评论服务的版本、提交与构建信息`,
	Run: func(cmd *cobra.Command, args []string) {
		showVersion(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "只输出版本号")
	rootCmd.AddCommand(versionCmd)
}

// showVersion 输出版本信息，short 时只输出版本号，便于脚本使用
func showVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, Version)
		return
	}
	fmt.Fprintf(w, "评论服务 %s\n", Version)
	fmt.Fprintf(w, "Git提交: %s\n", GitCommit)
	fmt.Fprintf(w, "构建时间: %s\n", BuildTime)
	fmt.Fprintf(w, "Go版本: %s\n", GoVersion)
	fmt.Fprintf(w, "平台: %s\n", Platform)
}
