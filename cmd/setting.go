package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// settingCmd 站点配置命令
var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "站点配置命令",
	Long:  `查看和修改数据库中的站点配置，以及生成管理员密码哈希`,
}

// listSettingsCmd 列出配置
var listSettingsCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部配置",
	Run: func(cmd *cobra.Command, args []string) {
		listSettings()
	},
}

// getSettingCmd 读取单项配置
// 示例：./cmt-rr setting get admin_notify_email
var getSettingCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "读取配置",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		getSetting(args[0])
	},
}

// setSettingCmd 写入单项配置
// 示例：./cmt-rr setting set comment_avatar_prefix https://cravatar.cn/avatar
var setSettingCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "写入配置",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setSetting(args[0], args[1])
	},
}

// hashPasswordCmd 生成管理员密码哈希
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "生成管理员密码哈希",
	Long:  `交互式输入密码，输出可写入 admin.password_hash 的 bcrypt 哈希`,
	Run: func(cmd *cobra.Command, args []string) {
		hashPassword()
	},
}

func init() {
	settingCmd.AddCommand(listSettingsCmd)
	settingCmd.AddCommand(getSettingCmd)
	settingCmd.AddCommand(setSettingCmd)
	settingCmd.AddCommand(hashPasswordCmd)

	rootCmd.AddCommand(settingCmd)
}

// 密钥类配置只显示是否已设置
var secretKeys = map[string]bool{
	service.KeySMTPPass:          true,
	service.KeyS3SecretAccessKey: true,
}

func displayValue(key, value string) string {
	if secretKeys[key] && value != "" {
		return "********"
	}
	return value
}

// listSettings 列出配置
func listSettings() {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	rows, err := a.settings.All(ctx)
	if err != nil {
		exitf("查询配置失败: %v", err)
	}

	fmt.Printf("%-28s %s\n", "键", "值")
	fmt.Println(strings.Repeat("-", 60))
	for _, row := range rows {
		fmt.Printf("%-28s %s\n", row.Key, displayValue(row.Key, row.Value))
	}
}

// getSetting 读取配置
func getSetting(key string) {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	value, ok, err := a.settings.Get(ctx, key)
	if err != nil {
		exitf("读取配置失败: %v", err)
	}
	if !ok {
		exitf("配置不存在: %s", key)
	}
	fmt.Println(value)
}

// setSetting 写入配置
func setSetting(key, value string) {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := a.settings.Set(ctx, key, value); err != nil {
		exitf("写入配置失败: %v", err)
	}
	fmt.Printf("已更新 %s\n", key)
}

// hashPassword 生成密码哈希，不需要连接数据库
func hashPassword() {
	fmt.Print("请输入管理员密码: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // 换行
	if err != nil {
		exitf("读取密码失败: %v", err)
	}

	fmt.Print("请确认管理员密码: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // 换行
	if err != nil {
		exitf("读取确认密码失败: %v", err)
	}

	if string(passwordBytes) != string(confirmBytes) {
		exitf("两次输入的密码不一致")
	}
	if len(passwordBytes) < 6 {
		exitf("密码至少6位")
	}

	hash, err := service.HashPassword(string(passwordBytes))
	if err != nil {
		exitf("密码加密失败: %v", err)
	}
	fmt.Println(hash)
}
