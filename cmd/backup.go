package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/spf13/cobra"
)

// backupCmd 备份命令
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "备份管理命令",
	Long:  `导出、导入备份文件，或上传备份到对象存储`,
}

// exportBackupCmd 导出备份
// 示例：./cmt-rr backup export backup.json
var exportBackupCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "导出备份到文件",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exportBackup(args[0])
	},
}

// importBackupCmd 导入备份
// 示例：./cmt-rr backup import backup.json
var importBackupCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "从文件导入备份",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		importBackup(args[0])
	},
}

// uploadBackupCmd 上传备份
var uploadBackupCmd = &cobra.Command{
	Use:   "s3",
	Short: "上传备份到对象存储",
	Run: func(cmd *cobra.Command, args []string) {
		uploadBackup()
	},
}

func init() {
	backupCmd.AddCommand(exportBackupCmd)
	backupCmd.AddCommand(importBackupCmd)
	backupCmd.AddCommand(uploadBackupCmd)

	rootCmd.AddCommand(backupCmd)
}

// exportBackup 导出备份
func exportBackup(fileName string) {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	doc, err := a.backups.Export(ctx)
	if err != nil {
		exitf("导出备份失败: %v", err)
	}

	file, err := os.Create(fileName)
	if err != nil {
		exitf("创建文件失败: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		exitf("写入文件失败: %v", err)
	}

	fmt.Printf("成功导出 %d 条评论到 %s\n", len(doc.Comments), fileName)
}

// importBackup 导入备份
func importBackup(fileName string) {
	a := mustInit()
	defer a.close()

	data, err := os.ReadFile(fileName)
	if err != nil {
		exitf("读取文件失败: %v", err)
	}

	var doc dto.ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		exitf("解析备份文件失败: %v", err)
	}

	ctx, cancel := commandContext()
	defer cancel()

	start := time.Now()
	result, err := a.backups.Import(ctx, &doc)
	if err != nil {
		exitf("导入备份失败: %v", err)
	}
	fmt.Printf("%s (耗时 %s)\n", result.Message, time.Since(start).Round(time.Millisecond))
}

// uploadBackup 上传备份
func uploadBackup() {
	a := mustInit()
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	name, err := a.backups.Upload(ctx)
	if err != nil {
		exitf("上传备份失败: %v", err)
	}
	fmt.Printf("备份已上传: %s\n", name)
}
