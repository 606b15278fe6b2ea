package controller

import (
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// BackupApi 备份导出、导入与对象存储管理
type BackupApi struct {
	logger        *zap.SugaredLogger
	backupService *service.BackupService
}

// NewBackupApi 创建备份控制器
func NewBackupApi(backupService *service.BackupService) *BackupApi {
	return &BackupApi{
		logger:        logger.GetSugaredLogger(),
		backupService: backupService,
	}
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(name)}))
}

// Export 导出完整备份
func (api *BackupApi) Export(c *gin.Context) {
	doc, err := api.backupService.Export(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "导出备份", err)
		return
	}
	attachment(c, api.backupService.FileName(time.UnixMilli(doc.Timestamp)))
	response.JSON(c, doc)
}

// Import 导入备份
func (api *BackupApi) Import(c *gin.Context) {
	var doc dto.ImportDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.BadRequest(c, "invalid backup data", err)
		return
	}

	result, err := api.backupService.Import(c.Request.Context(), &doc)
	if err != nil {
		handleError(c, api.logger, "导入备份", err)
		return
	}
	response.JSON(c, result)
}

// Upload 导出并上传到对象存储
func (api *BackupApi) Upload(c *gin.Context) {
	name, err := api.backupService.Upload(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "上传备份", err)
		return
	}
	response.JSON(c, dto.BackupUploadResponse{Message: "Backup uploaded", File: name})
}

// List 列出对象存储中的备份
func (api *BackupApi) List(c *gin.Context) {
	files, err := api.backupService.List(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取备份列表", err)
		return
	}
	response.JSON(c, dto.BackupFileList{Files: files})
}

// Download 下载备份文件
func (api *BackupApi) Download(c *gin.Context) {
	key := c.Query("key")
	body, err := api.backupService.Download(c.Request.Context(), key)
	if err != nil {
		handleError(c, api.logger, "下载备份", err)
		return
	}
	attachment(c, key)
	c.Data(http.StatusOK, "application/json", body)
}

// Delete 删除备份文件
func (api *BackupApi) Delete(c *gin.Context) {
	if err := api.backupService.Delete(c.Request.Context(), c.Query("key")); err != nil {
		handleError(c, api.logger, "删除备份", err)
		return
	}
	response.OK(c, "Backup deleted")
}
