package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// SecretMask 读取配置时密钥的遮盖值，提交该值表示不修改
const SecretMask = "********"

// SettingApi 站点配置接口
type SettingApi struct {
	logger         *zap.SugaredLogger
	settingService *service.SettingService
	s3Defaults     config.S3Storage
}

// NewSettingApi 创建配置控制器
func NewSettingApi(settingService *service.SettingService, s3Defaults config.S3Storage) *SettingApi {
	return &SettingApi{
		logger:         logger.GetSugaredLogger(),
		settingService: settingService,
		s3Defaults:     s3Defaults,
	}
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return SecretMask
}

// dropMasked 提交的遮盖值视为未修改
func dropMasked(v *string) *string {
	if v != nil && *v == SecretMask {
		return nil
	}
	return v
}

// GetEmail 邮件通知配置
func (api *SettingApi) GetEmail(c *gin.Context) {
	settings, err := api.settingService.EmailSettings(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取邮件配置", err)
		return
	}
	settings.SMTP.Pass = mask(settings.SMTP.Pass)
	response.JSON(c, settings)
}

// UpdateEmail 更新邮件通知配置
func (api *SettingApi) UpdateEmail(c *gin.Context) {
	var req dto.EmailSettingsUpdate
	if !bindJSON(c, &req) {
		return
	}
	if req.SMTP != nil {
		req.SMTP.Pass = dropMasked(req.SMTP.Pass)
	}
	if err := api.settingService.SaveEmailSettings(c.Request.Context(), &req); err != nil {
		handleError(c, api.logger, "保存邮件配置", err)
		return
	}
	response.OK(c, "Settings saved")
}

// GetComment 评论展示配置
func (api *SettingApi) GetComment(c *gin.Context) {
	settings, err := api.settingService.CommentSettings(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取评论配置", err)
		return
	}
	response.JSON(c, settings)
}

// UpdateComment 更新评论展示配置
func (api *SettingApi) UpdateComment(c *gin.Context) {
	var req dto.CommentSettingsUpdate
	if !bindJSON(c, &req) {
		return
	}
	if err := api.settingService.SaveCommentSettings(c.Request.Context(), &req); err != nil {
		handleError(c, api.logger, "保存评论配置", err)
		return
	}
	response.OK(c, "Settings saved")
}

// GetS3 S3 备份配置，合并配置文件默认值
func (api *SettingApi) GetS3(c *gin.Context) {
	cfg, err := api.settingService.S3Settings(c.Request.Context(), api.s3Defaults)
	if err != nil {
		handleError(c, api.logger, "获取S3配置", err)
		return
	}
	response.JSON(c, dto.S3Settings{
		Endpoint:        cfg.Endpoint,
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: mask(cfg.SecretAccessKey),
	})
}

// UpdateS3 更新 S3 备份配置
func (api *SettingApi) UpdateS3(c *gin.Context) {
	var req dto.S3SettingsUpdate
	if !bindJSON(c, &req) {
		return
	}
	req.SecretAccessKey = dropMasked(req.SecretAccessKey)
	if err := api.settingService.SaveS3Settings(c.Request.Context(), &req); err != nil {
		handleError(c, api.logger, "保存S3配置", err)
		return
	}
	response.OK(c, "Settings saved")
}
