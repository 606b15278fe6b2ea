package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/cache"
	"github.com/realriphub/cmt-rr/pkg/objectstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 配置项键名
const (
	KeyEmailNotifyEnabled  = "email_notify_enabled"
	KeySMTPHost            = "email_smtp_host"
	KeySMTPPort            = "email_smtp_port"
	KeySMTPUser            = "email_smtp_user"
	KeySMTPPass            = "email_smtp_pass"
	KeySMTPSecure          = "email_smtp_secure"
	KeyAdminNotifyEmail    = "admin_notify_email"
	KeyCommentAvatarPrefix = "comment_avatar_prefix"
	KeyCommentAdminEmail   = "comment_admin_email"
	KeyS3Endpoint          = "s3_endpoint"
	KeyS3Bucket            = "s3_bucket"
	KeyS3Region            = "s3_region"
	KeyS3AccessKeyID       = "s3_access_key_id"
	KeyS3SecretAccessKey   = "s3_secret_access_key"
)

// SMTP 默认值
const (
	DefaultSMTPHost = "smtp.qq.com"
	DefaultSMTPPort = 465
	DefaultS3Region = "auto"
)

const (
	settingCacheTTL = 5 * time.Minute
	// 缓存中表示“数据库无此键”的占位值
	settingAbsent = "\x00"
)

// SettingService 键值配置仓库，读取经过缓存
type SettingService struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.SugaredLogger
}

// NewSettingService 创建配置仓库，c 可为 nil
func NewSettingService(db *gorm.DB, c cache.Cache) *SettingService {
	return &SettingService{
		db:     db,
		cache:  c,
		logger: logger.GetSugaredLogger(),
	}
}

// EnsureSchema 确保 Settings 表存在
func (s *SettingService) EnsureSchema() error {
	if err := s.db.AutoMigrate(&model.Setting{}); err != nil {
		return fmt.Errorf("创建Settings表失败: %w", err)
	}
	return nil
}

func keyColumn() clause.Column {
	return clause.Column{Name: "key"}
}

func (s *SettingService) cacheGet(ctx context.Context, key string) (string, bool, bool) {
	if s.cache == nil {
		return "", false, false
	}
	v, err := s.cache.Get(ctx, fmt.Sprintf(cache.SettingKey, key))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warnf("读取配置缓存失败: %v", err)
		}
		return "", false, false
	}
	if v == settingAbsent {
		return "", false, true
	}
	return v, true, true
}

func (s *SettingService) cacheSet(ctx context.Context, key, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, fmt.Sprintf(cache.SettingKey, key), value, settingCacheTTL); err != nil {
		s.logger.Warnf("写入配置缓存失败: %v", err)
	}
}

func (s *SettingService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = fmt.Sprintf(cache.SettingKey, k)
	}
	if err := s.cache.Delete(ctx, cacheKeys...); err != nil {
		s.logger.Warnf("清除配置缓存失败: %v", err)
	}
}

// Get 读取单个配置，第二个返回值表示是否存在
func (s *SettingService) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok, hit := s.cacheGet(ctx, key); hit {
		return v, ok, nil
	}

	var row model.Setting
	err := s.db.WithContext(ctx).
		Where(clause.Eq{Column: keyColumn(), Value: key}).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cacheSet(ctx, key, settingAbsent)
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	s.cacheSet(ctx, key, row.Value)
	return row.Value, true, nil
}

// GetMany 批量读取配置，不存在的键不会出现在结果中
func (s *SettingService) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	missing := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		v, ok, hit := s.cacheGet(ctx, k)
		if !hit {
			missing = append(missing, k)
			continue
		}
		if ok {
			result[k] = v
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	var rows []model.Setting
	if err := s.db.WithContext(ctx).
		Where(clause.IN{Column: keyColumn(), Values: missing}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Value
		found[row.Key] = true
		s.cacheSet(ctx, row.Key, row.Value)
	}
	for _, k := range missing {
		if key := k.(string); !found[key] {
			s.cacheSet(ctx, key, settingAbsent)
		}
	}
	return result, nil
}

func upsertSettings(tx *gorm.DB, rows []model.Setting) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{keyColumn()},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
}

// Set 写入单个配置
func (s *SettingService) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany 在一个事务中写入多个配置
func (s *SettingService) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]model.Setting, 0, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		rows = append(rows, model.Setting{Key: k, Value: v})
		keys = append(keys, k)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertSettings(tx, rows)
	})
	s.invalidate(ctx, keys...)
	if err != nil {
		return fmt.Errorf("保存配置失败: %w", err)
	}
	return nil
}

// All 按键名排序返回全部配置
func (s *SettingService) All(ctx context.Context) ([]model.Setting, error) {
	var rows []model.Setting
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: keyColumn()}).
		Find(&rows).Error
	return rows, err
}

// AdminNotifyEmail 站长通知邮箱，同时用于判断管理员评论
func (s *SettingService) AdminNotifyEmail(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, KeyAdminNotifyEmail)
	return v, err
}

// EmailSettings 读取邮件通知配置，缺省值：开关开启，smtp.qq.com:465，secure
func (s *SettingService) EmailSettings(ctx context.Context) (*dto.EmailSettings, error) {
	m, err := s.GetMany(ctx, KeyEmailNotifyEnabled, KeySMTPHost, KeySMTPPort, KeySMTPUser, KeySMTPPass, KeySMTPSecure)
	if err != nil {
		return nil, err
	}

	enabled := true
	if v, ok := m[KeyEmailNotifyEnabled]; ok {
		enabled = v == "1"
	}
	port := DefaultSMTPPort
	if v, ok := m[KeySMTPPort]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			port = n
		}
	}
	host := m[KeySMTPHost]
	if host == "" {
		host = DefaultSMTPHost
	}
	secure := true
	if v, ok := m[KeySMTPSecure]; ok {
		secure = v != "0"
	}

	return &dto.EmailSettings{
		GlobalEnabled: enabled,
		SMTP: dto.SMTPSettings{
			Host:   host,
			Port:   port,
			User:   m[KeySMTPUser],
			Pass:   m[KeySMTPPass],
			Secure: secure,
		},
	}, nil
}

func boolSetting(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SaveEmailSettings 部分更新邮件通知配置
func (s *SettingService) SaveEmailSettings(ctx context.Context, req *dto.EmailSettingsUpdate) error {
	values := make(map[string]string)
	if req.GlobalEnabled != nil {
		values[KeyEmailNotifyEnabled] = boolSetting(*req.GlobalEnabled)
	}
	if smtp := req.SMTP; smtp != nil {
		if smtp.Host != nil {
			values[KeySMTPHost] = *smtp.Host
		}
		if smtp.Port != nil {
			values[KeySMTPPort] = strconv.Itoa(*smtp.Port)
		}
		if smtp.User != nil {
			values[KeySMTPUser] = *smtp.User
		}
		if smtp.Pass != nil {
			values[KeySMTPPass] = *smtp.Pass
		}
		if smtp.Secure != nil {
			values[KeySMTPSecure] = boolSetting(*smtp.Secure)
		}
	}
	return s.SetMany(ctx, values)
}

// CommentSettings 评论展示配置
func (s *SettingService) CommentSettings(ctx context.Context) (*dto.CommentSettings, error) {
	m, err := s.GetMany(ctx, KeyCommentAdminEmail, KeyCommentAvatarPrefix, KeyAdminNotifyEmail)
	if err != nil {
		return nil, err
	}
	return &dto.CommentSettings{
		AdminEmail:   m[KeyCommentAdminEmail],
		AvatarPrefix: m[KeyCommentAvatarPrefix],
		NotifyEmail:  m[KeyAdminNotifyEmail],
	}, nil
}

// SaveCommentSettings 部分更新评论展示配置
func (s *SettingService) SaveCommentSettings(ctx context.Context, req *dto.CommentSettingsUpdate) error {
	values := make(map[string]string)
	if req.AdminEmail != nil {
		values[KeyCommentAdminEmail] = *req.AdminEmail
	}
	if req.AvatarPrefix != nil {
		values[KeyCommentAvatarPrefix] = *req.AvatarPrefix
	}
	if req.NotifyEmail != nil {
		if *req.NotifyEmail != "" && !dto.IsValidEmail(*req.NotifyEmail) {
			return NewValidationError("invalid email")
		}
		values[KeyAdminNotifyEmail] = *req.NotifyEmail
	}
	return s.SetMany(ctx, values)
}

// S3Settings 合并数据库配置与配置文件默认值，数据库中的值优先
func (s *SettingService) S3Settings(ctx context.Context, defaults config.S3Storage) (objectstore.S3Config, error) {
	m, err := s.GetMany(ctx, KeyS3Endpoint, KeyS3Bucket, KeyS3Region, KeyS3AccessKeyID, KeyS3SecretAccessKey)
	if err != nil {
		return objectstore.S3Config{}, err
	}
	pick := func(key, fallback string) string {
		if v := m[key]; v != "" {
			return v
		}
		return fallback
	}
	cfg := objectstore.S3Config{
		Endpoint:        pick(KeyS3Endpoint, defaults.Endpoint),
		Bucket:          pick(KeyS3Bucket, defaults.Bucket),
		Region:          pick(KeyS3Region, defaults.Region),
		AccessKeyID:     pick(KeyS3AccessKeyID, defaults.AccessKeyID),
		SecretAccessKey: pick(KeyS3SecretAccessKey, defaults.SecretAccessKey),
	}
	if cfg.Region == "" {
		cfg.Region = DefaultS3Region
	}
	return cfg, nil
}

// SaveS3Settings 部分更新 S3 配置
func (s *SettingService) SaveS3Settings(ctx context.Context, req *dto.S3SettingsUpdate) error {
	values := make(map[string]string)
	set := func(key string, v *string) {
		if v != nil {
			values[key] = *v
		}
	}
	set(KeyS3Endpoint, req.Endpoint)
	set(KeyS3Bucket, req.Bucket)
	set(KeyS3Region, req.Region)
	set(KeyS3AccessKeyID, req.AccessKeyID)
	set(KeyS3SecretAccessKey, req.SecretAccessKey)
	return s.SetMany(ctx, values)
}
