package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理员登录
type AuthService struct {
	admin  config.AdminConfig
	tokens *auth.Manager
	logger *zap.SugaredLogger
}

// NewAuthService 创建认证服务
func NewAuthService(admin config.AdminConfig, tokens *auth.Manager) *AuthService {
	return &AuthService{
		admin:  admin,
		tokens: tokens,
		logger: logger.GetSugaredLogger(),
	}
}

// HashPassword 生成 bcrypt 哈希，用于写入 admin.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login 校验用户名密码并签发令牌
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.admin.Username == "" || s.admin.PasswordHash == "" {
		s.logger.Warn("未配置管理员账号，拒绝登录")
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.admin.Username)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := s.tokens.Generate(req.Username)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("管理员登录成功", "username", req.Username)
	return &dto.LoginResponse{Token: token.AccessToken, ExpiresAt: token.ExpiresAt.UnixMilli()}, nil
}

// Logout 撤销令牌
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.tokens.Revoke(ctx, claims)
}
