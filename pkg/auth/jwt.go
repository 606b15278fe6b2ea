package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

var (
	// ErrInvalidToken 令牌无效
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevokedToken 令牌已撤销
	ErrRevokedToken = errors.New("token revoked")
)

// Claims 自定义JWT声明结构体
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Token 签发结果
type Token struct {
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Manager 令牌签发与校验
type Manager struct {
	secret    []byte
	issuer    string
	expire    time.Duration
	blacklist Blacklist
	now       func() time.Time
}

// NewManager 创建令牌管理器，blacklist 可为 nil
func NewManager(secret, issuer string, expire time.Duration, blacklist Blacklist) *Manager {
	return &Manager{
		secret:    []byte(secret),
		issuer:    issuer,
		expire:    expire,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// Generate 为管理员签发访问令牌
func (m *Manager) Generate(username string) (*Token, error) {
	now := m.now()
	expiresAt := now.Add(m.expire)
	claims := Claims{
		Username: username,
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Parse 解析并校验令牌
func (m *Manager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if m.blacklist != nil && m.blacklist.Contains(ctx, claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke 撤销令牌（登出时使用）
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.blacklist == nil || claims == nil {
		return nil
	}
	expireAt := m.now().Add(m.expire)
	if claims.ExpiresAt != nil {
		expireAt = claims.ExpiresAt.Time
	}
	return m.blacklist.Add(ctx, claims.ID, expireAt)
}
