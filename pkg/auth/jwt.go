package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrTokenRevoked = errors.New("令牌已被撤销")
	ErrTokenInvalid = errors.New("无效的令牌")
)

// Claims 会话令牌声明
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager 会话令牌管理器
type Manager struct {
	secret    []byte
	issuer    string
	expire    time.Duration
	blacklist BlacklistInterface
}

// NewManager 创建会话令牌管理器
func NewManager(secret, issuer string, expire time.Duration, blacklist BlacklistInterface) *Manager {
	if blacklist == nil {
		blacklist = NewTokenBlacklist(6 * time.Hour)
	}
	return &Manager{
		secret:    []byte(secret),
		issuer:    issuer,
		expire:    expire,
		blacklist: blacklist,
	}
}

// Expire 会话有效期
func (m *Manager) Expire() time.Duration {
	return m.expire
}

// GenerateToken 为用户签发会话令牌
func (m *Manager) GenerateToken(userID uint) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, claims, nil
}

// ParseToken 解析并校验会话令牌
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if m.blacklist.IsBlacklisted(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeToken 撤销令牌（登出时使用）
func (m *Manager) RevokeToken(tokenString string) error {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return err
	}
	return m.blacklist.AddToBlacklist(claims.ID, claims.ExpiresAt.Time)
}
