package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌类型
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// 令牌校验的典型失败形态，调用方据此区分 401 文案与刷新策略
var (
	ErrTokenExpired   = errors.New("令牌已过期")
	ErrTokenInvalid   = errors.New("无效的令牌")
	ErrTokenWrongType = errors.New("令牌类型错误")
)

// TokenClaims JWT 声明。
// 访问令牌携带完整的用户快照；刷新令牌只携带用户ID。
type TokenClaims struct {
	UserID                 int64    `json:"user_id"`
	Username               string   `json:"username,omitempty"`
	TenantID               int64    `json:"tenant_id,omitempty"`
	ClientID               string   `json:"client_id,omitempty"`
	ClientType             string   `json:"client_type,omitempty"`
	DeptID                 *int64   `json:"dept_id,omitempty"`
	Nickname               string   `json:"nickname,omitempty"`
	Email                  string   `json:"email,omitempty"`
	Phone                  string   `json:"phone,omitempty"`
	Avatar                 string   `json:"avatar,omitempty"`
	PwdResetTime           *int64   `json:"pwd_reset_time,omitempty"` // Unix 秒
	PasswordExpirationDays int      `json:"password_expiration_days,omitempty"`
	Permissions            []string `json:"permissions,omitempty"`
	RoleCodes              []string `json:"role_codes,omitempty"`
	TokenType              string   `json:"type"` // access 或 refresh
	jwt.RegisteredClaims
}

// TokenService JWT 令牌服务（HS256 对称签名）
type TokenService struct {
	secretKey     []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenService 创建令牌服务
func NewTokenService(secret, issuer string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		secretKey:     []byte(secret),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// AccessExpiry 访问令牌有效期
func (s *TokenService) AccessExpiry() time.Duration {
	return s.accessExpiry
}

// CreateAccessToken 签发访问令牌（完整声明）
func (s *TokenService) CreateAccessToken(claims *TokenClaims) (string, error) {
	claims.TokenType = TokenKindAccess
	return s.sign(claims, s.accessExpiry)
}

// CreateRefreshToken 签发刷新令牌（仅携带用户ID）
func (s *TokenService) CreateRefreshToken(userID int64) (string, error) {
	claims := &TokenClaims{
		UserID:    userID,
		TokenType: TokenKindRefresh,
	}
	return s.sign(claims, s.refreshExpiry)
}

func (s *TokenService) sign(claims *TokenClaims, expiry time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   fmt.Sprintf("%d", claims.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("签名令牌失败: %w", err)
	}
	return tokenString, nil
}

// Parse 验证并解析令牌，kind 限定期望的令牌类型。
// 过期返回 ErrTokenExpired，签名/格式问题返回 ErrTokenInvalid，
// 类型不符返回 ErrTokenWrongType。
func (s *TokenService) Parse(tokenString, kind string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("无效的签名算法: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != kind {
		return nil, fmt.Errorf("%w: 期望 %s，实际 %s", ErrTokenWrongType, kind, claims.TokenType)
	}
	return claims, nil
}

// ExtractTokenFromBearer 从 Bearer 令牌中提取纯令牌字符串
func ExtractTokenFromBearer(bearerToken string) string {
	const prefix = "Bearer "
	if len(bearerToken) > len(prefix) && bearerToken[:len(prefix)] == prefix {
		return bearerToken[len(prefix):]
	}
	return bearerToken
}
