package auth

import (
	"context"
	"time"

	"flowmaster/internal/common"
	"flowmaster/internal/logger"
	"flowmaster/internal/tenant"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AccountLoginReq 账号密码登录请求
type AccountLoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	ClientID string `json:"client_id" binding:"required"`
}

// RefreshTokenReq 刷新令牌请求
type RefreshTokenReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserInfo 登录响应中的用户摘要
type UserInfo struct {
	ID              int64    `json:"id"`
	Username        string   `json:"username"`
	Nickname        string   `json:"nickname"`
	Avatar          string   `json:"avatar"`
	TenantID        int64    `json:"tenant_id"`
	Permissions     []string `json:"permissions"`
	RoleCodes       []string `json:"role_codes"`
	IsSuperAdmin    bool     `json:"is_super_admin"`
	PasswordExpired bool     `json:"password_expired"`
}

// LoginResp 登录响应
type LoginResp struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"` // 秒
	User         UserInfo `json:"user"`
}

// Authenticator 登录认证器。
// 各登录方式（账号密码、后续的短信/邮箱）在完成身份核验后统一走
// Authenticate 建立会话：解析租户 → 实时查询权限角色 → 构建用户上下文
// → 签发令牌 → 写在线记录。
type Authenticator struct {
	tokens                 *TokenService
	users                  UserStore
	clients                ClientStore
	resolver               PermissionResolver
	online                 *OnlineStore
	passwordExpirationDays int
}

// NewAuthenticator 创建认证器
func NewAuthenticator(tokens *TokenService, users UserStore, clients ClientStore, resolver PermissionResolver, online *OnlineStore, passwordExpirationDays int) *Authenticator {
	return &Authenticator{
		tokens:                 tokens,
		users:                  users,
		clients:                clients,
		resolver:               resolver,
		online:                 online,
		passwordExpirationDays: passwordExpirationDays,
	}
}

// Authenticate 为已通过身份核验的用户建立会话。
// client 允许为 nil（令牌刷新场景沿用空客户端信息）。
func (a *Authenticator) Authenticate(ctx context.Context, user *UserRecord, client *ClientRecord, extra *ExtraContext) (*LoginResp, error) {
	if user.Status != UserStatusEnabled {
		return nil, common.NewBusinessErrorWithCode(common.CodeUserDisabled)
	}

	// 租户归属：请求头显式解析出的租户优先，否则回落到用户记录。
	// 中间件填充的默认租户不算显式指定，不能遮蔽用户自己的归属。
	tenantID := user.TenantID
	if holder := tenant.FromContext(ctx); holder != nil && holder.TenantCode() != "" && holder.IsSet() {
		tenantID = *holder.TenantID()
	} else {
		tenant.SetTenantID(ctx, tenantID)
	}

	// 实时查询权限与角色（登录时刻的快照进入令牌）
	permissions, err := a.resolver.ListPermissionsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	roles, err := a.resolver.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	uc := &UserContext{
		ID:                     user.ID,
		Username:               user.Username,
		Nickname:               user.Nickname,
		Email:                  user.Email,
		Phone:                  user.Phone,
		Avatar:                 user.Avatar,
		DeptID:                 user.DeptID,
		PwdResetTime:           user.PwdResetTime,
		PasswordExpirationDays: a.passwordExpirationDays,
		Permissions:            permissions,
		TenantID:               tenantID,
	}
	uc.SetRoles(roles)
	if client != nil {
		uc.ClientID = client.ClientID
		uc.ClientType = client.ClientType
	}
	SetUser(ctx, uc)

	accessToken, err := a.tokens.CreateAccessToken(claimsFromUserContext(uc))
	if err != nil {
		return nil, err
	}
	refreshToken, err := a.tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	// 在线记录写入失败不阻断登录
	if a.online != nil {
		record := &OnlineUserRecord{
			UserID:     uc.ID,
			Username:   uc.Username,
			Nickname:   uc.Nickname,
			TenantID:   uc.TenantID,
			ClientType: uc.ClientType,
			ClientID:   uc.ClientID,
			LoginTime:  time.Now(),
		}
		if extra != nil {
			record.IP = extra.IP
			record.Address = extra.Address
			record.Browser = extra.Browser
			record.OS = extra.OS
			record.LoginTime = extra.LoginTime
		}
		if err := a.online.Save(ctx, accessToken, record, a.tokens.AccessExpiry()); err != nil {
			logger.Warn("写入在线用户记录失败",
				zap.Int64("user_id", uc.ID),
				zap.Error(err),
			)
		}
	}

	return &LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(a.tokens.AccessExpiry().Seconds()),
		User: UserInfo{
			ID:              uc.ID,
			Username:        uc.Username,
			Nickname:        uc.Nickname,
			Avatar:          uc.Avatar,
			TenantID:        uc.TenantID,
			Permissions:     setToSlice(uc.Permissions),
			RoleCodes:       setToSlice(uc.RoleCodes),
			IsSuperAdmin:    uc.IsSuperAdmin(),
			PasswordExpired: uc.IsPasswordExpired(time.Now()),
		},
	}, nil
}

// Logout 退出登录：拉黑令牌（剩余有效期内）并删除在线记录。
// 两步都是尽力而为，失败只记日志。
func (a *Authenticator) Logout(ctx context.Context, token string) {
	if a.online == nil {
		return
	}

	// 未验证解析即可，只为取过期时间算黑名单 TTL
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, &TokenClaims{})
	if err == nil {
		if claims, ok := parsed.Claims.(*TokenClaims); ok && claims.ExpiresAt != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if err := a.online.Blacklist(ctx, token, ttl); err != nil {
				logger.Warn("拉黑令牌失败", zap.Error(err))
			}
		}
	}

	if err := a.online.Delete(ctx, token); err != nil {
		logger.Warn("删除在线用户记录失败", zap.Error(err))
	}
}

// RefreshToken 使用刷新令牌换取新的令牌对
func (a *Authenticator) RefreshToken(ctx context.Context, refreshToken string) (*LoginResp, error) {
	claims, err := a.tokens.Parse(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return a.Authenticate(ctx, user, nil, nil)
}

// claimsFromUserContext 由用户上下文构建访问令牌声明
func claimsFromUserContext(uc *UserContext) *TokenClaims {
	claims := &TokenClaims{
		UserID:                 uc.ID,
		Username:               uc.Username,
		TenantID:               uc.TenantID,
		ClientID:               uc.ClientID,
		ClientType:             uc.ClientType,
		DeptID:                 uc.DeptID,
		Nickname:               uc.Nickname,
		Email:                  uc.Email,
		Phone:                  uc.Phone,
		Avatar:                 uc.Avatar,
		PasswordExpirationDays: uc.PasswordExpirationDays,
		Permissions:            setToSlice(uc.Permissions),
		RoleCodes:              setToSlice(uc.RoleCodes),
	}
	if uc.PwdResetTime != nil {
		unix := uc.PwdResetTime.Unix()
		claims.PwdResetTime = &unix
	}
	return claims
}

// UserContextFromClaims 由访问令牌声明还原用户上下文（降级路径使用）
func UserContextFromClaims(claims *TokenClaims) *UserContext {
	uc := &UserContext{
		ID:                     claims.UserID,
		Username:               claims.Username,
		Nickname:               claims.Nickname,
		Email:                  claims.Email,
		Phone:                  claims.Phone,
		Avatar:                 claims.Avatar,
		DeptID:                 claims.DeptID,
		PasswordExpirationDays: claims.PasswordExpirationDays,
		Permissions:            sliceToSet(claims.Permissions),
		RoleCodes:              sliceToSet(claims.RoleCodes),
		Roles:                  map[RoleContext]struct{}{},
		TenantID:               claims.TenantID,
		ClientID:               claims.ClientID,
		ClientType:             claims.ClientType,
	}
	if claims.PwdResetTime != nil {
		t := time.Unix(*claims.PwdResetTime, 0)
		uc.PwdResetTime = &t
	}
	return uc
}

func setToSlice(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	return values
}

func sliceToSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
