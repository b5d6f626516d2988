package api

import (
	"errors"

	"flowmaster/internal/auth"
	"flowmaster/internal/common"
	"flowmaster/internal/logger"
	"flowmaster/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 认证接口
type AuthHandler struct {
	accountLogin  *auth.AccountLoginHandler
	authenticator *auth.Authenticator
	resolver      *rbac.Resolver
}

// NewAuthHandler 创建认证接口处理器
func NewAuthHandler(accountLogin *auth.AccountLoginHandler, authenticator *auth.Authenticator, resolver *rbac.Resolver) *AuthHandler {
	return &AuthHandler{
		accountLogin:  accountLogin,
		authenticator: authenticator,
		resolver:      resolver,
	}
}

// Login 账号密码登录
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.AccountLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.accountLogin.Login(c.Request.Context(), &req, auth.NewExtraContext(c.Request))
	if err != nil {
		h.renderError(c, err)
		return
	}
	common.ResponseSuccess(c, resp)
}

// Logout 退出登录
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := requestToken(c)
	if token != "" {
		h.authenticator.Logout(c.Request.Context(), token)
	}
	common.ResponseSuccessMessage(c, "退出成功", nil)
}

// Refresh 刷新令牌
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.authenticator.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenWrongType) {
			common.ResponseUnauthorized(c, "刷新令牌无效，请重新登录")
			return
		}
		h.renderError(c, err)
		return
	}
	common.ResponseSuccess(c, resp)
}

// UserInfo 当前登录用户信息
// GET /auth/user/info
func (h *AuthHandler) UserInfo(c *gin.Context) {
	ctx := c.Request.Context()
	user := auth.CurrentUser(ctx)
	if user == nil {
		common.ResponseUnauthorized(c, "")
		return
	}

	common.ResponseSuccess(c, gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"nickname":       user.Nickname,
		"email":          user.Email,
		"phone":          user.Phone,
		"avatar":         user.Avatar,
		"dept_id":        user.DeptID,
		"tenant_id":      user.TenantID,
		"permissions":    keys(user.Permissions),
		"role_codes":     keys(user.RoleCodes),
		"is_super_admin": user.IsSuperAdmin(),
	})
}

// UserRoute 当前用户可见菜单（权限码 + 菜单ID，路由树由前端构建）
// GET /auth/user/route
func (h *AuthHandler) UserRoute(c *gin.Context) {
	ctx := c.Request.Context()
	user := auth.CurrentUser(ctx)
	if user == nil {
		common.ResponseUnauthorized(c, "")
		return
	}

	menuIDs, err := h.resolver.ListMenuIDsByUserID(ctx, user.ID)
	if err != nil {
		logger.Error("查询用户菜单失败", zap.Int64("user_id", user.ID), zap.Error(err))
		common.ResponseServerError(c, "")
		return
	}

	common.ResponseSuccess(c, gin.H{
		"permissions": keys(user.Permissions),
		"menu_ids":    menuIDs,
	})
}

// renderError 业务错误按约定渲染，其余归为服务器错误
func (h *AuthHandler) renderError(c *gin.Context, err error) {
	var bizErr *common.BusinessError
	if errors.As(err, &bizErr) {
		common.ResponseBusinessError(c, bizErr)
		return
	}
	logger.Error("认证请求处理失败", zap.Error(err))
	common.ResponseServerError(c, "")
}

// requestToken 取请求携带的令牌：Authorization Bearer 优先，其次 token 查询参数
func requestToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return auth.ExtractTokenFromBearer(header)
	}
	return c.Query("token")
}

func keys(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	return values
}
