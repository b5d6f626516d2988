package auth

import (
	"context"
	"errors"

	"flowmaster/internal/common"
)

// LoginHandler 登录方式处理器。
// 每种登录方式负责自己的身份核验，核验通过后复用 Authenticator 建会话。
type LoginHandler interface {
	Login(ctx context.Context, req *AccountLoginReq, extra *ExtraContext) (*LoginResp, error)
}

// AccountLoginHandler 账号密码登录
type AccountLoginHandler struct {
	authenticator *Authenticator
	users         UserStore
	clients       ClientStore
}

// NewAccountLoginHandler 创建账号密码登录处理器
func NewAccountLoginHandler(authenticator *Authenticator, users UserStore, clients ClientStore) *AccountLoginHandler {
	return &AccountLoginHandler{
		authenticator: authenticator,
		users:         users,
		clients:       clients,
	}
}

// Login 账号密码登录。
// 客户端校验 → 用户查询 → 密码比对 → 建立会话。
// 用户不存在与密码错误统一返回"用户名或密码错误"，不泄露账号是否存在。
func (h *AccountLoginHandler) Login(ctx context.Context, req *AccountLoginReq, extra *ExtraContext) (*LoginResp, error) {
	client, err := h.clients.GetByClientID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, common.NewBusinessErrorWithCode(common.CodeClientNotFound)
		}
		return nil, err
	}
	if client.Status != UserStatusEnabled {
		return nil, common.NewBusinessErrorWithCode(common.CodeClientNotFound)
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, common.NewBusinessErrorWithCode(common.CodeInvalidCredentials)
		}
		return nil, err
	}
	if !CheckPassword(user.Password, req.Password) {
		return nil, common.NewBusinessErrorWithCode(common.CodeInvalidCredentials)
	}

	return h.authenticator.Authenticate(ctx, user, client, extra)
}
