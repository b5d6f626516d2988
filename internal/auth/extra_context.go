package auth

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// ExtraContext 登录附加信息（来源于请求，用于在线用户记录与审计展示）
type ExtraContext struct {
	IP        string    `json:"ip"`         // 客户端IP
	Address   string    `json:"address"`    // IP归属地（预留，离线库解析另行接入）
	Browser   string    `json:"browser"`    // 浏览器
	OS        string    `json:"os"`         // 操作系统
	LoginTime time.Time `json:"login_time"` // 登录时间
}

// NewExtraContext 从 HTTP 请求提取附加信息
func NewExtraContext(r *http.Request) *ExtraContext {
	ua := r.UserAgent()
	return &ExtraContext{
		IP:        clientIP(r),
		Browser:   browserFamily(ua),
		OS:        osFamily(ua),
		LoginTime: time.Now(),
	}
}

// clientIP 按代理头优先级取客户端IP
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取链路中最早的客户端地址
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// browserFamily 识别常见浏览器家族。
// 顺序有讲究：Edge/Opera 的 UA 同时包含 Chrome 标识，需要先匹配。
func browserFamily(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	case ua == "":
		return "Unknown"
	default:
		return "Other"
	}
}

// osFamily 识别常见操作系统家族
func osFamily(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	case ua == "":
		return "Unknown"
	default:
		return "Other"
	}
}
