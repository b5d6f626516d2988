package middleware

import "strings"

// alwaysPublicPaths 无需认证的固定路径
var alwaysPublicPaths = []string{"/", "/health"}

// MatchExcludePath 判断请求路径是否命中排除规则。
// 支持三种形式：
//   - 精确匹配:  /auth/login
//   - 单段通配:  /public/*   匹配 /public/a，不匹配 /public/a/b
//   - 前缀通配:  /static/**  匹配 /static 下任意深度
func MatchExcludePath(pattern, path string) bool {
	switch {
	case strings.HasSuffix(pattern, "/**"):
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	case strings.HasSuffix(pattern, "/*"):
		prefix := strings.TrimSuffix(pattern, "/*")
		if !strings.HasPrefix(path, prefix+"/") {
			return false
		}
		rest := strings.TrimPrefix(path, prefix+"/")
		return rest != "" && !strings.Contains(rest, "/")
	default:
		return pattern == path
	}
}

// IsPublicPath 请求路径是否免认证
func IsPublicPath(path string, excludePaths []string) bool {
	for _, p := range alwaysPublicPaths {
		if path == p {
			return true
		}
	}
	for _, pattern := range excludePaths {
		if MatchExcludePath(pattern, path) {
			return true
		}
	}
	return false
}
