package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefix 密文前缀，沿用旧系统的 {bcrypt} 标记格式
const bcryptPrefix = "{bcrypt}"

// CheckPassword 校验明文密码与密文是否匹配
func CheckPassword(hashed, plain string) bool {
	hashed = strings.TrimPrefix(hashed, bcryptPrefix)
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// HashPassword 生成带前缀的 bcrypt 密文
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return bcryptPrefix + string(hashed), nil
}
