package util

import (
	"regexp"
	"strconv"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ParseDayNumber 解析路径中的天数，非正整数返回 ErrInvalidDay
func ParseDayNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidDay
	}
	return CheckDayNumber(n)
}

// CheckDayNumber 天数必须为正整数，上限由服务按目录长度判断
func CheckDayNumber(n int) (int, error) {
	if n < 1 {
		return 0, ErrInvalidDay
	}
	return n, nil
}

// ValidUserID 用户 ID 仅允许字母数字及 _ . -
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}
