package model

import (
	"regexp"
	"strings"
)

var compilerRe = regexp.MustCompile(`pragma solidity [<>^]?=?\s*([\d.]+)`)

// TruncateString cắt chuỗi xuống độ dài tối đa cho phép
// nếu chuỗi dài hơn giới hạn
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength]
}

// FindCompilerVersion lấy version trong pragma solidity của nội dung file,
// trả về chuỗi rỗng nếu không tìm thấy
func FindCompilerVersion(content string) string {
	m := compilerRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

// FileBaseName lấy tên file không kèm extension từ path trong cây git
func FileBaseName(path string) string {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}
