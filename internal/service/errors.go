package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 统一表示"不存在"与"无权访问"两种情况,
	// 对外不区分, 避免泄露资源是否存在。
	ErrNotFound = errors.New("cv not found")
	// ErrVersionConflict 表示并发更新被乐观锁拒绝。
	ErrVersionConflict = errors.New("cv was modified concurrently")
	// ErrNotPublished 表示按公开 token 访问到的记录未处于发布状态。
	ErrNotPublished = errors.New("cv not published")
)

// ValidationFailedError 携带字段级校验错误, 供 API 层整体返回。
type ValidationFailedError struct {
	Errors []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("resume validation failed: %s", strings.Join(e.Errors, "; "))
}

// ImportFailedError 携带解析阶段的错误与警告。
type ImportFailedError struct {
	Errors   []string
	Warnings []string
}

func (e *ImportFailedError) Error() string {
	return fmt.Sprintf("import failed: %s", strings.Join(e.Errors, "; "))
}
