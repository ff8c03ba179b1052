package service

import (
	"errors"

	"gorm.io/gorm"
)

// 业务错误类别，控制器据此映射HTTP状态码
var (
	ErrNotFound  = errors.New("资源不存在")
	ErrForbidden = errors.New("无权执行该操作")
	ErrInvalid   = errors.New("请求参数错误")
	ErrConflict  = errors.New("资源冲突")
)

// Error 业务错误
type Error struct {
	Kind    error
	Message string
	// Fields 字段级错误，键为json字段名
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func invalid(msg string) error {
	return &Error{Kind: ErrInvalid, Message: msg}
}

func fieldError(field, msg string) error {
	return &Error{Kind: ErrInvalid, Message: msg, Fields: map[string]string{field: msg}}
}

func conflict(field, msg string) error {
	return &Error{Kind: ErrConflict, Message: msg, Fields: map[string]string{field: msg}}
}

// wrapDB 将记录不存在转换为业务错误，其余原样返回
func wrapDB(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(notFoundMsg)
	}
	return err
}

// wrapUnique 将唯一约束冲突转换为字段错误
func wrapUnique(err error, field, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(field, msg)
	}
	return err
}
