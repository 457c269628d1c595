// Package apperr 定义核心层统一的错误分类。
// 规则引擎、守卫和仓储只返回这里的类型，由传输层统一映射到响应码。
package apperr

import "fmt"

type Kind int

const (
	KindUnauthenticated Kind = iota
	KindForbidden
	KindInvariant  // 结构性不变量被破坏（最后一个 admin/owner 等）
	KindNotFound
	KindValidation
	KindConflict
	KindInternal
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error // 内部错误的原始 cause
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "application error"
}

func (e *Error) Unwrap() error { return e.Err }

func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Msg: msg} }
func Invariant(msg string) error       { return &Error{Kind: KindInvariant, Msg: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Msg: msg} }

func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Msg: entity + " not found"}
}

func Validation(field, reason string) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf("%s: %s", field, reason)}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
