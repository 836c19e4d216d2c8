package service

import "errors"

// ErrKind 业务错误分类，与传输层无关
// api 层根据 kind 映射 http 状态码，并在响应中携带稳定的 code 字符串
type ErrKind string

const (
	KindValidation  ErrKind = "validation_error" // 入参缺失或非法，调用方可修正
	KindAuth        ErrKind = "auth_error"       // 未登录或凭据错误
	KindForbidden   ErrKind = "forbidden"        // 无权访问他人数据
	KindNotFound    ErrKind = "not_found"        // 用户或凭证不存在
	KindLedger      ErrKind = "ledger_error"     // 交易失败、回滚或确认事件缺失
	KindStorage     ErrKind = "storage_error"    // 数据库或内容存储不可用
	KindMalformedID ErrKind = "malformed_id"     // 凭证 id 无法解码
	KindInternal    ErrKind = "internal_error"
)

type Error struct {
	Kind    ErrKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E 构造业务错误
func E(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapE 包装底层错误并打上分类
func WrapE(err error, kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf 取出错误分类，非业务错误一律视为 internal
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
