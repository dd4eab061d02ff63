package model

import (
	"errors"
	"fmt"
)

// Kind 错误分类，只有传输错误和参数错误两种
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTransport
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TransportError"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

var (
	// ErrTransport 用于 errors.Is 判断网络/API 失败
	ErrTransport = errors.New("transport error")
	// ErrInvalidArgument 用于 errors.Is 判断参数错误
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error 带分类和操作名的错误
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrTransport) 按分类匹配
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindTransport:
		return target == ErrTransport
	case KindInvalidArgument:
		return target == ErrInvalidArgument
	}
	return false
}

// Transport 包装一个传输错误
func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// InvalidArgument 构造一个参数错误
func InvalidArgument(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf 取出错误分类
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
