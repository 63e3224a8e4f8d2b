package archive

import (
	"context"
	"errors"
	"fmt"
)

// ErrIllegalPath 表示压缩包条目会被写到目标目录之外。
var ErrIllegalPath = errors.New("illegal path in archive")

// Kind 区分解压失败的原因。
type Kind int

const (
	// CorruptArchive 表示压缩包结构损坏或包含非法条目。
	CorruptArchive Kind = iota + 1
	// IOFailure 表示写入目标目录失败。
	IOFailure
	// UnsupportedFormat 表示没有能处理该文件的 Handler。
	UnsupportedFormat
	// Cancelled 表示调用方主动取消。
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case CorruptArchive:
		return "corrupt archive"
	case IOFailure:
		return "io failure"
	case UnsupportedFormat:
		return "unsupported format"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ExtractError 描述一次解压失败。失败后目标目录处于未定义的部分状态，调用方应整体删除后重试。
type ExtractError struct {
	Kind  Kind
	Path  string
	Cause error
}

func (e *ExtractError) Error() string {
	msg := fmt.Sprintf("archive: %s", e.Kind)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// Is 允许按 Kind 匹配，例如 errors.Is(err, &ExtractError{Kind: CorruptArchive})。
func (e *ExtractError) Is(target error) bool {
	t, ok := target.(*ExtractError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func corrupt(path string, err error) *ExtractError {
	return &ExtractError{Kind: CorruptArchive, Path: path, Cause: err}
}

func ioFailure(path string, err error) *ExtractError {
	return &ExtractError{Kind: IOFailure, Path: path, Cause: err}
}

func cancelled(ctx context.Context) *ExtractError {
	return &ExtractError{Kind: Cancelled, Cause: ctx.Err()}
}
