package download

import (
	"context"
	"errors"
	"fmt"
)

// Kind 区分传输失败的原因。
type Kind int

const (
	// NetworkFailure 表示连接或读取响应失败，可由调用方重试。
	NetworkFailure Kind = iota + 1
	// HTTPStatus 表示服务端返回非成功状态码。
	HTTPStatus
	// IOFailure 表示写入本地文件失败。
	IOFailure
	// Cancelled 表示调用方主动取消。
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case HTTPStatus:
		return "http status"
	case IOFailure:
		return "io failure"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TransferError 描述一次下载失败。
type TransferError struct {
	Kind  Kind
	URL   string
	Code  int // 仅 Kind == HTTPStatus 时有效
	Cause error
}

func (e *TransferError) Error() string {
	switch {
	case e.Kind == HTTPStatus:
		return fmt.Sprintf("download: unexpected status %d from %s", e.Code, e.URL)
	case e.Cause != nil:
		return fmt.Sprintf("download: %s: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("download: %s", e.Kind)
	}
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

// Is 允许按 Kind 匹配，例如 errors.Is(err, &TransferError{Kind: Cancelled})。
func (e *TransferError) Is(target error) bool {
	t, ok := target.(*TransferError)
	if !ok {
		return false
	}
	if t.Kind == HTTPStatus && t.Code != 0 {
		return e.Kind == HTTPStatus && e.Code == t.Code
	}
	return t.Kind == e.Kind
}

// classify 将请求阶段的错误区分为取消与网络错误。
func classify(ctx context.Context, url string, err error) *TransferError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &TransferError{Kind: Cancelled, URL: url, Cause: ctxErr}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransferError{Kind: Cancelled, URL: url, Cause: err}
	}
	return &TransferError{Kind: NetworkFailure, URL: url, Cause: err}
}
