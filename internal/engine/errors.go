package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/liangyou/seed/internal/archive"
	"github.com/liangyou/seed/internal/download"
	"github.com/liangyou/seed/internal/remote"
)

// InstallKind 标记安装在哪个阶段失败。
type InstallKind int

const (
	// DownloadFailed 表示下载阶段失败。
	DownloadFailed InstallKind = iota + 1
	// ExtractFailed 表示解压阶段失败。
	ExtractFailed
	// ResolutionFailed 表示无法确定下载地址或安装目录。
	ResolutionFailed
)

func (k InstallKind) String() string {
	switch k {
	case DownloadFailed:
		return "download failed"
	case ExtractFailed:
		return "extract failed"
	case ResolutionFailed:
		return "resolution failed"
	default:
		return "unknown"
	}
}

// InstallError 指明失败的包与阶段，调用方可据此只重试该包。
type InstallError struct {
	Kind    InstallKind
	Package string
	Cause   error
}

func (e *InstallError) Error() string {
	if e.Package == "" {
		return fmt.Sprintf("engine: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("engine: %s %s: %v", e.Kind, e.Package, e.Cause)
}

func (e *InstallError) Unwrap() error {
	return e.Cause
}

// Is 允许按 Kind 匹配；Package 非空时同时比较包名。
func (e *InstallError) Is(target error) bool {
	t, ok := target.(*InstallError)
	if !ok {
		return false
	}
	if t.Package != "" && t.Package != e.Package {
		return false
	}
	return t.Kind == e.Kind
}

// IsCancelled 判断错误是否源自用户主动取消，这类结果不应作为故障展示。
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &download.TransferError{Kind: download.Cancelled}) ||
		errors.Is(err, &archive.ExtractError{Kind: archive.Cancelled}) ||
		errors.Is(err, context.Canceled)
}

// Retryable 判断错误是否可能通过重试解决。
// 网络与本地 IO 失败可以重试；平台不匹配、目录缺少编辑器包和取消不可重试。
func Retryable(err error) bool {
	if err == nil || IsCancelled(err) {
		return false
	}

	var transferErr *download.TransferError
	if errors.As(err, &transferErr) {
		switch transferErr.Kind {
		case download.NetworkFailure, download.IOFailure:
			return true
		case download.HTTPStatus:
			return transferErr.Code >= http.StatusInternalServerError || transferErr.Code == http.StatusTooManyRequests
		}
		return false
	}

	var extractErr *archive.ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Kind == archive.IOFailure
	}

	var catalogErr *remote.CatalogError
	if errors.As(err, &catalogErr) {
		return catalogErr.Kind == remote.TransportFailure
	}

	return false
}
