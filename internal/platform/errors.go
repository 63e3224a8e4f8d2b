package platform

import "fmt"

// ResolutionKind 区分解析失败的原因。
type ResolutionKind int

const (
	// MissingBasePackage 表示目录条目中没有或有多个编辑器包。
	MissingBasePackage ResolutionKind = iota + 1
	// UnsupportedPlatform 表示没有与平台匹配的安装包，不应重试。
	UnsupportedPlatform
	// UnknownPackage 表示请求的包名不在目录条目中。
	UnknownPackage
	// InvalidURL 表示无法对下载地址做平台改写。
	InvalidURL
	// InvalidTargetPath 表示包的目标路径会逃出安装目录。
	InvalidTargetPath
)

func (k ResolutionKind) String() string {
	switch k {
	case MissingBasePackage:
		return "missing base package"
	case UnsupportedPlatform:
		return "unsupported platform"
	case UnknownPackage:
		return "unknown package"
	case InvalidURL:
		return "invalid url"
	case InvalidTargetPath:
		return "invalid target path"
	default:
		return "unknown"
	}
}

// ResolutionError 描述从目录条目中选择安装包失败。
type ResolutionError struct {
	Kind   ResolutionKind
	Engine string
	Detail string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("platform: %s", e.Kind)
	if e.Engine != "" {
		msg += fmt.Sprintf(" in %s", e.Engine)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is 允许 errors.Is 按 Kind 匹配，例如 errors.Is(err, &ResolutionError{Kind: UnsupportedPlatform})。
func (e *ResolutionError) Is(target error) bool {
	t, ok := target.(*ResolutionError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
