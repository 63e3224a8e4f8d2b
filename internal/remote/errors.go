package remote

import "fmt"

// CatalogKind 区分目录获取失败的原因。
type CatalogKind int

const (
	// ParseFailure 表示目录文档结构不合法。
	ParseFailure CatalogKind = iota + 1
	// TransportFailure 表示无法取得目录文档。
	TransportFailure
)

func (k CatalogKind) String() string {
	switch k {
	case ParseFailure:
		return "parse failure"
	case TransportFailure:
		return "transport failure"
	default:
		return "unknown"
	}
}

// CatalogError 描述一次目录获取失败，失败时不会返回任何部分结果。
type CatalogError struct {
	Kind  CatalogKind
	Cause error
}

func (e *CatalogError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("remote: %s", e.Kind)
	}
	return fmt.Sprintf("remote: %s: %v", e.Kind, e.Cause)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is 允许按 Kind 匹配。
func (e *CatalogError) Is(target error) bool {
	t, ok := target.(*CatalogError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func parseFailure(format string, args ...any) *CatalogError {
	return &CatalogError{Kind: ParseFailure, Cause: fmt.Errorf(format, args...)}
}

func transportFailure(format string, args ...any) *CatalogError {
	return &CatalogError{Kind: TransportFailure, Cause: fmt.Errorf(format, args...)}
}
