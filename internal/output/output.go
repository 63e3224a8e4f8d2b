// Package output 以 text、json、yaml 或 toml 格式输出命令结果。
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format 表示输出格式。
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Writer 按指定格式输出数据。
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter 创建 Writer。
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// IsText 判断是否为文本格式，命令据此决定是否输出人类可读的行。
func (w *Writer) IsText() bool {
	return w.format == FormatText || w.format == ""
}

// Write 按配置的格式输出 v。
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		// TOML 顶层必须是表。
		if kind := reflect.Indirect(reflect.ValueOf(v)).Kind(); kind == reflect.Slice || kind == reflect.Array {
			v = map[string]any{"items": v}
		}
		enc := toml.NewEncoder(w.w)
		enc.SetIndentTables(true)
		return enc.Encode(v)
	default:
		switch t := v.(type) {
		case []string:
			if len(t) == 0 {
				return nil
			}
			_, err := fmt.Fprintln(w.w, strings.Join(t, "\n"))
			return err
		case fmt.Stringer:
			_, err := fmt.Fprintln(w.w, t.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat 解析格式名称。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("output: unknown format: %s", s)
	}
}
