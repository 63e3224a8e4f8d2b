package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const maxVersionFields = 4

// Version 表示引擎的点分数字版本号，例如 1.9.6605，最多 4 段。
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int
	fields   int
}

// ParseVersion 严格解析点分数字版本，任何非数字段都会返回错误。
func ParseVersion(input string) (Version, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Version{}, fmt.Errorf("version: empty string")
	}
	parts := strings.Split(raw, ".")
	if len(parts) > maxVersionFields {
		return Version{}, fmt.Errorf("version: too many components in %q", input)
	}

	var values [maxVersionFields]int
	for i, part := range parts {
		if part == "" {
			return Version{}, fmt.Errorf("version: empty component in %q", input)
		}
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return Version{}, fmt.Errorf("version: invalid component %q in %q", part, input)
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("version: invalid component %q: %w", part, err)
		}
		values[i] = n
	}

	return Version{
		Major:    values[0],
		Minor:    values[1],
		Build:    values[2],
		Revision: values[3],
		fields:   len(parts),
	}, nil
}

// MustParseVersion 供测试与常量使用，解析失败直接 panic。
func MustParseVersion(input string) Version {
	v, err := ParseVersion(input)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare 逐段比较版本号，缺失的尾段视为 0。返回 1 表示 v 较新。
func (v Version) Compare(other Version) int {
	a := v.components()
	b := other.components()
	for i := range a {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	return 0
}

// Equal 判断两个版本是否相同（1.9 与 1.9.0 视为相同）。
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Less 判断 v 是否早于 other。
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// IsZero 判断版本是否未设置。
func (v Version) IsZero() bool {
	return v.fields == 0 && v.components() == [maxVersionFields]int{}
}

func (v Version) String() string {
	n := v.fields
	if n == 0 {
		n = 3
	}
	values := v.components()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.Itoa(values[i])
	}
	return strings.Join(parts, ".")
}

// MarshalJSON 以字符串形式输出版本号。
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON 只接受字符串形式的版本号。
func (v *Version) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("version: expected string: %w", err)
	}
	parsed, err := ParseVersion(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText 让 yaml/toml 编码器输出字符串。
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText 与 MarshalText 对应。
func (v *Version) UnmarshalText(data []byte) error {
	parsed, err := ParseVersion(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Version) components() [maxVersionFields]int {
	return [maxVersionFields]int{v.Major, v.Minor, v.Build, v.Revision}
}
