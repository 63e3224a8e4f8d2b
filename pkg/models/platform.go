package models

import (
	"fmt"
	"strings"
)

// Platform 枚举引擎支持的操作系统。
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformWindows
	PlatformLinux
	PlatformMacOS
	PlatformAndroid
	PlatformIOS
)

var platformNames = map[Platform]string{
	PlatformUnknown: "unknown",
	PlatformWindows: "windows",
	PlatformLinux:   "linux",
	PlatformMacOS:   "macos",
	PlatformAndroid: "android",
	PlatformIOS:     "ios",
}

// AllPlatforms 返回全部已知平台（不含 PlatformUnknown），顺序固定。
func AllPlatforms() []Platform {
	return []Platform{PlatformWindows, PlatformLinux, PlatformMacOS, PlatformAndroid, PlatformIOS}
}

func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

// ParsePlatform 解析平台名称，同时接受 GOOS 风格的别名。
func ParsePlatform(input string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "windows", "win":
		return PlatformWindows, nil
	case "linux":
		return PlatformLinux, nil
	case "macos", "mac", "osx", "darwin":
		return PlatformMacOS, nil
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	default:
		return PlatformUnknown, fmt.Errorf("platform: unknown platform %q", input)
	}
}

// MarshalText 以名称形式输出平台。
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 与 MarshalText 对应。
func (p *Platform) UnmarshalText(data []byte) error {
	parsed, err := ParsePlatform(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
