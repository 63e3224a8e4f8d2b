package models

import "time"

// PackageKind 描述安装包的类别。
type PackageKind int

const (
	// PackageOther 表示名称无法识别的附加包，只能按名称安装。
	PackageOther PackageKind = iota
	// PackageBase 表示编辑器基础包，每个引擎版本必须且只能有一个。
	PackageBase
	// PackageTools 表示某个平台的工具包。
	PackageTools
)

func (k PackageKind) String() string {
	switch k {
	case PackageBase:
		return "base"
	case PackageTools:
		return "tools"
	default:
		return "other"
	}
}

// MarshalText 以名称形式输出类别。
func (k PackageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// PackageClass 是根据包名计算出的分类结果，解析目录时计算一次后随包携带。
type PackageClass struct {
	Kind     PackageKind `json:"kind" yaml:"kind" toml:"kind"`
	Platform Platform    `json:"platform,omitempty" yaml:"platform,omitempty" toml:"platform,omitempty"`
}

// Package 描述远程目录中的一个可下载单元。
type Package struct {
	Name       string       `json:"name" yaml:"name" toml:"name"`
	Required   *bool        `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Default    *bool        `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	TargetPath string       `json:"targetPath" yaml:"targetPath" toml:"targetPath"`
	URL        string       `json:"url" yaml:"url" toml:"url"`
	Class      PackageClass `json:"-" yaml:"class" toml:"class"`
}

// IsBase 判断是否为编辑器基础包。
func (p Package) IsBase() bool {
	return p.Class.Kind == PackageBase
}

// IsRequired 返回 required 标记，缺省为 false。
func (p Package) IsRequired() bool {
	return p.Required != nil && *p.Required
}

// IsDefault 返回 default 标记，缺省为 false。
func (p Package) IsDefault() bool {
	return p.Default != nil && *p.Default
}

// Engine 描述远程目录中的一个引擎版本及其安装包列表，构造后不再修改。
type Engine struct {
	Name     string    `json:"name" yaml:"name" toml:"name"`
	Version  Version   `json:"version" yaml:"version" toml:"version"`
	Packages []Package `json:"packages" yaml:"packages" toml:"packages"`
}

// FindPackage 按名称查找安装包。
func (e Engine) FindPackage(name string) (Package, bool) {
	for _, pkg := range e.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return Package{}, false
}

// InstalledPackage 记录已成功解压的安装包。
type InstalledPackage struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Path string `json:"path" yaml:"path" toml:"path"`
}

// InstalledEngine 是一次完整安装成功后的结果。
type InstalledEngine struct {
	Name        string             `json:"name" yaml:"name" toml:"name"`
	Version     Version            `json:"version" yaml:"version" toml:"version"`
	Path        string             `json:"path" yaml:"path" toml:"path"`
	Packages    []InstalledPackage `json:"packages" yaml:"packages" toml:"packages"`
	InstalledAt time.Time          `json:"installedAt" yaml:"installedAt" toml:"installedAt"`
}
