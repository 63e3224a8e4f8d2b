package models

import (
	"os"
	"path/filepath"
	"time"
)

// CatalogSourceKind 区分远程目录与本地文件。
type CatalogSourceKind int

const (
	CatalogRemote CatalogSourceKind = iota
	CatalogLocal
)

// CatalogSource 指定版本目录的来源。
type CatalogSource struct {
	Kind     CatalogSourceKind
	Location string // URL 或本地文件路径
}

// RemoteCatalog 构造远程目录来源。
func RemoteCatalog(url string) CatalogSource {
	return CatalogSource{Kind: CatalogRemote, Location: url}
}

// LocalCatalog 构造本地文件目录来源，通常用于测试与离线调试。
func LocalCatalog(path string) CatalogSource {
	return CatalogSource{Kind: CatalogLocal, Location: path}
}

// Config 保存 seed 的运行时配置。
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Install InstallConfig `mapstructure:"install"`
	Log     LogConfig     `mapstructure:"log"`
}

// CatalogConfig 描述版本目录相关配置。
type CatalogConfig struct {
	URL     string        `mapstructure:"url"`
	File    string        `mapstructure:"file"` // 非空时使用本地文件
	Timeout time.Duration `mapstructure:"timeout"`
}

// InstallConfig 描述安装相关配置。
type InstallConfig struct {
	Root            string `mapstructure:"root"`
	TempDir         string `mapstructure:"temp_dir"`
	DeleteTempFiles bool   `mapstructure:"delete_temp_files"`
}

// LogConfig 描述日志配置。
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogSource 根据配置返回目录来源，本地文件优先。
func (c Config) CatalogSource() CatalogSource {
	if c.Catalog.File != "" {
		return LocalCatalog(c.Catalog.File)
	}
	return RemoteCatalog(c.Catalog.URL)
}

// ResolveRoot 返回安装根目录，未配置时使用 ~/.seed/engines。
func (c InstallConfig) ResolveRoot() string {
	if c.Root != "" {
		return c.Root
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".seed", "engines")
	}
	return filepath.Join(os.TempDir(), "seed", "engines")
}
