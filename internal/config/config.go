// Package config 从配置文件、环境变量与 .env 文件加载 seed 的运行时配置。
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/liangyou/seed/internal/remote"
	"github.com/liangyou/seed/pkg/models"
)

const (
	// AppName 是应用名称，也是配置目录名。
	AppName = "seed"
	// ConfigFileName 是配置文件名（不含扩展名），支持 yaml、toml、json。
	ConfigFileName = "seed"
	// EnvPrefix 是环境变量前缀，例如 SEED_INSTALL_ROOT。
	EnvPrefix = "SEED"
)

// DefaultEnvFiles 是默认尝试加载的 .env 文件，已存在的环境变量不会被覆盖。
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadOptions 控制配置加载来源。
type LoadOptions struct {
	// ConfigFilePath 指定配置文件，设置后必须存在。
	ConfigFilePath string
	// ConfigDirPath 覆盖默认配置目录。
	ConfigDirPath string
	// EnvFiles 覆盖默认的 .env 文件列表。
	EnvFiles []string
}

// DefaultConfig 返回默认配置。
func DefaultConfig() models.Config {
	return models.Config{
		Catalog: models.CatalogConfig{
			URL:     remote.DefaultCatalogURL,
			Timeout: 30 * time.Second,
		},
		Install: models.InstallConfig{
			DeleteTempFiles: true,
		},
		Log: models.LogConfig{Level: "warn"},
	}
}

// ConfigDir 返回平台约定的配置目录，例如 ~/.config/seed。
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Load 按 默认值 < 配置文件 < 环境变量 的优先级合并配置，返回配置与实际使用的配置文件路径。
func Load(ctx context.Context, opts LoadOptions) (models.Config, string, error) {
	select {
	case <-ctx.Done():
		return models.Config{}, "", fmt.Errorf("config: load canceled: %w", ctx.Err())
	default:
	}

	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = DefaultEnvFiles
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return models.Config{}, "", err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFilePath != "" {
		if _, err := os.Stat(opts.ConfigFilePath); err != nil {
			return models.Config{}, "", fmt.Errorf("config: config file not found: %w", err)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return models.Config{}, "", fmt.Errorf("config: read %s: %w", opts.ConfigFilePath, err)
		}
	} else {
		dir := opts.ConfigDirPath
		if dir == "" {
			var err error
			if dir, err = ConfigDir(); err != nil {
				return models.Config{}, "", err
			}
		}
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return models.Config{}, "", fmt.Errorf("config: read config: %w", err)
			}
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return models.Config{}, "", fmt.Errorf("config: parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return models.Config{}, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// Validate 检查配置取值。
func Validate(cfg models.Config) error {
	if cfg.Catalog.File == "" && strings.TrimSpace(cfg.Catalog.URL) == "" {
		return errors.New("config: catalog.url or catalog.file is required")
	}
	if cfg.Catalog.Timeout <= 0 {
		return fmt.Errorf("config: catalog.timeout must be positive, got %s", cfg.Catalog.Timeout)
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg models.Config) {
	v.SetDefault("catalog.url", cfg.Catalog.URL)
	v.SetDefault("catalog.file", cfg.Catalog.File)
	v.SetDefault("catalog.timeout", cfg.Catalog.Timeout)
	v.SetDefault("install.root", cfg.Install.Root)
	v.SetDefault("install.temp_dir", cfg.Install.TempDir)
	v.SetDefault("install.delete_temp_files", cfg.Install.DeleteTempFiles)
	v.SetDefault("log.level", cfg.Log.Level)
}

func loadEnvFiles(files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}
