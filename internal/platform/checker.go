package platform

import (
	"fmt"
	"os"
	"runtime"

	"github.com/liangyou/seed/pkg/models"
)

// Checker 校验当前系统能否运行编辑器，以及安装目录是否可用。
type Checker struct {
	cfg  models.Config
	goos func() string
}

// NewChecker 创建平台检测器。
func NewChecker(cfg models.Config) *Checker {
	return &Checker{
		cfg:  cfg,
		goos: func() string { return runtime.GOOS },
	}
}

// Host 返回当前宿主平台，无法运行编辑器时返回错误。
func (c *Checker) Host() (models.Platform, error) {
	p := fromGOOS(c.goos())
	if !IsHost(p) {
		return models.PlatformUnknown, fmt.Errorf("platform: unsupported operating system %s", c.goos())
	}
	return p, nil
}

// Validate 校验当前平台与安装目录权限。
func (c *Checker) Validate() error {
	if _, err := c.Host(); err != nil {
		return err
	}

	root := c.resolveRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("platform: cannot access install directory %s: %w", root, err)
	}
	return nil
}

func (c *Checker) resolveRoot() string {
	return c.cfg.Install.ResolveRoot()
}
