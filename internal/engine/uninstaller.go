package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/liangyou/seed/internal/storage"
	"github.com/liangyou/seed/pkg/models"
)

// Uninstaller 删除本地已安装的引擎。
type Uninstaller struct {
	storage storage.LocalStorage
}

// NewUninstaller 创建卸载器。
func NewUninstaller(store storage.LocalStorage) *Uninstaller {
	return &Uninstaller{storage: store}
}

// Uninstall 删除指定引擎的目录与记录，返回剩余的记录。
func (u *Uninstaller) Uninstall(name string) ([]models.InstalledEngine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("uninstaller: engine name is required")
	}
	if u.storage == nil {
		return nil, errors.New("uninstaller: storage is required")
	}

	engines, err := u.storage.LoadEngines()
	if err != nil {
		return nil, fmt.Errorf("uninstaller: load engines: %w", err)
	}

	var target *models.InstalledEngine
	for i := range engines {
		if engines[i].Name == name {
			target = &engines[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("uninstaller: %w: %s not installed", ErrEngineNotFound, name)
	}

	// 旧记录可能缺少路径，按约定的目录布局推算。
	dir := target.Path
	if dir == "" {
		dir = u.storage.GetInstallPath(target.Name)
	}
	if !insideRoot(u.storage.Root(), dir) {
		return nil, fmt.Errorf("uninstaller: refusing to remove %s outside install root", dir)
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("uninstaller: remove dir: %w", err)
	}

	if err := u.storage.DeleteEngine(target.Name); err != nil {
		return nil, fmt.Errorf("uninstaller: delete record: %w", err)
	}

	remaining, err := u.storage.LoadEngines()
	if err != nil {
		return nil, fmt.Errorf("uninstaller: reload engines: %w", err)
	}
	return remaining, nil
}

func insideRoot(root, target string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	return strings.HasPrefix(absTarget, absRoot+string(filepath.Separator))
}
