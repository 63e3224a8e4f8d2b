package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/liangyou/seed/internal/remote"
	"github.com/liangyou/seed/internal/storage"
	"github.com/liangyou/seed/pkg/models"
)

// ErrEngineNotFound 表示目录或本地记录中没有匹配的引擎。
var ErrEngineNotFound = errors.New("engine not found")

// Lister 聚合远程目录与本地安装记录。
type Lister struct {
	catalog remote.Catalog
	storage storage.LocalStorage
}

// NewLister 创建列表服务。
func NewLister(catalog remote.Catalog, store storage.LocalStorage) *Lister {
	return &Lister{catalog: catalog, storage: store}
}

// RemoteEngines 返回目录中的引擎，从新到旧。
func (l *Lister) RemoteEngines(ctx context.Context) ([]models.Engine, error) {
	if l.catalog == nil {
		return nil, fmt.Errorf("lister: catalog is required")
	}
	return l.catalog.FetchEngines(ctx)
}

// LocalEngines 返回本地安装记录，从新到旧。
func (l *Lister) LocalEngines() ([]models.InstalledEngine, error) {
	if l.storage == nil {
		return nil, fmt.Errorf("lister: storage is required")
	}
	engines, err := l.storage.LoadEngines()
	if err != nil {
		return nil, fmt.Errorf("lister: load engines: %w", err)
	}

	sort.SliceStable(engines, func(i, j int) bool {
		if cmp := engines[i].Version.Compare(engines[j].Version); cmp != 0 {
			return cmp > 0
		}
		return engines[i].Name < engines[j].Name
	})
	return engines, nil
}

// FindRemote 按名称或版本查找引擎。版本可以只写前几段，例如 1.9 匹配 1.9.6605，
// 多个匹配时返回最新的一个。
func (l *Lister) FindRemote(ctx context.Context, query string) (models.Engine, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Engine{}, fmt.Errorf("lister: version is required")
	}

	engines, err := l.RemoteEngines(ctx)
	if err != nil {
		return models.Engine{}, err
	}

	for _, e := range engines {
		if strings.EqualFold(e.Name, query) {
			return e, nil
		}
	}

	if want, err := models.ParseVersion(query); err == nil {
		for _, e := range engines {
			if versionMatches(e.Version, want, strings.Count(query, ".")+1) {
				return e, nil
			}
		}
	}
	return models.Engine{}, fmt.Errorf("lister: %w: %s", ErrEngineNotFound, query)
}

func versionMatches(v, want models.Version, fields int) bool {
	have := [...]int{v.Major, v.Minor, v.Build, v.Revision}
	need := [...]int{want.Major, want.Minor, want.Build, want.Revision}
	for i := 0; i < fields && i < len(have); i++ {
		if have[i] != need[i] {
			return false
		}
	}
	return true
}

// FormatRemoteEngine 格式化远程引擎，例如 "Flax 1.9 (1.9.6605) - Editor, Linux"。
func FormatRemoteEngine(e models.Engine) string {
	names := make([]string, 0, len(e.Packages))
	for _, pkg := range e.Packages {
		names = append(names, pkg.Name)
	}
	return fmt.Sprintf("%s (%s) - %s", e.Name, e.Version, strings.Join(names, ", "))
}

// FormatLocalEngine 格式化本地安装记录，包含安装路径。
func FormatLocalEngine(e models.InstalledEngine) string {
	pathInfo := e.Path
	if pathInfo == "" {
		pathInfo = "(unknown path)"
	}
	return fmt.Sprintf("%s (%s) - %s [%d packages]", e.Name, e.Version, pathInfo, len(e.Packages))
}
