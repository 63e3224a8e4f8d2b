package cli

import (
	"github.com/charmbracelet/log"

	"github.com/liangyou/seed/internal/archive"
	"github.com/liangyou/seed/internal/download"
	"github.com/liangyou/seed/internal/engine"
	"github.com/liangyou/seed/internal/remote"
	"github.com/liangyou/seed/internal/storage"
	"github.com/liangyou/seed/pkg/models"
)

// DefaultServices 按配置组装真实的目录客户端、安装器与本地注册表。
func DefaultServices(cfg models.Config, logger *log.Logger) (*Services, error) {
	catalog := remote.NewClient(
		remote.WithSource(cfg.CatalogSource()),
		remote.WithTimeout(cfg.Catalog.Timeout),
		remote.WithLogger(logger),
	)
	store := storage.NewFileStorage(cfg)
	installer := engine.NewInstallerFromConfig(cfg,
		engine.WithDownloader(download.NewDownloader(download.WithLogger(logger))),
		engine.WithExtractor(archive.NewExtractor(archive.WithLogger(logger))),
		engine.WithLogger(logger),
	)

	return &Services{
		Lister:      engine.NewLister(catalog, store),
		Installer:   installer,
		Uninstaller: engine.NewUninstaller(store),
		Registry:    store,
	}, nil
}
