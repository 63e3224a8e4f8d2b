// Package engine 编排引擎版本的下载、解压与安装，并提供列表与卸载等辅助功能。
package engine

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/liangyou/seed/internal/archive"
	"github.com/liangyou/seed/internal/download"
	"github.com/liangyou/seed/internal/platform"
	"github.com/liangyou/seed/internal/progress"
	"github.com/liangyou/seed/pkg/models"
)

// Downloader 将远程文件写入本地路径。
type Downloader interface {
	Download(ctx context.Context, url, dest string, report progress.Func) error
}

// Extractor 将压缩包解压到目标目录。
type Extractor interface {
	Extract(ctx context.Context, archivePath, targetDir string, report progress.Func) error
}

// ProgressFunc 接收带阶段标签的进度事件。
type ProgressFunc func(models.ProgressEvent)

// Request 描述一次安装：引擎条目、额外选择的包、安装根目录与目标平台。
type Request struct {
	Engine   models.Engine
	Packages []string
	Root     string
	Platform models.Platform
}

// Installer 依次下载并解压各个包。同一安装根目录同一时刻只能有一个安装在进行。
type Installer struct {
	downloader Downloader
	extractor  Extractor
	tempDir    string
	deleteTemp bool
	logger     *log.Logger
	now        func() time.Time
}

// InstallerOption 配置 Installer。
type InstallerOption func(*Installer)

// WithDownloader 替换下载实现。
func WithDownloader(d Downloader) InstallerOption {
	return func(i *Installer) {
		if d != nil {
			i.downloader = d
		}
	}
}

// WithExtractor 替换解压实现。
func WithExtractor(e Extractor) InstallerOption {
	return func(i *Installer) {
		if e != nil {
			i.extractor = e
		}
	}
}

// WithTempDir 指定临时文件目录，空字符串表示系统默认目录。
func WithTempDir(dir string) InstallerOption {
	return func(i *Installer) {
		i.tempDir = dir
	}
}

// WithDeleteTempFiles 控制安装结束后是否删除下载的临时文件。
func WithDeleteTempFiles(enabled bool) InstallerOption {
	return func(i *Installer) {
		i.deleteTemp = enabled
	}
}

// WithLogger 指定日志记录器。
func WithLogger(logger *log.Logger) InstallerOption {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInstaller 创建 Installer，默认使用真实的下载器与解压器并清理临时文件。
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{
		deleteTemp: true,
		logger:     log.New(io.Discard),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.downloader == nil {
		i.downloader = download.NewDownloader(download.WithLogger(i.logger))
	}
	if i.extractor == nil {
		i.extractor = archive.NewExtractor(archive.WithLogger(i.logger))
	}
	return i
}

// NewInstallerFromConfig 按配置创建 Installer。
func NewInstallerFromConfig(cfg models.Config, opts ...InstallerOption) *Installer {
	base := []InstallerOption{
		WithTempDir(cfg.Install.TempDir),
		WithDeleteTempFiles(cfg.Install.DeleteTempFiles),
	}
	return NewInstaller(append(base, opts...)...)
}

// DefaultSelection 返回除编辑器外标记为 required 或 default 的包名。
func DefaultSelection(engine models.Engine) []string {
	var names []string
	for _, pkg := range engine.Packages {
		if platform.ClassOf(pkg).Kind == models.PackageBase {
			continue
		}
		if pkg.IsRequired() || pkg.IsDefault() {
			names = append(names, pkg.Name)
		}
	}
	return names
}

// Plan 计算安装顺序：编辑器包在前，其余按目录顺序；required 的包总会加入。
func Plan(engine models.Engine, selected []string) ([]models.Package, error) {
	base, err := platform.ResolveBasePackage(engine)
	if err != nil {
		return nil, &InstallError{Kind: ResolutionFailed, Package: platform.EditorPackage, Cause: err}
	}

	wanted := make(map[string]bool, len(selected))
	for _, name := range selected {
		name = strings.TrimSpace(name)
		if name == "" || name == base.Name {
			continue
		}
		if _, ok := engine.FindPackage(name); !ok {
			return nil, &InstallError{
				Kind:    ResolutionFailed,
				Package: name,
				Cause:   &platform.ResolutionError{Kind: platform.UnknownPackage, Engine: engine.Name, Detail: name},
			}
		}
		wanted[name] = true
	}

	plan := []models.Package{base}
	for _, pkg := range engine.Packages {
		if pkg.Name == base.Name {
			continue
		}
		if wanted[pkg.Name] || pkg.IsRequired() {
			plan = append(plan, pkg)
			delete(wanted, pkg.Name)
		}
	}
	return plan, nil
}

// Install 按顺序安装编辑器与所选包。任一包失败即中止，已安装的包保留在磁盘上。
// 成功时返回的记录中每个包一条，第一条总是编辑器。
func (i *Installer) Install(ctx context.Context, req Request, report ProgressFunc) (*models.InstalledEngine, error) {
	plan, err := Plan(req.Engine, req.Packages)
	if err != nil {
		i.logger.Error("install plan failed", "engine", req.Engine.Name, "err", err)
		return nil, err
	}

	root, err := filepath.Abs(req.Root)
	if err != nil {
		return nil, &InstallError{Kind: ResolutionFailed, Package: plan[0].Name, Cause: fmt.Errorf("resolve install root: %w", err)}
	}

	i.logger.Info("installing engine", "engine", req.Engine.Name, "version", req.Engine.Version, "packages", len(plan), "platform", req.Platform)

	installed := make([]models.InstalledPackage, 0, len(plan))
	for idx, pkg := range plan {
		record, err := i.installOne(ctx, req.Engine, pkg, root, req.Platform, idx+1, len(plan), report)
		if err != nil {
			if IsCancelled(err) {
				i.logger.Warn("install cancelled", "engine", req.Engine.Name, "package", pkg.Name)
			} else {
				i.logger.Error("install failed", "engine", req.Engine.Name, "package", pkg.Name, "err", err)
			}
			return nil, err
		}
		installed = append(installed, record)
	}

	result := &models.InstalledEngine{
		Name:        req.Engine.Name,
		Version:     req.Engine.Version,
		Path:        filepath.Join(root, req.Engine.Name),
		Packages:    installed,
		InstalledAt: i.now().UTC(),
	}
	i.logger.Info("engine installed", "engine", result.Name, "path", result.Path)
	return result, nil
}

// InstallPackage 单独安装一个包，供调用方在 Install 失败后重试该包。
func (i *Installer) InstallPackage(ctx context.Context, engine models.Engine, name, root string, p models.Platform, report ProgressFunc) (*models.InstalledPackage, error) {
	pkg, ok := engine.FindPackage(name)
	if !ok {
		return nil, &InstallError{
			Kind:    ResolutionFailed,
			Package: name,
			Cause:   &platform.ResolutionError{Kind: platform.UnknownPackage, Engine: engine.Name, Detail: name},
		}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &InstallError{Kind: ResolutionFailed, Package: name, Cause: fmt.Errorf("resolve install root: %w", err)}
	}

	record, err := i.installOne(ctx, engine, pkg, absRoot, p, 1, 1, report)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (i *Installer) installOne(ctx context.Context, engine models.Engine, pkg models.Package, root string, p models.Platform, index, total int, report ProgressFunc) (models.InstalledPackage, error) {
	src, err := platform.PackageURL(pkg, p)
	if err != nil {
		return models.InstalledPackage{}, &InstallError{Kind: ResolutionFailed, Package: pkg.Name, Cause: err}
	}
	targetDir, err := platform.InstallDir(root, engine, pkg)
	if err != nil {
		return models.InstalledPackage{}, &InstallError{Kind: ResolutionFailed, Package: pkg.Name, Cause: err}
	}

	tempPath, err := i.createTemp(src)
	if err != nil {
		return models.InstalledPackage{}, &InstallError{
			Kind:    DownloadFailed,
			Package: pkg.Name,
			Cause:   &download.TransferError{Kind: download.IOFailure, URL: src, Cause: err},
		}
	}
	if i.deleteTemp {
		defer func() {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				i.logger.Warn("remove temp file", "path", tempPath, "err", err)
			}
		}()
	}

	i.logger.Debug("downloading package", "package", pkg.Name, "url", src, "temp", tempPath)
	if err := i.downloader.Download(ctx, src, tempPath, stageReporter(report, pkg.Name, models.StageDownload, index, total)); err != nil {
		return models.InstalledPackage{}, &InstallError{Kind: DownloadFailed, Package: pkg.Name, Cause: err}
	}

	i.logger.Debug("extracting package", "package", pkg.Name, "target", targetDir)
	if err := i.extractor.Extract(ctx, tempPath, targetDir, stageReporter(report, pkg.Name, models.StageExtract, index, total)); err != nil {
		return models.InstalledPackage{}, &InstallError{Kind: ExtractFailed, Package: pkg.Name, Cause: err}
	}

	i.logger.Info("package installed", "package", pkg.Name, "path", targetDir)
	return models.InstalledPackage{Name: pkg.Name, Path: targetDir}, nil
}

// createTemp 创建私有临时文件，保留下载地址的扩展名以便按扩展名识别格式。
func (i *Installer) createTemp(src string) (string, error) {
	if i.tempDir != "" {
		if err := os.MkdirAll(i.tempDir, 0o755); err != nil {
			return "", err
		}
	}
	file, err := os.CreateTemp(i.tempDir, "seed-*"+archiveExt(src))
	if err != nil {
		return "", err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func archiveExt(src string) string {
	p := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		p = u.Path
	}
	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".tar.gz") {
		return ".tar.gz"
	}
	ext := path.Ext(p)
	if strings.ContainsAny(ext, `/\*`) {
		return ""
	}
	return ext
}

func stageReporter(report ProgressFunc, name string, stage models.Stage, index, total int) progress.Func {
	if report == nil {
		return nil
	}
	label := progress.Label(stage, name)
	return func(fraction float64) {
		report(models.ProgressEvent{
			Package:  name,
			Stage:    stage,
			Label:    label,
			Fraction: fraction,
			Index:    index,
			Total:    total,
		})
	}
}
