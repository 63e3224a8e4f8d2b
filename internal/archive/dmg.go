package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/liangyou/seed/internal/progress"
)

// DMGHandler 通过 hdiutil 挂载磁盘镜像并复制其中的内容，仅在 macOS 上可用。
type DMGHandler struct {
	run commandRunner
}

// NewDMGHandler 创建 DMGHandler，run 为 nil 时使用系统命令。
func NewDMGHandler(run commandRunner) *DMGHandler {
	if run == nil {
		run = execRunner
	}
	return &DMGHandler{run: run}
}

func (h *DMGHandler) Name() string { return "dmg" }

func (h *DMGHandler) Match(path string, _ []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".dmg")
}

func (h *DMGHandler) Extract(ctx context.Context, archivePath, targetDir string, tracker *progress.Tracker) error {
	mountDir, err := os.MkdirTemp("", "seed-dmg-*")
	if err != nil {
		return ioFailure(archivePath, fmt.Errorf("create mount point: %w", err))
	}
	defer os.RemoveAll(mountDir)

	if err := h.run(ctx, "hdiutil", "attach", "-nobrowse", "-readonly", "-noautoopen", "-mountpoint", mountDir, archivePath); err != nil {
		return commandError(ctx, archivePath, err)
	}
	defer func() {
		_ = h.run(context.Background(), "hdiutil", "detach", "-quiet", mountDir)
	}()

	return copyTree(ctx, mountDir, targetDir, tracker)
}

// copyTree 将挂载目录复制到 targetDir，指向目录之外的符号链接被跳过（例如 Applications 快捷方式）。
func copyTree(ctx context.Context, srcRoot, targetDir string, tracker *progress.Tracker) error {
	var total int64
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return corrupt(srcRoot, err)
	}

	var done int64
	return filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return corrupt(path, walkErr)
		}
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return corrupt(path, err)
		}
		target, err := safeJoin(targetDir, filepath.ToSlash(rel))
		if err != nil {
			return corrupt(path, err)
		}
		if target == "" {
			return nil
		}

		if d.IsDir() {
			dir, err := realSource(targetDir, target)
			if err != nil {
				return corrupt(path, err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return ioFailure(target, err)
			}
			return nil
		}
		target, err = realTarget(targetDir, target)
		if err != nil {
			return corrupt(path, err)
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return corrupt(path, err)
			}
			if safeLink(targetDir, target, link) != nil {
				return nil
			}
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return ioFailure(target, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return ioFailure(target, err)
			}
		case d.Type().IsRegular():
			if err := removeLink(target); err != nil {
				return ioFailure(target, err)
			}
			if extractErr := copyFile(ctx, path, target, func(n int64) {
				done += n
				tracker.Ratio(done, total)
			}); extractErr != nil {
				return extractErr
			}
		}
		return nil
	})
}

func copyFile(ctx context.Context, src, dst string, onBytes func(int64)) *ExtractError {
	in, err := os.Open(src)
	if err != nil {
		return corrupt(src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return corrupt(src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ioFailure(dst, err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return ioFailure(dst, err)
	}
	if extractErr := copyEntry(ctx, src, out, in, onBytes); extractErr != nil {
		out.Close()
		return extractErr
	}
	if err := out.Close(); err != nil {
		return ioFailure(dst, err)
	}
	return nil
}

// commandError 将外部命令失败映射为 ExtractError。
func commandError(ctx context.Context, archivePath string, err error) *ExtractError {
	switch {
	case ctx.Err() != nil:
		return cancelled(ctx)
	case errors.Is(err, exec.ErrNotFound):
		return &ExtractError{Kind: UnsupportedFormat, Path: archivePath, Cause: err}
	default:
		return corrupt(archivePath, err)
	}
}
