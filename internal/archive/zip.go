package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/liangyou/seed/internal/progress"
)

const maxLinkSize = 4096

var (
	zipLocalHeader = []byte("PK\x03\x04")
	zipEmptyHeader = []byte("PK\x05\x06")
)

// ZipHandler 解压 zip 压缩包。
type ZipHandler struct{}

func (ZipHandler) Name() string { return "zip" }

func (ZipHandler) Match(path string, header []byte) bool {
	if bytes.HasPrefix(header, zipLocalHeader) || bytes.HasPrefix(header, zipEmptyHeader) {
		return true
	}
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func (ZipHandler) Extract(ctx context.Context, archivePath, targetDir string, tracker *progress.Tracker) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return corrupt(archivePath, err)
	}
	defer reader.Close()

	var totalBytes int64
	for _, f := range reader.File {
		if !f.FileInfo().IsDir() {
			totalBytes += int64(f.UncompressedSize64)
		}
	}
	totalEntries := int64(len(reader.File))

	var doneBytes int64
	for i, f := range reader.File {
		if ctx.Err() != nil {
			return cancelled(ctx)
		}

		target, err := safeJoin(targetDir, f.Name)
		if err != nil {
			return corrupt(archivePath, err)
		}
		if target != "" {
			if extractErr := extractZipEntry(ctx, targetDir, target, f, func(n int64) {
				doneBytes += n
				if totalBytes > 0 {
					tracker.Ratio(doneBytes, totalBytes)
				}
			}); extractErr != nil {
				return extractErr
			}
		}

		if totalBytes == 0 {
			tracker.Ratio(int64(i+1), totalEntries)
		}
	}
	return nil
}

func extractZipEntry(ctx context.Context, root, target string, f *zip.File, onBytes func(int64)) *ExtractError {
	mode := f.Mode()
	switch {
	case f.FileInfo().IsDir():
		dir, err := realSource(root, target)
		if err != nil {
			return corrupt(f.Name, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioFailure(target, err)
		}
		return nil
	case mode&os.ModeSymlink != 0:
		return extractZipSymlink(root, target, f)
	}

	target, err := realTarget(root, target)
	if err != nil {
		return corrupt(f.Name, err)
	}
	if err := removeLink(target); err != nil {
		return ioFailure(target, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ioFailure(target, err)
	}

	src, err := f.Open()
	if err != nil {
		return corrupt(f.Name, err)
	}
	defer src.Close()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return ioFailure(target, err)
	}
	if extractErr := copyEntry(ctx, f.Name, out, src, onBytes); extractErr != nil {
		out.Close()
		return extractErr
	}
	if err := out.Close(); err != nil {
		return ioFailure(target, err)
	}
	if err := os.Chmod(target, perm); err != nil {
		return ioFailure(target, err)
	}
	return nil
}

func extractZipSymlink(root, target string, f *zip.File) *ExtractError {
	src, err := f.Open()
	if err != nil {
		return corrupt(f.Name, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxLinkSize))
	if err != nil {
		return corrupt(f.Name, err)
	}
	linkTarget := string(data)
	target, err = realTarget(root, target)
	if err != nil {
		return corrupt(f.Name, err)
	}
	if err := safeLink(root, target, linkTarget); err != nil {
		return corrupt(f.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ioFailure(target, err)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return ioFailure(target, err)
	}
	if err := os.Symlink(linkTarget, target); err != nil {
		return ioFailure(target, err)
	}
	return nil
}
