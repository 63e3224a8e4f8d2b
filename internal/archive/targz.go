package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/liangyou/seed/internal/progress"
)

var gzipHeader = []byte{0x1f, 0x8b}

// TarGzHandler 解压 tar.gz 压缩包，进度按已读取的压缩字节计算。
type TarGzHandler struct{}

func (TarGzHandler) Name() string { return "tar.gz" }

func (TarGzHandler) Match(path string, header []byte) bool {
	if bytes.HasPrefix(header, gzipHeader) {
		return true
	}
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

func (TarGzHandler) Extract(ctx context.Context, archivePath, targetDir string, tracker *progress.Tracker) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return ioFailure(archivePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return ioFailure(archivePath, err)
	}
	size := info.Size()

	counter := &countingReader{r: file, report: func(n int64) { tracker.Ratio(n, size) }}
	gz, err := gzip.NewReader(counter)
	if err != nil {
		return corrupt(archivePath, fmt.Errorf("gzip reader: %w", err))
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if ctx.Err() != nil {
			return cancelled(ctx)
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return corrupt(archivePath, fmt.Errorf("read archive: %w", err))
		}

		target, err := safeJoin(targetDir, header.Name)
		if err != nil {
			return corrupt(archivePath, err)
		}
		if target == "" {
			continue
		}

		if extractErr := extractTarEntry(ctx, targetDir, target, header, tr); extractErr != nil {
			return extractErr
		}
	}
}

func extractTarEntry(ctx context.Context, root, target string, header *tar.Header, tr *tar.Reader) *ExtractError {
	if header.Typeflag == tar.TypeDir {
		dir, err := realSource(root, target)
		if err != nil {
			return corrupt(header.Name, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioFailure(target, err)
		}
		return nil
	}

	target, err := realTarget(root, target)
	if err != nil {
		return corrupt(header.Name, err)
	}

	switch header.Typeflag {
	case tar.TypeReg:
		if err := removeLink(target); err != nil {
			return ioFailure(target, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return ioFailure(target, err)
		}
		perm := os.FileMode(header.Mode).Perm()
		if perm == 0 {
			perm = 0o644
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
		if err != nil {
			return ioFailure(target, err)
		}
		if extractErr := copyEntry(ctx, header.Name, f, tr, nil); extractErr != nil {
			f.Close()
			return extractErr
		}
		if err := f.Close(); err != nil {
			return ioFailure(target, err)
		}
	case tar.TypeSymlink:
		if err := safeLink(root, target, header.Linkname); err != nil {
			return corrupt(header.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return ioFailure(target, err)
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return ioFailure(target, err)
		}
		if err := os.Symlink(header.Linkname, target); err != nil {
			return ioFailure(target, err)
		}
	case tar.TypeLink:
		joined, err := safeJoin(root, header.Linkname)
		if err != nil || joined == "" {
			return corrupt(header.Name, fmt.Errorf("%w: hard link %s", ErrIllegalPath, header.Linkname))
		}
		source, err := realSource(root, joined)
		if err != nil {
			return corrupt(header.Name, err)
		}
		if info, err := os.Lstat(source); err != nil || !info.Mode().IsRegular() {
			return corrupt(header.Name, fmt.Errorf("%w: hard link %s is not a regular file", ErrIllegalPath, header.Linkname))
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return ioFailure(target, err)
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return ioFailure(target, err)
		}
		if err := os.Link(source, target); err != nil {
			return ioFailure(target, err)
		}
	case tar.TypeXGlobalHeader:
	default:
		return corrupt(header.Name, fmt.Errorf("unsupported tar entry type %q", header.Typeflag))
	}
	return nil
}
