// Package archive 负责将下载好的安装包解压到目标目录。
//
// 格式通过 Handler 扩展：默认支持 zip、tar.gz、dmg（hdiutil 挂载）与 msi（管理员安装），
// 调用方只依赖 Extractor.Extract。
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/liangyou/seed/internal/progress"
)

const headerSize = 512

// Handler 处理一种压缩格式。
type Handler interface {
	// Name 返回格式名称，用于日志。
	Name() string
	// Match 根据文件路径与文件头判断是否能处理该文件。
	Match(path string, header []byte) bool
	// Extract 将 archivePath 解压到已存在的 targetDir，中间进度写入 tracker。
	// 返回的错误必须是 *ExtractError。
	Extract(ctx context.Context, archivePath, targetDir string, tracker *progress.Tracker) error
}

// Extractor 根据文件格式选择 Handler 解压，单次调用无共享状态。
type Extractor struct {
	handlers []Handler
	step     float64
	logger   *log.Logger
}

// Option 配置 Extractor。
type Option func(*Extractor)

// WithHandler 注册额外的格式处理器，优先于默认处理器匹配。
func WithHandler(h Handler) Option {
	return func(e *Extractor) {
		if h != nil {
			e.handlers = append([]Handler{h}, e.handlers...)
		}
	}
}

// WithLogger 指定日志记录器。
func WithLogger(logger *log.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProgressStep 指定进度上报的最小增量。
func WithProgressStep(step float64) Option {
	return func(e *Extractor) {
		e.step = step
	}
}

// NewExtractor 创建带默认 Handler 的 Extractor。
func NewExtractor(opts ...Option) *Extractor {
	run := execRunner
	e := &Extractor{
		handlers: []Handler{
			ZipHandler{},
			TarGzHandler{},
			NewDMGHandler(run),
			NewMSIHandler(run),
		},
		step:   progress.DefaultStep,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract 将 archivePath 解压到 targetDir（不存在时创建），成功时恰好上报一次 1.0。
func (e *Extractor) Extract(ctx context.Context, archivePath, targetDir string, report progress.Func) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return ioFailure(targetDir, fmt.Errorf("create target: %w", err))
	}

	header, err := readHeader(archivePath)
	if err != nil {
		return ioFailure(archivePath, err)
	}

	handler := e.handlerFor(archivePath, header)
	if handler == nil {
		return &ExtractError{Kind: UnsupportedFormat, Path: archivePath}
	}

	e.logger.Debug("extracting archive", "format", handler.Name(), "archive", archivePath, "target", targetDir)

	tracker := progress.NewTracker(report).WithStep(e.step)
	tracker.Start()
	if err := handler.Extract(ctx, archivePath, targetDir, tracker); err != nil {
		var extractErr *ExtractError
		if errors.As(err, &extractErr) {
			return err
		}
		return corrupt(archivePath, err)
	}
	tracker.Done()
	return nil
}

func (e *Extractor) handlerFor(path string, header []byte) Handler {
	for _, h := range e.handlers {
		if h.Match(path, header) {
			return h
		}
	}
	return nil
}

func readHeader(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return buf[:n], nil
}
