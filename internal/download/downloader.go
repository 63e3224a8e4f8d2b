package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/liangyou/seed/internal/progress"
)

const (
	defaultBufferSize = 32 * 1024
	defaultUserAgent  = "Seed Launcher for Flax"
)

// HTTPClient 定义 Downloader 所需的 HTTP 客户端能力。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader 以流式方式将远程文件写入本地路径，无状态，可并发复用。
type Downloader struct {
	httpClient HTTPClient
	bufferSize int
	step       float64
	userAgent  string
	logger     *log.Logger
}

// Option 配置 Downloader。
type Option func(*Downloader)

// WithHTTPClient 指定自定义 HTTP 客户端。
func WithHTTPClient(client HTTPClient) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithBufferSize 指定单次读取的缓冲区大小，取消的响应延迟以此为界。
func WithBufferSize(size int) Option {
	return func(d *Downloader) {
		if size > 0 {
			d.bufferSize = size
		}
	}
}

// WithProgressStep 指定进度上报的最小增量。
func WithProgressStep(step float64) Option {
	return func(d *Downloader) {
		d.step = step
	}
}

// WithLogger 指定日志记录器。
func WithLogger(logger *log.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDownloader 创建 Downloader。
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
		bufferSize: defaultBufferSize,
		step:       progress.DefaultStep,
		userAgent:  defaultUserAgent,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download 将 url 的内容写入 dest（覆盖已有文件），并通过 report 上报进度。
// 取消时保留已写入的部分文件，由调用方负责清理。
func (d *Downloader) Download(ctx context.Context, url, dest string, report progress.Func) error {
	tracker := progress.NewTracker(report).WithStep(d.step)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransferError{Kind: NetworkFailure, URL: url, Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", d.userAgent)

	d.logger.Debug("starting download", "url", url, "dest", dest)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return classify(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransferError{Kind: HTTPStatus, URL: url, Code: resp.StatusCode}
	}

	file, err := os.Create(dest)
	if err != nil {
		return &TransferError{Kind: IOFailure, URL: url, Cause: fmt.Errorf("create file: %w", err)}
	}

	total := resp.ContentLength
	tracker.Start()
	written, copyErr := d.copy(ctx, file, resp.Body, func(done int64) {
		tracker.Ratio(done, total)
	})
	closeErr := file.Close()

	if copyErr != nil {
		return copyErr.withURL(url)
	}
	if closeErr != nil {
		return &TransferError{Kind: IOFailure, URL: url, Cause: fmt.Errorf("close file: %w", closeErr)}
	}
	if total > 0 && written != total {
		return &TransferError{Kind: NetworkFailure, URL: url, Cause: fmt.Errorf("short body: got %d of %d bytes", written, total)}
	}

	tracker.Done()
	d.logger.Debug("download finished", "url", url, "bytes", written)
	return nil
}

// copy 在每个缓冲区之间检查 ctx，并区分读取失败与写入失败。
func (d *Downloader) copy(ctx context.Context, dst io.Writer, src io.Reader, onProgress func(int64)) (int64, *TransferError) {
	buf := make([]byte, d.bufferSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, &TransferError{Kind: Cancelled, Cause: err}
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, &TransferError{Kind: IOFailure, Cause: fmt.Errorf("write file: %w", err)}
			}
			written += int64(n)
			onProgress(written)
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, classify(ctx, "", fmt.Errorf("read body: %w", readErr))
		}
	}
}

func (e *TransferError) withURL(url string) *TransferError {
	e.URL = url
	return e
}
