package archive

import (
	"context"
	"errors"
	"io"
)

const copyBufferSize = 32 * 1024

// copyEntry 复制单个条目内容，每个缓冲区之间检查 ctx。
// 读取错误视为压缩包损坏，写入错误视为本地 IO 失败。
func copyEntry(ctx context.Context, name string, dst io.Writer, src io.Reader, onBytes func(int64)) *ExtractError {
	buf := make([]byte, copyBufferSize)
	for {
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return ioFailure(name, err)
			}
			if onBytes != nil {
				onBytes(int64(n))
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return corrupt(name, readErr)
		}
	}
}

// countingReader 统计已读取的字节数。
type countingReader struct {
	r      io.Reader
	read   int64
	report func(int64)
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.read += int64(n)
		if c.report != nil {
			c.report(c.read)
		}
	}
	return n, err
}
