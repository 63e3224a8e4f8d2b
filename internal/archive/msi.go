package archive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/liangyou/seed/internal/progress"
)

var oleHeader = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

// MSIHandler 通过 msiexec 的管理员安装模式将 msi 内容展开到目标目录，仅在 Windows 上可用。
type MSIHandler struct {
	run commandRunner
}

// NewMSIHandler 创建 MSIHandler，run 为 nil 时使用系统命令。
func NewMSIHandler(run commandRunner) *MSIHandler {
	if run == nil {
		run = execRunner
	}
	return &MSIHandler{run: run}
}

func (h *MSIHandler) Name() string { return "msi" }

func (h *MSIHandler) Match(path string, header []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".msi") || bytes.HasPrefix(header, oleHeader)
}

// Extract 无法得到中间进度，完成前保持 0。
func (h *MSIHandler) Extract(ctx context.Context, archivePath, targetDir string, _ *progress.Tracker) error {
	absTarget, err := filepath.Abs(targetDir)
	if err != nil {
		return ioFailure(targetDir, err)
	}
	if err := h.run(ctx, "msiexec", "/a", archivePath, "/qn", fmt.Sprintf("TARGETDIR=%s", absTarget)); err != nil {
		return commandError(ctx, archivePath, err)
	}
	return nil
}
