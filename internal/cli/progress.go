package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/liangyou/seed/pkg/models"
)

const barWidth = 30

// progressBar 在终端同一行刷新安装进度，阶段切换时换行。
type progressBar struct {
	w      io.Writer
	line   string
	active bool
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

// Update 绘制一条进度事件。
func (b *progressBar) Update(ev models.ProgressEvent) {
	key := fmt.Sprintf("%d/%s/%s", ev.Index, ev.Package, ev.Stage)
	if b.active && key != b.line {
		fmt.Fprintln(b.w)
	}
	b.line = key
	b.active = true

	fraction := ev.Fraction
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	prefix := ""
	if ev.Total > 0 {
		prefix = fmt.Sprintf("[%d/%d] ", ev.Index, ev.Total)
	}
	fmt.Fprintf(b.w, "\r%s%-28s %s %5.1f%%", prefix, color.CyanString(ev.Label), bar, fraction*100)
}

// Finish 结束当前进度行。
func (b *progressBar) Finish() {
	if b.active {
		fmt.Fprintln(b.w)
	}
	b.active = false
	b.line = ""
}
