// Package progress 提供下载与解压共用的进度上报工具。
package progress

import (
	"fmt"
	"sync"

	"github.com/liangyou/seed/pkg/models"
)

// DefaultStep 是两次中间进度上报之间的最小增量。
const DefaultStep = 0.005

// Func 接收 [0,1] 区间内的进度值。
type Func func(fraction float64)

// Tracker 保证上报的进度单调不减、落在 [0,1] 内，并且成功时恰好上报一次 1.0。
type Tracker struct {
	mu       sync.Mutex
	report   Func
	step     float64
	last     float64
	started  bool
	finished bool
}

// NewTracker 包装 report；report 为 nil 时所有调用都是空操作。
func NewTracker(report Func) *Tracker {
	return &Tracker{report: report, step: DefaultStep}
}

// WithStep 调整节流步长，0 表示每次变化都上报。
func (t *Tracker) WithStep(step float64) *Tracker {
	if step >= 0 {
		t.step = step
	}
	return t
}

// Start 上报初始的 0 进度。
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.finished {
		return
	}
	t.started = true
	t.emit(0)
}

// Update 上报中间进度，1.0 只能通过 Done 上报。
func (t *Tracker) Update(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	fraction = clamp(fraction)
	if fraction >= 1 {
		// 中间态不会达到 1.0，留给 Done。
		fraction = 0.999
	}
	if !t.started {
		t.started = true
		t.emit(0)
	}
	if fraction <= t.last || fraction-t.last < t.step {
		return
	}
	t.last = fraction
	t.emit(fraction)
}

// Ratio 以 done/total 计算进度，total 未知时保持当前进度。
func (t *Tracker) Ratio(done, total int64) {
	if total <= 0 {
		t.Start()
		return
	}
	t.Update(float64(done) / float64(total))
}

// Done 上报终态 1.0，重复调用无效。
func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	t.started = true
	t.last = 1
	t.emit(1)
}

func (t *Tracker) emit(v float64) {
	if t.report != nil {
		t.report(v)
	}
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Label 生成阶段标签，例如 "Downloading Editor"。
func Label(stage models.Stage, name string) string {
	switch stage {
	case models.StageDownload:
		return fmt.Sprintf("Downloading %s", name)
	case models.StageExtract:
		return fmt.Sprintf("Extracting %s", name)
	default:
		return name
	}
}
