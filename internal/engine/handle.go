package engine

import (
	"context"

	"github.com/liangyou/seed/pkg/models"
)

// Handle 表示一次后台进行中的安装。
type Handle struct {
	events chan models.ProgressEvent
	done   chan struct{}
	cancel context.CancelFunc

	result *models.InstalledEngine
	err    error
}

// Start 在后台执行 Install 并立即返回。
func (i *Installer) Start(ctx context.Context, req Request) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		events: make(chan models.ProgressEvent, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer cancel()
		result, err := i.Install(ctx, req, h.publish)
		h.result, h.err = result, err
		close(h.events)
		close(h.done)
	}()
	return h
}

// publish 只保留最新事件：消费者来不及读取时，旧事件被新事件替换。
func (h *Handle) publish(ev models.ProgressEvent) {
	for {
		select {
		case h.events <- ev:
			return
		default:
		}
		select {
		case <-h.events:
		default:
		}
	}
}

// Events 返回进度事件通道，安装结束后关闭。
func (h *Handle) Events() <-chan models.ProgressEvent {
	return h.events
}

// Done 在安装结束时关闭。
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel 请求取消安装，正在进行的读写会在一个缓冲区内停止。
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait 阻塞直到安装结束并返回结果。
func (h *Handle) Wait() (*models.InstalledEngine, error) {
	<-h.done
	return h.result, h.err
}
