package service

import (
	"context"
	"fmt"
	"sync"
)

// WorkerPool 承载常驻任务（http 服务、对账任务），统一随信号退出
type WorkerPool struct {
	tasks   chan func(ctx context.Context) error // 待执行的任务
	wg      sync.WaitGroup                       // 跟踪worker协程
	ctx     context.Context                      // 全局上下文
	cancel  context.CancelFunc                   // 取消函数
	stopped bool                                 // 标识pool是否已停止
}

// NewWorkerPool 初始化worker pool
func NewWorkerPool(size int, ctx context.Context, cancel context.CancelFunc) *WorkerPool {
	return &WorkerPool{
		tasks:  make(chan func(ctx context.Context) error, size),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 拉起worker协程
func (wp *WorkerPool) Start() {
	for i := 0; i < cap(wp.tasks); i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for {
				select {
				case task, ok := <-wp.tasks:
					if !ok {
						return
					}
					_ = task(wp.ctx)
				case <-wp.ctx.Done():
					return
				}
			}
		}()
	}
}

// Stop 取消上下文并等待所有worker退出
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
	wp.stopped = true
}

// Submit 提交任务至任务池
func (wp *WorkerPool) Submit(task func(ctx context.Context) error) error {
	if wp.stopped {
		return fmt.Errorf("worker pool has been stopped")
	}
	select {
	case wp.tasks <- task:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}
