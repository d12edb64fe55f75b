package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// queued pairs a record with the handler that must write it, so attributes
// added through WithAttrs survive the trip through the queue.
type queued struct {
	handler slog.Handler
	rec     slog.Record
}

type asyncQueue struct {
	ch        chan queued
	wg        sync.WaitGroup
	dropped   atomic.Int64
	closeOnce sync.Once
}

// AsyncHandler writes records on background workers. Info and debug records
// are dropped when the queue is full; warnings and errors wait for room.
type AsyncHandler struct {
	inner slog.Handler
	q     *asyncQueue
}

// NewAsyncHandler creates an AsyncHandler with the given queue capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	q := &asyncQueue{ch: make(chan queued, chanSize)}
	for range max(1, workers) {
		q.wg.Add(1)
		go q.drain()
	}
	return &AsyncHandler{inner: inner, q: q}
}

func (q *asyncQueue) drain() {
	defer q.wg.Done()
	for item := range q.ch {
		_ = item.handler.Handle(context.Background(), item.rec)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	item := queued{handler: h.inner, rec: rec.Clone()}
	if rec.Level >= slog.LevelWarn {
		h.q.ch <- item
		return nil
	}
	select {
	case h.q.ch <- item:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close drains the queue and stops the workers. If records were dropped a
// final warning with the count is written synchronously. Handle must not be
// called after Close.
func (h *AsyncHandler) Close() {
	h.q.closeOnce.Do(func() {
		close(h.q.ch)
		h.q.wg.Wait()
		if n := h.q.dropped.Load(); n > 0 {
			rec := slog.NewRecord(time.Now(), slog.LevelWarn, "async logger dropped records", 0)
			rec.AddAttrs(slog.Int64("dropped", n))
			_ = h.inner.Handle(context.Background(), rec)
		}
	})
}
