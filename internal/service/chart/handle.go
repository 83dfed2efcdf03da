// Package chart owns the live trend chart. There is exactly one instance at a
// time; Replace disposes it before the next one is rendered.
package chart

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
)

// ErrDisposed is returned when a disposed instance is used.
var ErrDisposed = errors.New("chart instance disposed")

// Instance is a rendered chart.
type Instance interface {
	Payload() (Payload, error)
	Dispose() error
}

// Renderer creates chart instances from trend series.
type Renderer interface {
	Render(trend metrics.Trend) (Instance, error)
}

// Handle is the exclusive owner of the current chart instance.
type Handle struct {
	mu       sync.Mutex
	renderer Renderer
	current  Instance
	logger   *zap.Logger
}

// NewHandle builds an empty handle.
func NewHandle(renderer Renderer, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{renderer: renderer, logger: logger}
}

// Replace disposes the current instance and renders a new one. When rendering
// fails the handle is left empty. A concurrent Replace may dispose the
// returned instance; use ReplacePayload to read it safely.
func (h *Handle) Replace(trend metrics.Trend) (Instance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replace(trend)
}

// ReplacePayload renders a new instance and reads its payload before any other
// caller can replace it.
func (h *Handle) ReplacePayload(trend metrics.Trend) (Payload, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := h.replace(trend)
	if err != nil {
		return Payload{}, err
	}
	return next.Payload()
}

// replace must be called with mu held.
func (h *Handle) replace(trend metrics.Trend) (Instance, error) {
	if h.current != nil {
		if err := h.current.Dispose(); err != nil {
			h.logger.Warn("failed to dispose chart", zap.Error(err))
		}
		h.current = nil
	}

	next, err := h.renderer.Render(trend)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	h.current = next
	return next, nil
}

// Current returns the live instance, or nil before the first Replace.
func (h *Handle) Current() Instance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Close disposes the live instance.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return nil
	}
	err := h.current.Dispose()
	h.current = nil
	return err
}
