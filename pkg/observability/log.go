package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event to a logger at debug level. It implements
// all hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnLoadStart(_ context.Context, source, name string) {
	h.logger.Debug("load start", "source", source, "name", name)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, source, name string, persons int, d time.Duration, err error) {
	h.logger.Debug("load complete", "source", source, "name", name, "persons", persons, "duration", d, "err", err)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, focusID string) {
	h.logger.Debug("layout start", "focus", focusID)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, focusID string, persons int, valid bool, d time.Duration, err error) {
	h.logger.Debug("layout complete", "focus", focusID, "persons", persons, "valid", valid, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnCacheInvalidate(_ context.Context, prefix string, removed int) {
	h.logger.Debug("cache invalidate", "prefix", prefix, "removed", removed)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

// Register installs h for every hook category.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetServerHooks(h)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
