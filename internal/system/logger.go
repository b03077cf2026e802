package system

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// nopHandler отбрасывает все записи. Enabled возвращает false, поэтому
// атрибуты даже не форматируются.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// Logger возвращает диагностический логгер внутренних пакетов.
// До вызова SetLogger он молчит.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// SetLogger заменяет диагностический логгер. nil возвращает молчащий логгер.
//
// Уровни:
//   - [slog.LevelDebug]: переходы сегментов, точки Безье, тайминг кадров
//   - [slog.LevelInfo]: этапы подготовки (поверхности, приемники)
//   - [slog.LevelWarn]: некритичные проблемы (память, медленные кадры)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// NewDebugLogger создает текстовый логгер для флага -debug.
func NewDebugLogger(runID string) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h).With("run", runID)
}
