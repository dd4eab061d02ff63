package service

import (
	"dex-market-core/internal/model"

	"go.uber.org/zap"
)

// LogReporter 把错误弹窗内容写入日志，作为宿主弹窗不可用时的默认实现
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger.With(zap.String("component", "reporter"))}
}

func (r *LogReporter) ShowErrorDialog(dialog model.ErrorDialog) {
	r.logger.Warn("Error dialog", zap.String("message", dialog.Message), zap.String("note", dialog.Note))
}

// ReporterFunc 允许用普通函数充当 ErrorReporter
type ReporterFunc func(dialog model.ErrorDialog)

func (f ReporterFunc) ShowErrorDialog(dialog model.ErrorDialog) {
	f(dialog)
}
