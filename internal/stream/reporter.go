package stream

import (
	"dex-market-core/internal/model"
)

// Reporter 把错误弹窗推送给订阅了 errors 主题的界面，并交给下一个 reporter
type Reporter struct {
	hub  *Hub
	next model.ErrorReporter
}

func NewReporter(hub *Hub, next model.ErrorReporter) *Reporter {
	return &Reporter{hub: hub, next: next}
}

func (r *Reporter) ShowErrorDialog(dialog model.ErrorDialog) {
	r.hub.Publish(TopicErrors, "error", dialog)
	if r.next != nil {
		r.next.ShowErrorDialog(dialog)
	}
}
