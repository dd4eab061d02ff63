package market

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dex-market-core/internal/model"
)

var distNXS = model.Pair{Base: "DIST", Quote: "NXS"}

// fakeCaller 按 endpoint 返回预设的 JSON 并记录调用
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []call
}

type call struct {
	endpoint string
	params   map[string]any
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(_ context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{endpoint: endpoint, params: params})
	if err, ok := f.errs[endpoint]; ok {
		return nil, err
	}
	return json.RawMessage(f.responses[endpoint]), nil
}

func (f *fakeCaller) set(endpoint string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	f.responses[endpoint] = string(b)
}

// rawBid DIST/NXS 买单: 付出 nxs (链上单位) 收到 dist
func rawBid(txid string, ts int64, nxs, dist float64) model.Order {
	return model.Order{
		TxID: txid, Type: model.SideBid, Timestamp: ts, Price: 12345,
		Contract: model.Leg{Amount: nxs, Ticker: "NXS"},
		Order:    model.Leg{Amount: dist, Ticker: "DIST"},
	}
}

// rawAsk DIST/NXS 卖单: 付出 dist 收到 nxs (链上单位)
func rawAsk(txid string, ts int64, dist, nxs float64) model.Order {
	return model.Order{
		TxID: txid, Type: model.SideAsk, Timestamp: ts, Price: 12345,
		Contract: model.Leg{Amount: dist, Ticker: "DIST"},
		Order:    model.Leg{Amount: nxs, Ticker: "NXS"},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
