package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dex-market-core/internal/chart"
	"dex-market-core/internal/model"
	"dex-market-core/pkg/ta"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingReporter struct {
	mu      sync.Mutex
	dialogs []model.ErrorDialog
}

func (r *recordingReporter) ShowErrorDialog(d model.ErrorDialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialogs = append(r.dialogs, d)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dialogs)
}

func newTestService(c *fakeCaller, rep model.ErrorReporter) *Service {
	builder := chart.NewBuilder(time.UTC, zap.NewNop()).WithClock(fixedClock(now))
	calc := ta.NewTACalculator(3, 3, 3, 2, zap.NewNop())
	s := NewService(c, builder, calc, rep, zap.NewNop())
	s.Fetcher().WithClock(fixedClock(now))
	return s
}

func TestListMarketReportsAndReturnsEmptyShape(t *testing.T) {
	c := newFakeCaller()
	c.errs[Endpoint(KindBid)] = errors.New("node offline")
	rep := &recordingReporter{}

	got := newTestService(c, rep).ListMarket(context.Background(), Query{Pair: distNXS, Kind: KindBid})

	assert.Equal(t, model.EmptyOrders(), got)
	require.Equal(t, 1, rep.count())
	assert.Contains(t, rep.dialogs[0].Note, "node offline")
}

func TestListMarketInvalidTimeFilter(t *testing.T) {
	rep := &recordingReporter{}
	got := newTestService(newFakeCaller(), rep).ListMarket(context.Background(), Query{Pair: distNXS, Kind: KindBid, TimeFilter: "2w"})

	assert.NotNil(t, got.Bids)
	assert.NotNil(t, got.Asks)
	assert.Equal(t, 1, rep.count())
}

func TestServiceOrderBookAndDepth(t *testing.T) {
	c := newFakeCaller()
	orders := model.Orders{
		Bids: []model.Order{rawBid("b1", hoursAgo(1), 1_000_000, 2), rawBid("b2", hoursAgo(1), 1_800_000, 2)},
		Asks: []model.Order{rawAsk("a1", hoursAgo(1), 2, 2_000_000)},
	}
	c.set(Endpoint(KindOrder), orders)
	s := newTestService(c, &recordingReporter{})

	book, err := s.OrderBook(context.Background(), distNXS)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.5}, prices(book.Bids))
	assert.Equal(t, []float64{1}, prices(book.Asks))

	depth, err := s.Depth(context.Background(), distNXS)
	require.NoError(t, err)
	assert.Len(t, depth.BidDepth, 2)
	assert.InDelta(t, 0.95, depth.Mid, 1e-12)
}

func TestServiceLastPrice(t *testing.T) {
	c := newFakeCaller()
	c.set(Endpoint(KindExecuted), model.Orders{
		Bids: []model.Order{rawBid("b1", hoursAgo(5), 1_000_000, 2)},
		Asks: []model.Order{rawAsk("a1", hoursAgo(2), 2, 3_000_000), rawAsk("a0", hoursAgo(9), 1, 1_000_000)},
	})

	last, err := newTestService(c, nil).LastPrice(context.Background(), distNXS)
	require.NoError(t, err)
	assert.Equal(t, 1.5, last.Price)
	assert.Equal(t, hoursAgo(2), last.Timestamp)
	assert.Equal(t, model.SideAsk, last.Type)
}

func TestServiceChart(t *testing.T) {
	c := newFakeCaller()
	var trades []model.Order
	for h := 1; h <= 6; h++ {
		trades = append(trades, rawBid("t", hoursAgo(h), float64(h)*1_000_000, 1))
	}
	c.set(Endpoint(KindExecuted), model.Orders{Bids: trades})

	ch, err := newTestService(c, nil).Chart(context.Background(), distNXS, chart.Interval1h, 6*3600)
	require.NoError(t, err)
	assert.Len(t, ch.Series.Candles, 7)
	assert.Len(t, ch.Series.Volumes, 7)
	assert.Len(t, ch.Indicators.SMA, 5)
	assert.Len(t, ch.Indicators.Bollinger, 5)
}

func TestServiceChartSeedsFromTradeBeforeRange(t *testing.T) {
	c := newFakeCaller()
	c.set(Endpoint(KindExecuted), model.Orders{Bids: []model.Order{
		rawBid("old", hoursAgo(10), 2_000_000, 1),
		rawBid("new", hoursAgo(1), 4_000_000, 1),
	}})

	ch, err := newTestService(c, nil).Chart(context.Background(), distNXS, chart.Interval1h, 3*3600)
	require.NoError(t, err)

	var closes []float64
	for _, candle := range ch.Series.Candles {
		closes = append(closes, candle.Close)
	}
	assert.Equal(t, []float64{2, 2, 4, 4}, closes)

	start := now.Add(-3 * time.Hour).Unix()
	require.Len(t, c.calls, 2)
	assert.Equal(t, "asc", c.calls[0].params["order"])
	assert.Equal(t, fmt.Sprintf("results.timestamp>%d", start-60), c.calls[0].params["where"])
	assert.Equal(t, fmt.Sprintf("results.timestamp<%d", start), c.calls[1].params["where"])
	assert.Equal(t, 1, c.calls[1].params["limit"])
}

func TestServiceChartInvalidInterval(t *testing.T) {
	rep := &recordingReporter{}
	c := newFakeCaller()
	ch, err := newTestService(c, rep).Chart(context.Background(), distNXS, "2h", 3600)

	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	assert.NotNil(t, ch.Series.Candles)
	assert.Empty(t, c.calls)
	assert.Equal(t, 1, rep.count())
}

func TestServiceOverviewPartialFailure(t *testing.T) {
	c := newFakeCaller()
	c.set(Endpoint(KindExecuted), model.Orders{Bids: []model.Order{rawBid("b1", hoursAgo(1), 1_000_000, 4)}})
	c.errs[Endpoint(KindOrder)] = errors.New("timeout")
	rep := &recordingReporter{}

	ov, err := newTestService(c, rep).Overview(context.Background(), distNXS, 10)

	assert.ErrorIs(t, err, model.ErrTransport)
	assert.Equal(t, 0.25, ov.LastPrice.Price)
	assert.Len(t, ov.Trades.Bids, 1)
	assert.NotNil(t, ov.OrderBook.Bids)
	assert.Empty(t, ov.OrderBook.Bids)
	assert.NotNil(t, ov.Depth.AskDepth)
	assert.Equal(t, 1, rep.count())
}

func TestServiceToken(t *testing.T) {
	c := newFakeCaller()
	c.set(TokenEndpoint, map[string]any{"ticker": "DIST", "address": "8Bx", "decimals": 2, "currentsupply": 1000.5, "maxsupply": 5000})
	s := newTestService(c, nil)

	info, err := s.Token(context.Background(), "DIST")
	require.NoError(t, err)
	assert.Equal(t, model.TokenInfo{Ticker: "DIST", Address: "8Bx", Decimals: 2, CurrentSupply: 1000.5, MaxSupply: 5000}, info)
	assert.Equal(t, map[string]any{"name": "DIST"}, c.calls[0].params)

	nxs, err := s.Token(context.Background(), "NXS")
	require.NoError(t, err)
	assert.Equal(t, 6, nxs.Decimals)
	assert.Len(t, c.calls, 1, "NXS needs no lookup")

	_, err = s.Token(context.Background(), " ")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
