package market

import (
	"context"
	"errors"

	"dex-market-core/internal/api"
	"dex-market-core/internal/chart"
	"dex-market-core/internal/model"
	"dex-market-core/pkg/ta"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 面向界面的市场数据入口，出错时通过 ErrorReporter 展示并返回空结构
type Service struct {
	fetcher  *Fetcher
	tokens   *TokenLookup
	candles  *chart.Builder
	ta       *ta.TACalculator
	reporter model.ErrorReporter
	logger   *zap.Logger

	// BookLevels 盘口每侧最多展示的档位数，0 为不限
	BookLevels int
}

// NewService 组装市场数据服务
func NewService(caller api.Caller, candles *chart.Builder, calc *ta.TACalculator, reporter model.ErrorReporter, logger *zap.Logger) *Service {
	return &Service{
		fetcher:  NewFetcher(caller, logger),
		tokens:   NewTokenLookup(caller),
		candles:  candles,
		ta:       calc,
		reporter: reporter,
		logger:   logger.With(zap.String("component", "market")),
	}
}

// Fetcher 暴露底层获取器 (测试中替换时钟)
func (s *Service) Fetcher() *Fetcher {
	return s.fetcher
}

// ListMarket 只返回结果结构，错误已交给 ErrorReporter
func (s *Service) ListMarket(ctx context.Context, q Query) model.Orders {
	orders, _ := s.Orders(ctx, q)
	return orders
}

// Orders 与 ListMarket 相同，但同时返回错误，供 HTTP 层映射状态码
func (s *Service) Orders(ctx context.Context, q Query) (model.Orders, error) {
	orders, err := s.fetcher.List(ctx, q)
	if err != nil {
		s.report("Failed to load market list", err)
	}
	return orders, err
}

// OrderBook 获取挂单并按档位聚合
func (s *Service) OrderBook(ctx context.Context, pair model.Pair) (model.OrderBook, error) {
	orders, err := s.fetcher.List(ctx, Query{Pair: pair, Kind: KindOrder, Sort: SortPrice})
	if err != nil {
		s.report("Failed to load order book", err)
		return model.EmptyOrderBook(pair), err
	}
	return BuildOrderBook(pair, orders, s.BookLevels), nil
}

// TradeHistory 最近的成交记录
func (s *Service) TradeHistory(ctx context.Context, pair model.Pair, timeFilter string, limit int) (model.Orders, error) {
	return s.Orders(ctx, Query{Pair: pair, Kind: KindExecuted, Sort: SortTime, TimeFilter: timeFilter, Limit: limit})
}

// Chart 构建 K 线并计算指标
func (s *Service) Chart(ctx context.Context, pair model.Pair, interval string, rangeSeconds int64) (model.Chart, error) {
	out := model.Chart{Series: model.EmptySeries(interval), Indicators: model.EmptyIndicators()}
	if !chart.ValidInterval(interval) {
		err := model.InvalidArgument("chart", "unsupported interval %q", interval)
		s.report("Invalid chart interval", err)
		return out, err
	}

	start, _, err := s.candles.Window(interval, rangeSeconds)
	if err != nil {
		s.report("Invalid chart range", err)
		return out, err
	}

	// 区间内的成交，加上区间前最后一笔用作起始收盘价
	trades, err := s.fetcher.List(ctx, Query{Pair: pair, Kind: KindExecuted, Sort: SortTime, Direction: DirectionAsc, Since: start.Unix() - 1})
	if err != nil {
		s.report("Failed to load trades for chart", err)
		return out, err
	}
	seed, err := s.fetcher.List(ctx, Query{Pair: pair, Kind: KindExecuted, Sort: SortTime, Limit: 1, Before: start.Unix()})
	if err != nil {
		s.report("Failed to load trades for chart", err)
		return out, err
	}
	all := make([]model.Order, 0, len(trades.Bids)+len(trades.Asks)+2)
	all = append(all, seed.Bids...)
	all = append(all, seed.Asks...)
	all = append(all, trades.Bids...)
	all = append(all, trades.Asks...)
	series, err := s.candles.Build(all, interval, rangeSeconds)
	if err != nil {
		s.report("Failed to build candles", err)
		return out, err
	}
	out.Series = series
	out.Indicators = s.ta.Calculate(series.Candles)
	return out, nil
}

// Depth 深度图数据
func (s *Service) Depth(ctx context.Context, pair model.Pair) (model.Depth, error) {
	book, err := s.OrderBook(ctx, pair)
	if err != nil {
		return model.EmptyDepth(), err
	}
	return BuildDepth(book.Bids, book.Asks), nil
}

// LastPrice 最近一笔成交的价格，没有成交时为零值
func (s *Service) LastPrice(ctx context.Context, pair model.Pair) (model.LastPrice, error) {
	trades, err := s.fetcher.List(ctx, Query{Pair: pair, Kind: KindExecuted, Sort: SortTime, Limit: 1})
	if err != nil {
		s.report("Failed to load last price", err)
		return model.LastPrice{}, err
	}
	return latest(trades), nil
}

func latest(trades model.Orders) model.LastPrice {
	var last model.LastPrice
	for _, side := range [][]model.Order{trades.Bids, trades.Asks} {
		if len(side) > 0 && side[0].Timestamp >= last.Timestamp {
			last = model.LastPrice{Price: side[0].Price, Timestamp: side[0].Timestamp, Type: side[0].Type}
		}
	}
	return last
}

// Token 代币元数据
func (s *Service) Token(ctx context.Context, ticker string) (model.TokenInfo, error) {
	info, err := s.tokens.Get(ctx, ticker)
	if err != nil {
		s.report("Failed to load token info", err)
	}
	return info, err
}

// Overview 并行获取总览的各部分，某一部分失败不影响其他部分
// 返回第一个错误，结果中失败的部分为空结构
func (s *Service) Overview(ctx context.Context, pair model.Pair, tradeLimit int) (model.Overview, error) {
	out := model.EmptyOverview(pair)

	var g errgroup.Group
	g.Go(func() error {
		last, err := s.LastPrice(ctx, pair)
		out.LastPrice = last
		return err
	})
	g.Go(func() error {
		book, err := s.OrderBook(ctx, pair)
		out.OrderBook = book
		if err == nil {
			out.Depth = BuildDepth(book.Bids, book.Asks)
		}
		return err
	})
	g.Go(func() error {
		trades, err := s.TradeHistory(ctx, pair, TimeFilterAll, tradeLimit)
		out.Trades = trades
		return err
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Overview partially failed", zap.String("market", pair.String()), zap.Error(err))
	}
	return out, err
}

func (s *Service) report(message string, err error) {
	s.logger.Warn(message, zap.String("kind", model.KindOf(err).String()), zap.Error(err))
	if s.reporter != nil {
		s.reporter.ShowErrorDialog(model.ErrorDialog{Message: message, Note: err.Error()})
	}
}
