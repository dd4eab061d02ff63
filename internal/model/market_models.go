package model

// PriceLevel 同一价格上的所有订单
type PriceLevel struct {
	Price      float64 `json:"price"`
	Orders     []Order `json:"orders"`
	TotalBase  float64 `json:"totalBase"`
	TotalQuote float64 `json:"totalQuote"`
	Type       Side    `json:"type"`
	Count      int     `json:"count"` // >1 时界面显示数量角标
}

// OrderBook 排序后的盘口: asks 价格升序，bids 价格降序
type OrderBook struct {
	Pair    Pair         `json:"pair"`
	Bids    []PriceLevel `json:"bids"`
	Asks    []PriceLevel `json:"asks"`
	BestBid *PriceLevel  `json:"bestBid,omitempty"`
	BestAsk *PriceLevel  `json:"bestAsk,omitempty"`
	Spread  float64      `json:"spread"`
}

// EmptyOrderBook 返回失败时使用的空盘口
func EmptyOrderBook(pair Pair) OrderBook {
	return OrderBook{Pair: pair, Bids: []PriceLevel{}, Asks: []PriceLevel{}}
}

// LevelAt 查找指定价格档位，用于选择要成交的具体订单
func (b OrderBook) LevelAt(side Side, price float64) (PriceLevel, bool) {
	levels := b.Asks
	if side == SideBid {
		levels = b.Bids
	}
	for _, l := range levels {
		if l.Price == price {
			return l, true
		}
	}
	return PriceLevel{}, false
}

// Candle 一个周期的 OHLC，Time 为周期起点 (秒)
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// VolumePoint 与 Candle 一一对应的成交量 (quote 计价)
type VolumePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Series K 线与成交量序列
type Series struct {
	Interval string        `json:"interval"`
	Candles  []Candle      `json:"candles"`
	Volumes  []VolumePoint `json:"volumes"`
}

// EmptySeries 返回空序列
func EmptySeries(interval string) Series {
	return Series{Interval: interval, Candles: []Candle{}, Volumes: []VolumePoint{}}
}

// IndicatorPoint 单值指标点
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// BandPoint 布林带点
type BandPoint struct {
	Time   int64   `json:"time"`
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Indicators 基于收盘价计算的技术指标
type Indicators struct {
	SMA       []IndicatorPoint `json:"sma"`
	EMA       []IndicatorPoint `json:"ema"`
	Bollinger []BandPoint      `json:"bollinger"`
}

// EmptyIndicators 返回空指标
func EmptyIndicators() Indicators {
	return Indicators{SMA: []IndicatorPoint{}, EMA: []IndicatorPoint{}, Bollinger: []BandPoint{}}
}

// Chart 图表窗口所需的全部数据
type Chart struct {
	Series     Series     `json:"series"`
	Indicators Indicators `json:"indicators"`
}

// DepthPoint 深度图上的一个累计点
type DepthPoint struct {
	Price float64 `json:"price"`
	Depth float64 `json:"depth"`
	Type  Side    `json:"type"`
}

// Depth 深度图数据，两侧均按价格升序
type Depth struct {
	BidDepth []DepthPoint `json:"bidDepth"`
	AskDepth []DepthPoint `json:"askDepth"`
	Mid      float64      `json:"mid"` // 仅用于坐标轴居中
}

// EmptyDepth 返回空深度
func EmptyDepth() Depth {
	return Depth{BidDepth: []DepthPoint{}, AskDepth: []DepthPoint{}}
}

// Overview 市场总览，各部分独立获取
type Overview struct {
	Pair      Pair      `json:"pair"`
	LastPrice LastPrice `json:"lastPrice"`
	OrderBook OrderBook `json:"orderBook"`
	Trades    Orders    `json:"trades"`
	Depth     Depth     `json:"depth"`
}

// EmptyOverview 返回各部分均为空结构的总览
func EmptyOverview(pair Pair) Overview {
	return Overview{
		Pair:      pair,
		OrderBook: EmptyOrderBook(pair),
		Trades:    EmptyOrders(),
		Depth:     EmptyDepth(),
	}
}
