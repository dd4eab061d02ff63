package chart

import (
	"math"
	"sort"
	"time"

	"dex-market-core/internal/model"

	"go.uber.org/zap"
)

// Builder 负责把成交记录聚合为按时钟对齐、无缺口的 K 线
type Builder struct {
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewBuilder 创建一个新的 K 线构建器，loc 决定周期对齐使用的日历时间
func NewBuilder(loc *time.Location, logger *zap.Logger) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{
		loc:    loc,
		now:    time.Now,
		logger: logger.With(zap.String("component", "candles")),
	}
}

// WithClock 替换时间源
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Window 返回 [align(now-range), align(now)]，即 Build 输出的第一根和最后一根 K 线的起始时间
func (b *Builder) Window(intervalKey string, rangeSeconds int64) (start, end time.Time, err error) {
	if rangeSeconds <= 0 {
		return start, end, model.InvalidArgument("Window", "range must be positive, got %d", rangeSeconds)
	}
	now := b.now().In(b.loc)
	if start, err = Align(now.Add(-time.Duration(rangeSeconds)*time.Second), intervalKey); err != nil {
		return start, end, err
	}
	end, err = Align(now, intervalKey)
	return start, end, err
}

type pricedTrade struct {
	ts     int64
	price  float64
	volume float64
}

// Build 将 [align(now-range), align(now)] 内的成交聚合为 K 线
// 没有成交的周期输出一根以上一收盘价为 OHLC、成交量为 0 的平 K 线
func (b *Builder) Build(trades []model.Order, intervalKey string, rangeSeconds int64) (model.Series, error) {
	out := model.EmptySeries(intervalKey)
	if !ValidInterval(intervalKey) {
		return out, model.InvalidArgument("Build", "unsupported interval %q", intervalKey)
	}
	if rangeSeconds <= 0 {
		return out, model.InvalidArgument("Build", "range must be positive, got %d", rangeSeconds)
	}

	// 价格一律按数量重新计算，忽略非正价格
	priced := make([]pricedTrade, 0, len(trades))
	for _, t := range trades {
		p := t.ComputePrice()
		if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
			continue
		}
		priced = append(priced, pricedTrade{ts: t.Timestamp, price: p, volume: t.QuoteAmount()})
	}
	if len(priced) == 0 {
		return out, nil
	}
	sort.SliceStable(priced, func(i, j int) bool { return priced[i].ts < priced[j].ts })

	start, end, _ := b.Window(intervalKey, rangeSeconds)

	// 区间之前的最后一笔成交作为起始收盘价; 没有时用区间内第一笔回填
	i := 0
	var prevClose float64
	for i < len(priced) && priced[i].ts < start.Unix() {
		prevClose = priced[i].price
		i++
	}
	if i == 0 {
		prevClose = priced[0].price
	}

	for t := start; !t.After(end); t = next(t, intervalKey) {
		bucketEnd := next(t, intervalKey).Unix()
		candle := model.Candle{Time: t.Unix(), Open: prevClose, High: prevClose, Low: prevClose, Close: prevClose}
		volume := 0.0
		filled := false

		for i < len(priced) && priced[i].ts < bucketEnd {
			tr := priced[i]
			if !filled {
				candle.Open, candle.High, candle.Low = tr.price, tr.price, tr.price
				filled = true
			}
			candle.Close = tr.price // 最后一笔的价格作为收盘价
			candle.High = math.Max(candle.High, tr.price)
			candle.Low = math.Min(candle.Low, tr.price)
			volume += tr.volume
			i++
		}

		prevClose = candle.Close
		out.Candles = append(out.Candles, candle)
		out.Volumes = append(out.Volumes, model.VolumePoint{Time: candle.Time, Value: volume})
	}

	b.logger.Debug("Candles built",
		zap.String("interval", intervalKey),
		zap.Int("trades", len(priced)),
		zap.Int("candles", len(out.Candles)))
	return out, nil
}
