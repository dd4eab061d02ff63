package ta

import (
	"dex-market-core/internal/model"

	"github.com/markcheno/go-talib"
	"go.uber.org/zap"
)

// TACalculator 基于 K 线收盘价序列计算图表指标
// 各指标序列从第 period 根 K 线开始，历史不足时返回更短(或空)的序列，不做填充
type TACalculator struct {
	SMAPeriod    int
	EMAPeriod    int
	BBandsPeriod int
	BBandsDev    float64
	Logger       *zap.Logger
}

// NewTACalculator 初始化技术指标计算器
func NewTACalculator(smaPeriod, emaPeriod, bbandsPeriod int, bbandsDev float64, logger *zap.Logger) *TACalculator {
	return &TACalculator{
		SMAPeriod:    smaPeriod,
		EMAPeriod:    emaPeriod,
		BBandsPeriod: bbandsPeriod,
		BBandsDev:    bbandsDev,
		Logger:       logger,
	}
}

// Calculate 集中计算所有需要的指标
func (tc *TACalculator) Calculate(candles []model.Candle) model.Indicators {
	out := model.EmptyIndicators()

	closePrices := make([]float64, len(candles))
	for i, c := range candles {
		closePrices[i] = c.Close
	}

	// --- 均线 (SMA) ---
	for i, v := range SMA(closePrices, tc.SMAPeriod) {
		out.SMA = append(out.SMA, model.IndicatorPoint{Time: candles[tc.SMAPeriod-1+i].Time, Value: v})
	}

	// --- 指数均线 (EMA) ---
	for i, v := range EMA(closePrices, tc.EMAPeriod) {
		out.EMA = append(out.EMA, model.IndicatorPoint{Time: candles[tc.EMAPeriod-1+i].Time, Value: v})
	}

	// --- 布林带 ---
	up, mid, dn := BBands(closePrices, tc.BBandsPeriod, tc.BBandsDev)
	for i := range mid {
		out.Bollinger = append(out.Bollinger, model.BandPoint{
			Time:   candles[tc.BBandsPeriod-1+i].Time,
			Upper:  up[i],
			Middle: mid[i],
			Lower:  dn[i],
		})
	}

	if tc.Logger != nil && len(candles) < tc.BBandsPeriod {
		tc.Logger.Debug("Not enough history for full indicator set",
			zap.Int("candles", len(candles)), zap.Int("period", tc.BBandsPeriod))
	}
	return out
}

// SMA 简单移动平均，返回从第 period 个值开始的结果
func SMA(closePrices []float64, period int) []float64 {
	if period < 1 || len(closePrices) < period {
		return []float64{}
	}
	return talib.Sma(closePrices, period)[period-1:]
}

// EMA 指数移动平均，以前 period 个值的 SMA 作为种子
func EMA(closePrices []float64, period int) []float64 {
	if period < 1 || len(closePrices) < period {
		return []float64{}
	}
	return talib.Ema(closePrices, period)[period-1:]
}

// BBands 布林带 (中轨为 SMA，标准差为总体标准差)
func BBands(closePrices []float64, period int, dev float64) (upper, middle, lower []float64) {
	if period < 2 || len(closePrices) < period {
		return []float64{}, []float64{}, []float64{}
	}
	up, mid, dn := talib.BBands(closePrices, period, dev, dev, talib.SMA)
	return up[period-1:], mid[period-1:], dn[period-1:]
}
