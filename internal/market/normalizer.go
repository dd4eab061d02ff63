package market

import (
	"dex-market-core/internal/model"

	"github.com/shopspring/decimal"
)

// nxsUnit NXS 可分单位与人类可读金额的比例 (10^6)
var nxsUnit = decimal.New(1, model.NXSDecimals)

// Normalize 返回一条新记录: NXS 一侧的金额除以 10^6，价格按数量重新计算
// 已标准化的记录不会再次缩放; 两边都是 NXS 时两侧都会换算
func Normalize(raw model.Order, pair model.Pair) model.Order {
	out := raw
	if !raw.Normalized {
		baseIsNXS := pair.Base == model.NXS
		quoteIsNXS := pair.Quote == model.NXS

		// bid 付出 quote 收到 base; ask 付出 base 收到 quote
		contractIsNXS, orderIsNXS := quoteIsNXS, baseIsNXS
		if raw.Type == model.SideAsk {
			contractIsNXS, orderIsNXS = baseIsNXS, quoteIsNXS
		}
		if contractIsNXS {
			out.Contract.Amount = fromDivisible(raw.Contract.Amount)
		}
		if orderIsNXS {
			out.Order.Amount = fromDivisible(raw.Order.Amount)
		}
		out.Normalized = true
	}
	out.Price = out.ComputePrice()
	return out
}

// NormalizeAll 对列表逐条标准化，不修改入参
func NormalizeAll(raw []model.Order, pair model.Pair) []model.Order {
	out := make([]model.Order, 0, len(raw))
	for _, o := range raw {
		out = append(out, Normalize(o, pair))
	}
	return out
}

func fromDivisible(amount float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Div(nxsUnit).Float64()
	return v
}
