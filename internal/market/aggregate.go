package market

import "dex-market-core/internal/model"

// Aggregate 把同一价格的订单合并为一个档位，按首次出现的顺序输出
// 价格按浮点数精确相等分组，只差舍入误差的两个价格不会合并
func Aggregate(orders []model.Order) []model.PriceLevel {
	levels := make([]model.PriceLevel, 0)
	index := make(map[float64]int)

	for _, o := range orders {
		price := o.Price
		if !o.Normalized {
			price = o.ComputePrice()
		}

		i, ok := index[price]
		if !ok {
			i = len(levels)
			index[price] = i
			levels = append(levels, model.PriceLevel{Price: price, Type: o.Type, Orders: []model.Order{}})
		}
		l := &levels[i]
		l.Orders = append(l.Orders, o)
		l.TotalBase += o.BaseAmount()
		l.TotalQuote += o.QuoteAmount()
		l.Count++
	}
	return levels
}
