package market

import (
	"cmp"
	"slices"

	"dex-market-core/internal/model"
)

// BuildDepth 把档位转换为累计深度曲线，两侧输出均按价格升序
// bids 从最高价向下累计后反转; asks 从最低价向上累计
func BuildDepth(bids, asks []model.PriceLevel) model.Depth {
	out := model.EmptyDepth()

	sortedBids := slices.Clone(bids)
	slices.SortStableFunc(sortedBids, func(a, b model.PriceLevel) int { return cmp.Compare(b.Price, a.Price) })
	sortedAsks := slices.Clone(asks)
	slices.SortStableFunc(sortedAsks, func(a, b model.PriceLevel) int { return cmp.Compare(a.Price, b.Price) })

	total := 0.0
	for _, l := range sortedBids {
		total += l.TotalBase
		out.BidDepth = append(out.BidDepth, model.DepthPoint{Price: l.Price, Depth: total, Type: model.SideBid})
	}
	slices.Reverse(out.BidDepth)

	total = 0
	for _, l := range sortedAsks {
		total += l.TotalBase
		out.AskDepth = append(out.AskDepth, model.DepthPoint{Price: l.Price, Depth: total, Type: model.SideAsk})
	}

	if len(sortedBids) > 0 && len(sortedAsks) > 0 {
		out.Mid = (sortedBids[0].Price + sortedAsks[0].Price) / 2
	}
	return out
}
