package market

import (
	"dex-market-core/internal/model"

	"github.com/google/btree"
)

// askLevel 卖盘档位，价格低者优先
type askLevel struct{ model.PriceLevel }

func (a *askLevel) Less(than btree.Item) bool {
	return a.Price < than.(*askLevel).Price
}

// bidLevel 买盘档位，价格高者优先
type bidLevel struct{ model.PriceLevel }

func (b *bidLevel) Less(than btree.Item) bool {
	return b.Price > than.(*bidLevel).Price
}

// BuildOrderBook 聚合并排序盘口: asks 升序，bids 降序，最优价紧邻价差
// maxLevels > 0 时每侧只保留最靠近价差的档位
func BuildOrderBook(pair model.Pair, orders model.Orders, maxLevels int) model.OrderBook {
	book := model.EmptyOrderBook(pair)

	asks := btree.New(32)
	for _, l := range Aggregate(orders.Asks) {
		asks.ReplaceOrInsert(&askLevel{l})
	}
	bids := btree.New(32)
	for _, l := range Aggregate(orders.Bids) {
		bids.ReplaceOrInsert(&bidLevel{l})
	}

	asks.Ascend(func(item btree.Item) bool {
		book.Asks = append(book.Asks, item.(*askLevel).PriceLevel)
		return maxLevels <= 0 || len(book.Asks) < maxLevels
	})
	bids.Ascend(func(item btree.Item) bool {
		book.Bids = append(book.Bids, item.(*bidLevel).PriceLevel)
		return maxLevels <= 0 || len(book.Bids) < maxLevels
	})

	if len(book.Asks) > 0 {
		best := book.Asks[0]
		book.BestAsk = &best
	}
	if len(book.Bids) > 0 {
		best := book.Bids[0]
		book.BestBid = &best
	}
	if book.BestAsk != nil && book.BestBid != nil {
		book.Spread = book.BestAsk.Price - book.BestBid.Price
	}
	return book
}
