package market

import (
	"testing"

	"dex-market-core/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookOrders() model.Orders {
	return model.Orders{
		Bids: NormalizeAll([]model.Order{
			rawBid("b1", 1, 1_000_000, 2), // 0.5
			rawBid("b2", 2, 1_800_000, 2), // 0.9
			rawBid("b3", 3, 2_000_000, 4), // 0.5
			rawBid("b4", 4, 700_000, 1),   // 0.7
		}, distNXS),
		Asks: NormalizeAll([]model.Order{
			rawAsk("a1", 1, 1, 1_500_000), // 1.5
			rawAsk("a2", 2, 2, 2_000_000), // 1
			rawAsk("a3", 3, 1, 1_200_000), // 1.2
		}, distNXS),
	}
}

func prices(levels []model.PriceLevel) []float64 {
	out := make([]float64, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Price)
	}
	return out
}

func TestBuildOrderBookOrdering(t *testing.T) {
	book := BuildOrderBook(distNXS, bookOrders(), 0)

	assert.Equal(t, []float64{1, 1.2, 1.5}, prices(book.Asks), "asks ascending from best")
	assert.Equal(t, []float64{0.9, 0.7, 0.5}, prices(book.Bids), "bids descending from best")

	require.NotNil(t, book.BestAsk)
	require.NotNil(t, book.BestBid)
	assert.Equal(t, 1.0, book.BestAsk.Price)
	assert.Equal(t, 0.9, book.BestBid.Price)
	assert.InDelta(t, 0.1, book.Spread, 1e-9)
	assert.Equal(t, distNXS, book.Pair)
}

func TestBuildOrderBookLevelSelection(t *testing.T) {
	book := BuildOrderBook(distNXS, bookOrders(), 0)

	level, ok := book.LevelAt(model.SideBid, 0.5)
	require.True(t, ok)
	assert.Equal(t, 2, level.Count)
	assert.ElementsMatch(t, []string{"b1", "b3"}, []string{level.Orders[0].TxID, level.Orders[1].TxID})
}

func TestBuildOrderBookMaxLevels(t *testing.T) {
	book := BuildOrderBook(distNXS, bookOrders(), 2)

	assert.Equal(t, []float64{1, 1.2}, prices(book.Asks))
	assert.Equal(t, []float64{0.9, 0.7}, prices(book.Bids))
}

func TestBuildOrderBookOneSided(t *testing.T) {
	orders := bookOrders()
	orders.Bids = nil
	book := BuildOrderBook(distNXS, orders, 0)

	assert.NotNil(t, book.Bids)
	assert.Empty(t, book.Bids)
	assert.Nil(t, book.BestBid)
	assert.Equal(t, 0.0, book.Spread)
}
