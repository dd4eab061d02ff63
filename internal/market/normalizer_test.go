package market

import (
	"testing"

	"dex-market-core/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBid(t *testing.T) {
	raw := rawBid("b1", 1, 2_000_000, 10)
	got := Normalize(raw, distNXS)

	assert.Equal(t, 2.0, got.Contract.Amount)
	assert.Equal(t, 10.0, got.Order.Amount)
	assert.InDelta(t, 0.2, got.Price, 1e-12)
	assert.True(t, got.Normalized)

	// 入参不被修改
	assert.Equal(t, 2_000_000.0, raw.Contract.Amount)
	assert.False(t, raw.Normalized)
}

func TestNormalizeAsk(t *testing.T) {
	got := Normalize(rawAsk("a1", 1, 10, 3_000_000), distNXS)

	assert.Equal(t, 10.0, got.Contract.Amount)
	assert.Equal(t, 3.0, got.Order.Amount)
	assert.InDelta(t, 0.3, got.Price, 1e-12)
}

func TestNormalizeBaseIsNXS(t *testing.T) {
	pair := model.Pair{Base: "NXS", Quote: "DIST"}
	// bid 付出 quote(DIST) 收到 base(NXS)
	bid := model.Order{Type: model.SideBid, Contract: model.Leg{Amount: 50}, Order: model.Leg{Amount: 5_000_000}}
	got := Normalize(bid, pair)

	assert.Equal(t, 50.0, got.Contract.Amount)
	assert.Equal(t, 5.0, got.Order.Amount)
	assert.Equal(t, 10.0, got.Price)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize(rawBid("b1", 1, 1_500_000, 3), distNXS)
	twice := Normalize(once, distNXS)

	assert.Equal(t, once, twice)
	assert.Equal(t, once.ComputePrice(), twice.Price)
}

func TestNormalizeZeroDivisor(t *testing.T) {
	got := Normalize(rawBid("b1", 1, 1_000_000, 0), distNXS)
	assert.Equal(t, 0.0, got.Price)

	got = Normalize(rawAsk("a1", 1, 0, 1_000_000), distNXS)
	assert.Equal(t, 0.0, got.Price)
}

func TestNormalizeNonNXSPair(t *testing.T) {
	pair := model.Pair{Base: "DIST", Quote: "USDD"}
	got := Normalize(model.Order{Type: model.SideAsk, Contract: model.Leg{Amount: 4}, Order: model.Leg{Amount: 2}}, pair)

	assert.Equal(t, 4.0, got.Contract.Amount)
	assert.Equal(t, 2.0, got.Order.Amount)
	assert.Equal(t, 0.5, got.Price)
}

func TestNormalizeBothNXS(t *testing.T) {
	pair := model.Pair{Base: "NXS", Quote: "NXS"}
	got := Normalize(model.Order{Type: model.SideBid, Contract: model.Leg{Amount: 2_000_000}, Order: model.Leg{Amount: 4_000_000}}, pair)

	assert.Equal(t, 2.0, got.Contract.Amount)
	assert.Equal(t, 4.0, got.Order.Amount)
	assert.Equal(t, 0.5, got.Price)
}

func TestNormalizeExactDecimal(t *testing.T) {
	got := Normalize(rawBid("b1", 1, 100_000, 1), distNXS)
	assert.Equal(t, 0.1, got.Contract.Amount)
}

func TestNormalizeAll(t *testing.T) {
	raw := []model.Order{rawBid("b1", 1, 1_000_000, 2), rawAsk("a1", 1, 2, 1_000_000)}
	out := NormalizeAll(raw, distNXS)

	assert.Len(t, out, 2)
	assert.Equal(t, 0.5, out[0].Price)
	assert.Equal(t, 0.5, out[1].Price)
	assert.False(t, raw[0].Normalized)
}
