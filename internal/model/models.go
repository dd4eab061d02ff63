package model

import (
	"fmt"
	"strings"
)

// Side 订单方向: bid 买入 base，ask 卖出 base
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

const (
	// NXS 是链上原生币，线上金额固定为人类可读金额 ×10^6
	NXS = "NXS"
	// NXSDecimals NXS 可分单位的小数位数
	NXSDecimals = 6
)

// Leg 订单的一侧资产 (contract 为付出，order 为收到)
type Leg struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	Ticker string  `json:"ticker"`
}

// Order 代表 market/list 返回的一笔挂单或成交
type Order struct {
	TxID      string  `json:"txid" validate:"required"`
	Type      Side    `json:"type" validate:"oneof=bid ask"`
	Price     float64 `json:"price"` // 服务端字段不可靠，标准化时会被重新计算
	Timestamp int64   `json:"timestamp" validate:"gte=0"`
	Owner     string  `json:"owner"`
	Contract  Leg     `json:"contract"`
	Order     Leg     `json:"order"`

	// Normalized 标记单位换算已完成，防止重复缩放
	Normalized bool `json:"-"`
}

// ComputePrice 按数量之比计算价格 (quote / base)
// bid: contract / order, ask: order / contract; 除数为 0 时返回 0
func (o Order) ComputePrice() float64 {
	var num, den float64
	switch o.Type {
	case SideBid:
		num, den = o.Contract.Amount, o.Order.Amount
	case SideAsk:
		num, den = o.Order.Amount, o.Contract.Amount
	default:
		return 0
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// BaseAmount 返回以 base 计价的数量
func (o Order) BaseAmount() float64 {
	if o.Type == SideBid {
		return o.Order.Amount
	}
	return o.Contract.Amount
}

// QuoteAmount 返回以 quote 计价的数量
func (o Order) QuoteAmount() float64 {
	if o.Type == SideBid {
		return o.Contract.Amount
	}
	return o.Order.Amount
}

// Orders 按方向划分的订单列表，任何情况下都不为 nil
type Orders struct {
	Bids []Order `json:"bids"`
	Asks []Order `json:"asks"`
}

// EmptyOrders 返回失败时使用的空结构
func EmptyOrders() Orders {
	return Orders{Bids: []Order{}, Asks: []Order{}}
}

// Pair 交易对 BASE/QUOTE
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// ParsePair 解析 "DIST/NXS" 形式的交易对
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(s, "/")
	base, quote = strings.TrimSpace(base), strings.TrimSpace(quote)
	if !ok || base == "" || quote == "" || strings.Contains(quote, "/") {
		return Pair{}, InvalidArgument("ParsePair", "malformed market pair %q", s)
	}
	return Pair{Base: base, Quote: quote}, nil
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// IsZero 是否未设置
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

// TokenInfo 代币元数据 (小数位、流通量、最大供应量)
type TokenInfo struct {
	Ticker        string  `json:"ticker"`
	Address       string  `json:"address,omitempty"`
	Decimals      int     `json:"decimals"`
	CurrentSupply float64 `json:"currentsupply"`
	MaxSupply     float64 `json:"maxsupply"`
}

// LastPrice 最近一笔成交
type LastPrice struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Type      Side    `json:"type,omitempty"`
}

// ErrorDialog 交给宿主错误弹窗展示的内容
type ErrorDialog struct {
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
}

// ErrorReporter 宿主提供的错误展示协作者
type ErrorReporter interface {
	ShowErrorDialog(dialog ErrorDialog)
}
