package market

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"dex-market-core/internal/api"
	"dex-market-core/internal/model"
	"dex-market-core/internal/service"

	"go.uber.org/zap"
)

// 订单种类，对应 market/list/{kind}
const (
	KindBid      = "bid"
	KindAsk      = "ask"
	KindOrder    = "order"
	KindExecuted = "executed"
)

// 排序字段
const (
	SortTime        = "time"
	SortPrice       = "price"
	SortVolumeQuote = "volumeQuote"
	SortVolumeBase  = "volumeBase"
)

// 排序方向
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// 时间窗口
const (
	TimeFilterDay   = "1d"
	TimeFilterWeek  = "1w"
	TimeFilterMonth = "1m"
	TimeFilterYear  = "1y"
	TimeFilterAll   = "all"
)

var timeWindows = map[string]time.Duration{
	TimeFilterDay:   24 * time.Hour,
	TimeFilterWeek:  7 * 24 * time.Hour,
	TimeFilterMonth: 30 * 24 * time.Hour,
	TimeFilterYear:  365 * 24 * time.Hour,
	TimeFilterAll:   0,
}

var validKinds = map[string]struct{}{
	KindBid: {}, KindAsk: {}, KindOrder: {}, KindExecuted: {},
}

// Query listMarket 的全部参数; 零值字段使用默认值 (time / desc / all)
type Query struct {
	Pair       model.Pair
	Kind       string
	Sort       string
	Direction  string
	TimeFilter string
	Limit      int
	TypeFilter string

	// Since/Before 额外的绝对时间边界 (秒)，只保留 Since < timestamp < Before; 0 表示不限
	Since  int64
	Before int64
}

// rawList market/list 的原始返回
type rawList struct {
	Bids []model.Order `json:"bids" validate:"dive"`
	Asks []model.Order `json:"asks" validate:"dive"`
}

// Fetcher 调用 market/list 并完成标准化、过滤、排序和截断
type Fetcher struct {
	caller api.Caller
	now    func() time.Time
	logger *zap.Logger
}

// NewFetcher 创建列表获取器，caller 通常是带缓存的调用者
func NewFetcher(caller api.Caller, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		caller: caller,
		now:    time.Now,
		logger: logger.With(zap.String("component", "fetcher")),
	}
}

// WithClock 替换时间源
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Endpoint 返回某种订单对应的列表接口
func Endpoint(kind string) string {
	return "market/list/" + kind
}

// List 获取并处理订单列表; 出错时返回空的 {bids:[], asks:[]} 和分类错误
func (f *Fetcher) List(ctx context.Context, q Query) (model.Orders, error) {
	q = withDefaults(q)
	if err := validateQuery(q); err != nil {
		return model.EmptyOrders(), err
	}

	var cutoff int64
	if w := timeWindows[q.TimeFilter]; w > 0 {
		cutoff = f.now().Add(-w).Unix()
	}
	cutoff = max(cutoff, q.Since)

	endpoint := Endpoint(q.Kind)
	raw, err := f.caller.Call(ctx, endpoint, listParams(q, cutoff))
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			err = model.Transport(endpoint, err)
		}
		return model.EmptyOrders(), err
	}

	var list rawList
	if err := json.Unmarshal(raw, &list); err != nil {
		return model.EmptyOrders(), model.Transport(endpoint, fmt.Errorf("malformed market list: %w", err))
	}
	if err := service.GetValidator().Struct(list); err != nil {
		return model.EmptyOrders(), model.Transport(endpoint, fmt.Errorf("market list failed validation: %w", err))
	}

	out := model.EmptyOrders()
	for _, o := range append(list.Bids, list.Asks...) {
		if o.Timestamp <= cutoff || (q.Before > 0 && o.Timestamp >= q.Before) {
			continue
		}
		if q.TypeFilter != "" && string(o.Type) != q.TypeFilter {
			continue
		}
		n := Normalize(o, q.Pair)
		// 按记录自身类型重新分组，不信任服务端的 bids/asks 划分
		if n.Type == model.SideBid {
			out.Bids = append(out.Bids, n)
		} else {
			out.Asks = append(out.Asks, n)
		}
	}

	less := comparator(q.Sort, q.Direction)
	slices.SortStableFunc(out.Bids, less)
	slices.SortStableFunc(out.Asks, less)

	if q.Limit > 0 {
		out.Bids = out.Bids[:min(q.Limit, len(out.Bids))]
		out.Asks = out.Asks[:min(q.Limit, len(out.Asks))]
	}

	f.logger.Debug("Market list fetched",
		zap.String("market", q.Pair.String()),
		zap.String("kind", q.Kind),
		zap.Int("bids", len(out.Bids)),
		zap.Int("asks", len(out.Asks)))
	return out, nil
}

// listParams 构造 market/list 请求: {market, sort, order, limit, where}
// 服务端结果只用来缩小窗口，过滤、排序和截断仍在本地完成
func listParams(q Query, cutoff int64) map[string]any {
	params := map[string]any{"market": q.Pair.String()}

	var where []string
	if cutoff > 0 {
		// 按分钟向下取整，同一分钟内的请求共用缓存键
		where = append(where, fmt.Sprintf("results.timestamp>%d", cutoff-cutoff%60))
	}
	if q.Before > 0 {
		where = append(where, fmt.Sprintf("results.timestamp<%d", q.Before))
	}
	if len(where) > 0 {
		params["where"] = strings.Join(where, " AND ")
	}

	// 服务端的 price 字段不可靠，成交量依赖标准化，只有按时间排序能交给服务端
	if q.Sort == SortTime {
		params["sort"] = "timestamp"
		params["order"] = q.Direction
		if q.Limit > 0 && q.TypeFilter == "" {
			params["limit"] = q.Limit
		}
	}
	return params
}

func withDefaults(q Query) Query {
	if q.Sort == "" {
		q.Sort = SortTime
	}
	if q.Direction == "" {
		q.Direction = DirectionDesc
	}
	if q.TimeFilter == "" {
		q.TimeFilter = TimeFilterAll
	}
	return q
}

func validateQuery(q Query) error {
	const op = "listMarket"
	if q.Pair.Base == "" || q.Pair.Quote == "" {
		return model.InvalidArgument(op, "market pair is required")
	}
	if _, ok := validKinds[q.Kind]; !ok {
		return model.InvalidArgument(op, "unsupported kind %q", q.Kind)
	}
	if _, ok := timeWindows[q.TimeFilter]; !ok {
		return model.InvalidArgument(op, "unsupported time filter %q", q.TimeFilter)
	}
	if q.Limit < 0 {
		return model.InvalidArgument(op, "limit must not be negative, got %d", q.Limit)
	}
	if q.Since < 0 || q.Before < 0 {
		return model.InvalidArgument(op, "time bounds must not be negative")
	}
	switch q.Sort {
	case SortTime, SortPrice, SortVolumeQuote, SortVolumeBase:
	default:
		return model.InvalidArgument(op, "unsupported sort %q", q.Sort)
	}
	switch q.Direction {
	case DirectionAsc, DirectionDesc:
	default:
		return model.InvalidArgument(op, "unsupported direction %q", q.Direction)
	}
	switch q.TypeFilter {
	case "", string(model.SideBid), string(model.SideAsk):
	default:
		return model.InvalidArgument(op, "unsupported type filter %q", q.TypeFilter)
	}
	return nil
}

func comparator(sortKey, direction string) func(a, b model.Order) int {
	var key func(o model.Order) float64
	switch sortKey {
	case SortPrice:
		key = func(o model.Order) float64 { return o.Price }
	case SortVolumeQuote:
		key = model.Order.QuoteAmount
	case SortVolumeBase:
		key = model.Order.BaseAmount
	default:
		key = func(o model.Order) float64 { return float64(o.Timestamp) }
	}
	if direction == DirectionAsc {
		return func(a, b model.Order) int { return cmp.Compare(key(a), key(b)) }
	}
	return func(a, b model.Order) int { return cmp.Compare(key(b), key(a)) }
}
