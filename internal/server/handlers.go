package server

import (
	"net/http"

	"dex-market-core/internal/executor"
	"dex-market-core/internal/market"
	"dex-market-core/internal/model"
	"dex-market-core/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultTradeLimit = 50
	defaultRange      = int64(7 * 24 * 60 * 60)
)

type handler struct {
	market  MarketService
	exec    executor.Executor
	watcher Watcher
}

func pairParam(c *gin.Context) (model.Pair, error) {
	return model.ParsePair(c.Param("base") + "/" + c.Param("quote"))
}

// intQuery 读取整数参数，缺省时返回 def
func intQuery(c *gin.Context, name string, def int64) (int64, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	v, err := service.StringToInt64(s)
	if err != nil {
		return 0, model.InvalidArgument(name, "not an integer: %q", s)
	}
	return v, nil
}

// GET /api/markets/:base/:quote/orders?kind=bid&sort=time&direction=desc&timeFilter=1d&limit=5&type=bid
func (h *handler) listOrders(c *gin.Context) {
	pair, err := pairParam(c)
	if err != nil {
		render(c, model.EmptyOrders(), err)
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		render(c, model.EmptyOrders(), err)
		return
	}
	kind := c.DefaultQuery("kind", market.KindOrder)
	orders, err := h.market.Orders(c.Request.Context(), market.Query{
		Pair:       pair,
		Kind:       kind,
		Sort:       c.Query("sort"),
		Direction:  c.Query("direction"),
		TimeFilter: c.Query("timeFilter"),
		Limit:      int(limit),
		TypeFilter: c.Query("type"),
	})
	render(c, orders, err)
}

// GET /api/markets/:base/:quote/book
func (h *handler) orderBook(c *gin.Context) {
	pair, err := pairParam(c)
	if err != nil {
		render(c, model.EmptyOrderBook(model.Pair{}), err)
		return
	}
	book, err := h.market.OrderBook(c.Request.Context(), pair)
	render(c, book, err)
}

// GET /api/markets/:base/:quote/trades?timeFilter=1w&limit=50
func (h *handler) trades(c *gin.Context) {
	pair, err := pairParam(c)
	if err != nil {
		render(c, model.EmptyOrders(), err)
		return
	}
	limit, err := intQuery(c, "limit", defaultTradeLimit)
	if err != nil {
		render(c, model.EmptyOrders(), err)
		return
	}
	trades, err := h.market.TradeHistory(c.Request.Context(), pair, c.DefaultQuery("timeFilter", market.TimeFilterAll), int(limit))
	render(c, trades, err)
}

// GET /api/markets/:base/:quote/candles?interval=1h&range=86400
func (h *handler) candles(c *gin.Context) {
	interval := c.DefaultQuery("interval", "1h")
	empty := model.Chart{Series: model.EmptySeries(interval), Indicators: model.EmptyIndicators()}
	pair, err := pairParam(c)
	if err != nil {
		render(c, empty, err)
		return
	}
	rangeSeconds, err := intQuery(c, "range", defaultRange)
	if err != nil {
		render(c, empty, err)
		return
	}
	chart, err := h.market.Chart(c.Request.Context(), pair, interval, rangeSeconds)
	render(c, chart, err)
}

// GET /api/markets/:base/:quote/depth
func (h *handler) depth(c *gin.Context) {
	pair, err := pairParam(c)
	if err != nil {
		render(c, model.EmptyDepth(), err)
		return
	}
	depth, err := h.market.Depth(c.Request.Context(), pair)
	render(c, depth, err)
}

// GET /api/markets/:base/:quote/overview
func (h *handler) overview(c *gin.Context) {
	pair, err := pairParam(c)
	if err != nil {
		render(c, model.EmptyOverview(model.Pair{}), err)
		return
	}
	ov, err := h.market.Overview(c.Request.Context(), pair, defaultTradeLimit)
	render(c, ov, err)
}

// GET /api/tokens/:ticker
func (h *handler) token(c *gin.Context) {
	info, err := h.market.Token(c.Request.Context(), c.Param("ticker"))
	render(c, info, err)
}

// POST /api/orders
func (h *handler) placeOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, model.Receipt{}, model.InvalidArgument("PlaceOrder", "invalid request body: %v", err))
		return
	}
	receipt, err := h.exec.PlaceOrder(c.Request.Context(), req)
	render(c, receipt, err)
}

// POST /api/orders/:txid/execute
func (h *handler) executeOrder(c *gin.Context) {
	var req model.ExecuteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			render(c, model.Receipt{}, model.InvalidArgument("ExecuteOrder", "invalid request body: %v", err))
			return
		}
	}
	req.TxID = c.Param("txid")
	receipt, err := h.exec.ExecuteOrder(c.Request.Context(), req)
	render(c, receipt, err)
}

// POST /api/orders/:txid/cancel
func (h *handler) cancelOrder(c *gin.Context) {
	receipt, err := h.exec.CancelOrder(c.Request.Context(), c.Param("txid"))
	render(c, receipt, err)
}

type watchRequest struct {
	Market string `json:"market" binding:"required"`
}

// POST /api/watch {"market": "DIST/NXS"}
func (h *handler) watch(c *gin.Context) {
	if h.watcher == nil {
		c.JSON(http.StatusNotImplemented, Response{Error: "polling disabled"})
		return
	}
	var req watchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render(c, nil, model.InvalidArgument("watch", "invalid request body: %v", err))
		return
	}
	pair, err := model.ParsePair(req.Market)
	if err != nil {
		render(c, nil, err)
		return
	}
	gen := h.watcher.Watch(pair)
	render(c, gin.H{"market": pair.String(), "generation": gen}, nil)
}
