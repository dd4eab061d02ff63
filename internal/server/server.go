package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dex-market-core/internal/executor"
	"dex-market-core/internal/market"
	"dex-market-core/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketService 处理器依赖的市场数据接口
type MarketService interface {
	Orders(ctx context.Context, q market.Query) (model.Orders, error)
	OrderBook(ctx context.Context, pair model.Pair) (model.OrderBook, error)
	TradeHistory(ctx context.Context, pair model.Pair, timeFilter string, limit int) (model.Orders, error)
	Chart(ctx context.Context, pair model.Pair, interval string, rangeSeconds int64) (model.Chart, error)
	Depth(ctx context.Context, pair model.Pair) (model.Depth, error)
	Overview(ctx context.Context, pair model.Pair, tradeLimit int) (model.Overview, error)
	Token(ctx context.Context, ticker string) (model.TokenInfo, error)
}

// Watcher 切换轮询的交易对
type Watcher interface {
	Watch(pair model.Pair) uint64
}

// Deps 组装路由所需的全部协作者; Watcher 和 WS 可以为空
type Deps struct {
	Market   MarketService
	Executor executor.Executor
	Watcher  Watcher
	WS       http.HandlerFunc
	Logger   *zap.Logger
}

// NewRouter 注册全部路由
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger))

	h := &handler{market: d.Market, exec: d.Executor, watcher: d.Watcher}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.WS != nil {
		router.GET("/ws", gin.WrapF(d.WS))
	}

	api := router.Group("/api")
	{
		markets := api.Group("/markets/:base/:quote")
		markets.GET("/orders", h.listOrders)
		markets.GET("/book", h.orderBook)
		markets.GET("/trades", h.trades)
		markets.GET("/candles", h.candles)
		markets.GET("/depth", h.depth)
		markets.GET("/overview", h.overview)

		api.GET("/tokens/:ticker", h.token)

		api.POST("/orders", h.placeOrder)
		api.POST("/orders/:txid/execute", h.executeOrder)
		api.POST("/orders/:txid/cancel", h.cancelOrder)

		api.POST("/watch", h.watch)
	}
	return router
}

// Response 所有接口的统一返回，出错时 Data 仍是对应的空结构
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// StatusFor 错误分类到 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, model.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func render(c *gin.Context, data any, err error) {
	if err != nil {
		c.JSON(StatusFor(err), Response{Data: data, Error: err.Error(), Kind: model.KindOf(err).String()})
		return
	}
	c.JSON(http.StatusOK, Response{Data: data})
}

// requestLogger 用 zap 记录每个请求
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}
