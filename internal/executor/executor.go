package executor

import (
	"context"

	"dex-market-core/internal/model"
	"dex-market-core/internal/service"
)

// 账本写接口
const (
	EndpointCreateBid = "market/create/bid"
	EndpointCreateAsk = "market/create/ask"
	EndpointExecute   = "market/execute/order"
	EndpointCancel    = "market/cancel/order"
)

// Executor 是下单执行器的通用接口，签名由宿主完成，这里只负责组装指令
type Executor interface {
	// 挂一笔买单或卖单
	PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Receipt, error)

	// 吃掉盘口中选中的某一笔挂单，Amount > 0 时为部分成交
	ExecuteOrder(ctx context.Context, req model.ExecuteRequest) (model.Receipt, error)

	// 撤销自己的挂单
	CancelOrder(ctx context.Context, txid string) (model.Receipt, error)
}

// createEndpoint 返回挂单方向对应的接口
func createEndpoint(side model.Side) string {
	if side == model.SideAsk {
		return EndpointCreateAsk
	}
	return EndpointCreateBid
}

func placeParams(req model.OrderRequest) (string, map[string]any, error) {
	if err := service.GetValidator().Struct(req); err != nil {
		return "", nil, model.InvalidArgument("PlaceOrder", "%v", err)
	}
	params := map[string]any{
		"market": req.Market,
		"price":  req.Price,
		"amount": req.Amount,
	}
	if req.From != "" {
		params["from"] = req.From
	}
	if req.To != "" {
		params["to"] = req.To
	}
	return createEndpoint(req.Type), params, nil
}

func executeParams(req model.ExecuteRequest) (map[string]any, error) {
	if err := service.GetValidator().Struct(req); err != nil {
		return nil, model.InvalidArgument("ExecuteOrder", "%v", err)
	}
	params := map[string]any{"txid": req.TxID}
	if req.Amount > 0 {
		params["amount"] = req.Amount
	}
	if req.From != "" {
		params["from"] = req.From
	}
	if req.To != "" {
		params["to"] = req.To
	}
	return params, nil
}

func cancelParams(txid string) (map[string]any, error) {
	if txid == "" {
		return nil, model.InvalidArgument("CancelOrder", "txid is required")
	}
	return map[string]any{"txid": txid}, nil
}
