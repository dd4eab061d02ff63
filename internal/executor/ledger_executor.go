package executor

import (
	"context"

	"dex-market-core/internal/api"
	"dex-market-core/internal/model"

	"go.uber.org/zap"
)

// LedgerExecutor 通过 secureApiCall 把指令提交给账本
type LedgerExecutor struct {
	caller api.SecureCaller
	logger *zap.Logger
}

// NewLedgerExecutor 创建真实执行器
func NewLedgerExecutor(caller api.SecureCaller, logger *zap.Logger) *LedgerExecutor {
	return &LedgerExecutor{caller: caller, logger: logger.With(zap.String("component", "executor"))}
}

func (e *LedgerExecutor) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Receipt, error) {
	endpoint, params, err := placeParams(req)
	if err != nil {
		return model.Receipt{}, err
	}
	e.logger.Info("Submitting order", zap.String("order", req.String()))
	return e.submit(ctx, endpoint, params)
}

func (e *LedgerExecutor) ExecuteOrder(ctx context.Context, req model.ExecuteRequest) (model.Receipt, error) {
	params, err := executeParams(req)
	if err != nil {
		return model.Receipt{}, err
	}
	e.logger.Info("Executing order", zap.String("txid", req.TxID), zap.Float64("amount", req.Amount))
	return e.submit(ctx, EndpointExecute, params)
}

func (e *LedgerExecutor) CancelOrder(ctx context.Context, txid string) (model.Receipt, error) {
	params, err := cancelParams(txid)
	if err != nil {
		return model.Receipt{}, err
	}
	e.logger.Info("Cancelling order", zap.String("txid", txid))
	return e.submit(ctx, EndpointCancel, params)
}

func (e *LedgerExecutor) submit(ctx context.Context, endpoint string, params map[string]any) (model.Receipt, error) {
	res, err := e.caller.SecureCall(ctx, endpoint, params)
	if err != nil {
		e.logger.Error("Secure call failed", zap.String("endpoint", endpoint), zap.Error(err))
		if model.KindOf(err) == model.KindUnknown {
			err = model.Transport(endpoint, err)
		}
		return model.Receipt{}, err
	}
	e.logger.Info("Secure call accepted", zap.String("endpoint", endpoint), zap.String("txid", res.TxID))
	return model.Receipt{Success: res.Success, TxID: res.TxID, Address: res.Address}, nil
}
