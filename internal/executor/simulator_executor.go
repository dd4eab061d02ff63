package executor

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"dex-market-core/internal/model"

	"go.uber.org/zap"
)

// SimulatorExecutor 实现了 Executor 接口，只记录指令不提交 (DryRun 模式)
type SimulatorExecutor struct {
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex // 保护下面的状态
	seq     int
	open    map[string]model.OrderRequest // 模拟的未成交挂单
	history []model.ExecutionRecord
}

// NewSimulatorExecutor 构造函数
func NewSimulatorExecutor(logger *zap.Logger) *SimulatorExecutor {
	return &SimulatorExecutor{
		logger: logger.With(zap.String("component", "simulator")),
		now:    time.Now,
		open:   make(map[string]model.OrderRequest),
	}
}

func (e *SimulatorExecutor) PlaceOrder(_ context.Context, req model.OrderRequest) (model.Receipt, error) {
	endpoint, params, err := placeParams(req)
	if err != nil {
		return model.Receipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	receipt := e.record(model.ActionCreate, endpoint, params)
	e.open[receipt.TxID] = req
	e.logger.Info("Sim ORDER PLACED", zap.String("order", req.String()), zap.String("txid", receipt.TxID))
	return receipt, nil
}

func (e *SimulatorExecutor) ExecuteOrder(_ context.Context, req model.ExecuteRequest) (model.Receipt, error) {
	params, err := executeParams(req)
	if err != nil {
		return model.Receipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	receipt := e.record(model.ActionExecute, EndpointExecute, params)
	e.logger.Info("Sim ORDER EXECUTED", zap.String("target", req.TxID), zap.Float64("amount", req.Amount))
	return receipt, nil
}

func (e *SimulatorExecutor) CancelOrder(_ context.Context, txid string) (model.Receipt, error) {
	params, err := cancelParams(txid)
	if err != nil {
		return model.Receipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.open[txid]; !ok {
		return model.Receipt{}, model.InvalidArgument("CancelOrder", "no simulated order %s", txid)
	}
	delete(e.open, txid)
	receipt := e.record(model.ActionCancel, EndpointCancel, params)
	e.logger.Info("Sim ORDER CANCELLED", zap.String("txid", txid))
	return receipt, nil
}

// record 调用方需持有写锁
func (e *SimulatorExecutor) record(action model.ActionType, endpoint string, params map[string]any) model.Receipt {
	e.seq++
	receipt := model.Receipt{Success: true, TxID: fmt.Sprintf("sim-%d", e.seq)}
	e.history = append(e.history, model.ExecutionRecord{
		Action:    action,
		Endpoint:  endpoint,
		Params:    maps.Clone(params),
		Receipt:   receipt,
		Submitted: e.now(),
	})
	return receipt
}

// History 返回已提交指令的副本
func (e *SimulatorExecutor) History() []model.ExecutionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	records := make([]model.ExecutionRecord, len(e.history))
	copy(records, e.history)
	return records
}

// OpenOrders 当前仍在模拟盘口中的挂单数
func (e *SimulatorExecutor) OpenOrders() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.open)
}
