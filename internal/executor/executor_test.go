package executor

import (
	"context"
	"errors"
	"testing"

	"dex-market-core/internal/api"
	"dex-market-core/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type secureStub struct {
	endpoint string
	params   map[string]any
	result   api.SecureResult
	err      error
}

func (s *secureStub) SecureCall(_ context.Context, endpoint string, params map[string]any) (api.SecureResult, error) {
	s.endpoint, s.params = endpoint, params
	return s.result, s.err
}

func TestLedgerExecutorPlaceOrder(t *testing.T) {
	stub := &secureStub{result: api.SecureResult{Success: true, TxID: "01ab"}}
	e := NewLedgerExecutor(stub, zap.NewNop())

	r, err := e.PlaceOrder(context.Background(), model.OrderRequest{Market: "DIST/NXS", Type: model.SideAsk, Price: 0.5, Amount: 10, From: "default"})
	require.NoError(t, err)
	assert.Equal(t, model.Receipt{Success: true, TxID: "01ab"}, r)
	assert.Equal(t, EndpointCreateAsk, stub.endpoint)
	assert.Equal(t, map[string]any{"market": "DIST/NXS", "price": 0.5, "amount": 10.0, "from": "default"}, stub.params)

	_, err = e.PlaceOrder(context.Background(), model.OrderRequest{Market: "DIST/NXS", Type: model.SideBid, Price: 0.5, Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, EndpointCreateBid, stub.endpoint)
}

func TestLedgerExecutorRejectsInvalidOrders(t *testing.T) {
	stub := &secureStub{}
	e := NewLedgerExecutor(stub, zap.NewNop())

	bad := []model.OrderRequest{
		{Market: "DISTNXS", Type: model.SideBid, Price: 1, Amount: 1},
		{Market: "DIST/NXS", Type: "swap", Price: 1, Amount: 1},
		{Market: "DIST/NXS", Type: model.SideBid, Price: 0, Amount: 1},
		{Market: "DIST/NXS", Type: model.SideBid, Price: 1, Amount: -1},
	}
	for _, req := range bad {
		_, err := e.PlaceOrder(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrInvalidArgument, req.String())
	}
	assert.Empty(t, stub.endpoint, "nothing submitted")
}

func TestLedgerExecutorExecuteAndCancel(t *testing.T) {
	stub := &secureStub{result: api.SecureResult{Success: true, TxID: "02cd"}}
	e := NewLedgerExecutor(stub, zap.NewNop())

	_, err := e.ExecuteOrder(context.Background(), model.ExecuteRequest{TxID: "01ab"})
	require.NoError(t, err)
	assert.Equal(t, EndpointExecute, stub.endpoint)
	assert.Equal(t, map[string]any{"txid": "01ab"}, stub.params, "full fill sends no amount")

	_, err = e.ExecuteOrder(context.Background(), model.ExecuteRequest{TxID: "01ab", Amount: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, stub.params["amount"])

	_, err = e.CancelOrder(context.Background(), "01ab")
	require.NoError(t, err)
	assert.Equal(t, EndpointCancel, stub.endpoint)

	_, err = e.CancelOrder(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = e.ExecuteOrder(context.Background(), model.ExecuteRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestLedgerExecutorWrapsTransportErrors(t *testing.T) {
	stub := &secureStub{err: errors.New("socket closed")}
	e := NewLedgerExecutor(stub, zap.NewNop())

	r, err := e.CancelOrder(context.Background(), "01ab")
	assert.ErrorIs(t, err, model.ErrTransport)
	assert.Equal(t, model.Receipt{}, r)
}

func TestSimulatorExecutor(t *testing.T) {
	sim := NewSimulatorExecutor(zap.NewNop())
	ctx := context.Background()

	r1, err := sim.PlaceOrder(ctx, model.OrderRequest{Market: "DIST/NXS", Type: model.SideBid, Price: 0.4, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, "sim-1", r1.TxID)
	assert.True(t, r1.Success)
	assert.Equal(t, 1, sim.OpenOrders())

	_, err = sim.ExecuteOrder(ctx, model.ExecuteRequest{TxID: "ext-1", Amount: 1})
	require.NoError(t, err)

	_, err = sim.CancelOrder(ctx, r1.TxID)
	require.NoError(t, err)
	assert.Equal(t, 0, sim.OpenOrders())

	_, err = sim.CancelOrder(ctx, r1.TxID)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	h := sim.History()
	require.Len(t, h, 3)
	assert.Equal(t, []model.ActionType{model.ActionCreate, model.ActionExecute, model.ActionCancel},
		[]model.ActionType{h[0].Action, h[1].Action, h[2].Action})
	assert.Equal(t, EndpointCreateBid, h[0].Endpoint)
	assert.Equal(t, 1.0, h[1].Params["amount"])
	assert.Equal(t, "sim-3", h[2].Receipt.TxID)
}

func TestSimulatorImplementsExecutor(t *testing.T) {
	var _ Executor = NewSimulatorExecutor(zap.NewNop())
	var _ Executor = NewLedgerExecutor(&secureStub{}, zap.NewNop())
}
