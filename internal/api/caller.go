package api

import (
	"context"
	"encoding/json"
)

// Caller 对应宿主的只读调用 apiCall(endpoint, params)
type Caller interface {
	Call(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error)
}

// SecureCaller 对应宿主的写调用 secureApiCall(endpoint, params)，签名由宿主完成
type SecureCaller interface {
	SecureCall(ctx context.Context, endpoint string, params map[string]any) (SecureResult, error)
}

// SecureResult secure 调用的通用返回
type SecureResult struct {
	Success bool   `json:"success"`
	TxID    string `json:"txid"`
	Address string `json:"address"`
}

// CallerFunc 允许用普通函数充当 Caller
type CallerFunc func(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error)

func (f CallerFunc) Call(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	return f(ctx, endpoint, params)
}
