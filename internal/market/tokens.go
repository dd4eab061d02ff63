package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dex-market-core/internal/api"
	"dex-market-core/internal/model"
)

// TokenEndpoint 代币元数据接口
const TokenEndpoint = "register/get/finance:token"

// TokenLookup 查询代币的小数位和供应量
type TokenLookup struct {
	caller api.Caller
}

func NewTokenLookup(caller api.Caller) *TokenLookup {
	return &TokenLookup{caller: caller}
}

// Get 按 ticker 查询; NXS 不是注册的代币，直接返回固定信息
func (t *TokenLookup) Get(ctx context.Context, ticker string) (model.TokenInfo, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return model.TokenInfo{}, model.InvalidArgument("token", "ticker is required")
	}
	if ticker == model.NXS {
		return model.TokenInfo{Ticker: model.NXS, Decimals: model.NXSDecimals}, nil
	}

	raw, err := t.caller.Call(ctx, TokenEndpoint, map[string]any{"name": ticker})
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			err = model.Transport(TokenEndpoint, err)
		}
		return model.TokenInfo{}, err
	}
	var info model.TokenInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return model.TokenInfo{}, model.Transport(TokenEndpoint, fmt.Errorf("malformed token info: %w", err))
	}
	if info.Decimals < 0 {
		return model.TokenInfo{}, model.Transport(TokenEndpoint, fmt.Errorf("negative decimals for %s", ticker))
	}
	if info.Ticker == "" {
		info.Ticker = ticker
	}
	return info, nil
}
