package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dex-market-core/internal/model"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// LedgerConfig 定义账本节点 API 所需的全部配置
type LedgerConfig struct {
	URL      string
	Username string
	Password string
	Session  string
	Timeout  time.Duration
}

// ledgerEnvelope 账本 API 的通用响应结构
type ledgerEnvelope struct {
	Result json.RawMessage `json:"result"` // 使用 RawMessage 延迟解析
	Error  *ledgerError    `json:"error"`
}

type ledgerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ledgerError) Error() string {
	return fmt.Sprintf("ledger error %d: %s", e.Code, e.Message)
}

// LedgerClient 通过 HTTP JSON 调用账本节点，实现 Caller 和 SecureCaller
type LedgerClient struct {
	http    *resty.Client
	session string
	logger  *zap.Logger
}

// NewLedgerClient 初始化账本客户端
func NewLedgerClient(cfg LedgerConfig, logger *zap.Logger) *LedgerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	logger.Info("Ledger client initialized", zap.String("url", cfg.URL))
	return &LedgerClient{
		http:    client,
		session: cfg.Session,
		logger:  logger.With(zap.String("component", "ledger")),
	}
}

// Call 发送只读请求，返回 result 字段的原始 JSON
func (c *LedgerClient) Call(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	return c.do(ctx, endpoint, params)
}

// SecureCall 发送写请求，附带宿主会话
func (c *LedgerClient) SecureCall(ctx context.Context, endpoint string, params map[string]any) (SecureResult, error) {
	body := make(map[string]any, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	if c.session != "" {
		body["session"] = c.session
	}

	raw, err := c.do(ctx, endpoint, body)
	if err != nil {
		return SecureResult{}, err
	}
	var res SecureResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return SecureResult{}, model.Transport(endpoint, fmt.Errorf("decode secure result: %w", err))
	}
	if !res.Success {
		return res, model.Transport(endpoint, errors.New("ledger reported failure"))
	}
	return res, nil
}

func (c *LedgerClient) do(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}
	path := "/" + strings.TrimLeft(endpoint, "/")

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		Post(path)
	if err != nil {
		c.logger.Warn("Ledger request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, model.Transport(endpoint, err)
	}

	c.logger.Debug("Ledger response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", time.Since(start)))

	var env ledgerEnvelope
	decodeErr := json.Unmarshal(resp.Body(), &env)
	if decodeErr == nil && env.Error != nil {
		return nil, model.Transport(endpoint, env.Error)
	}
	if resp.IsError() {
		return nil, model.Transport(endpoint, fmt.Errorf("status: %s", resp.Status()))
	}
	if decodeErr != nil {
		return nil, model.Transport(endpoint, fmt.Errorf("decode envelope: %w", decodeErr))
	}
	if len(bytes.TrimSpace(env.Result)) == 0 || bytes.Equal(bytes.TrimSpace(env.Result), []byte("null")) {
		return nil, model.Transport(endpoint, errors.New("empty result"))
	}
	return env.Result, nil
}
