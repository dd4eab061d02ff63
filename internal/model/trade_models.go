package model

import (
	"fmt"
	"time"
)

// ActionType 定义了执行器发往账本的指令类型
type ActionType string

const (
	ActionCreate  ActionType = "CREATE"  // 挂单
	ActionExecute ActionType = "EXECUTE" // 吃单 (选中盘口中的某一笔)
	ActionCancel  ActionType = "CANCEL"  // 撤单
)

// OrderRequest 挂单请求，价格和数量均为人类可读单位
type OrderRequest struct {
	Market string  `json:"market" validate:"required,contains=/"`
	Type   Side    `json:"type" validate:"oneof=bid ask"`
	Price  float64 `json:"price" validate:"gt=0"`
	Amount float64 `json:"amount" validate:"gt=0"`
	From   string  `json:"from,omitempty"`
	To     string  `json:"to,omitempty"`
}

func (r OrderRequest) String() string {
	return fmt.Sprintf("ORDER [%s | %s] @ %.6f | Amount: %.6f", r.Type, r.Market, r.Price, r.Amount)
}

// ExecuteRequest 吃掉一笔挂单; Amount 为 0 表示全部成交
type ExecuteRequest struct {
	TxID   string  `json:"txid" validate:"required"`
	Amount float64 `json:"amount,omitempty" validate:"gte=0"`
	From   string  `json:"from,omitempty"`
	To     string  `json:"to,omitempty"`
}

// Receipt secureApiCall 的返回
type Receipt struct {
	Success bool   `json:"success"`
	TxID    string `json:"txid,omitempty"`
	Address string `json:"address,omitempty"`
}

// ExecutionRecord 记录一次已提交的指令 (模拟执行器使用)
type ExecutionRecord struct {
	Action    ActionType
	Endpoint  string
	Params    map[string]any
	Receipt   Receipt
	Submitted time.Time
}
