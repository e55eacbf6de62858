// Package billing 收银端内存中的在建账单
package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/pharmadesk/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate 小计上计征的 GST 税率
var DefaultTaxRate = decimal.RequireFromString("0.05")

// Product 可加入账单的库存搜索结果
type Product struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Manufacturer string       `json:"Manufacturer,omitempty"`
	ExpiryDate   string       `json:"expiry_date,omitempty"`
	Price        models.Money `json:"price"`
	Quantity     int          `json:"quantity"` // available stock
}

// Line 账单行
type Line struct {
	ID       uint         `json:"id"`
	Name     string       `json:"name"`
	Price    models.Money `json:"price"`
	Quantity int          `json:"quantity"`
	MaxStock int          `json:"maxStock"`
}

// Total 单价乘数量
func (l Line) Total() models.Money {
	return l.Price.MulQuantity(l.Quantity)
}

// Totals 由账单行推导，不做存储
type Totals struct {
	Subtotal   models.Money `json:"subtotal"`
	Tax        models.Money `json:"tax"`
	GrandTotal models.Money `json:"grand_total"`
}

// Receipt 提交成功后的回执
type Receipt struct {
	BillID  string `json:"bill_id"`
	Message string `json:"message,omitempty"`
}

// Submitter 将完成的账单提交到开单服务
type Submitter interface {
	CreateBill(ctx context.Context, lines []Line) (Receipt, error)
}

// State 结账流程状态
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot 供渲染使用的购物车副本
type Snapshot struct {
	Lines  []Line
	Totals Totals
	State  State
}

// Option 购物车配置项
type Option func(*Cart)

// WithTaxRate 覆盖默认税率，负数忽略
func WithTaxRate(rate decimal.Decimal) Option {
	return func(c *Cart) {
		if !rate.IsNegative() {
			c.taxRate = rate
		}
	}
}

// Cart 单个收银会话的在建账单，可并发使用
type Cart struct {
	mu          sync.Mutex
	notifyMu    sync.Mutex
	lines       []Line
	state       State
	taxRate     decimal.Decimal
	submitter   Submitter
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewCart 创建空购物车，通过 submitter 提交
func NewCart(submitter Submitter, opts ...Option) *Cart {
	c := &Cart{
		taxRate:     DefaultTaxRate,
		submitter:   submitter,
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// AddItem 加入一件商品；已有该行时数量加一
func (c *Cart) AddItem(product Product) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	if idx := c.indexOf(product.ID); idx >= 0 {
		line := &c.lines[idx]
		if line.Quantity >= line.MaxStock {
			c.mu.Unlock()
			return ErrMaxStockReached
		}
		line.Quantity++
	} else {
		if product.Quantity <= 0 {
			c.mu.Unlock()
			return ErrOutOfStock
		}
		c.lines = append(c.lines, Line{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Quantity: 1,
			MaxStock: product.Quantity,
		})
	}
	c.unlockAndNotify()
	return nil
}

// SetQuantity 修改行数量，校验失败时购物车不变
func (c *Cart) SetQuantity(productID uint, quantity int) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrLineNotFound
	}
	line := &c.lines[idx]
	if quantity > line.MaxStock {
		c.mu.Unlock()
		return &InsufficientStockError{ProductID: productID, Requested: quantity, MaxStock: line.MaxStock}
	}
	if quantity <= 0 {
		c.mu.Unlock()
		return ErrInvalidQuantity
	}
	line.Quantity = quantity
	c.unlockAndNotify()
	return nil
}

// RemoveItem 删除一行，其余行保持顺序
func (c *Cart) RemoveItem(productID uint) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	c.unlockAndNotify()
	return nil
}

// Clear 清空购物车
func (c *Cart) Clear() error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	c.lines = nil
	c.state = StateIdle
	c.unlockAndNotify()
	return nil
}

// Totals 计算当前小计、税额与总计
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return computeTotals(c.lines, c.taxRate)
}

// Lines 按展示顺序返回账单行副本
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyLines(c.lines)
}

// State 当前结账状态
func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot 同一时刻的账单行、合计与状态
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, _ := c.snapshotLocked()
	return snap
}

// Subscribe 注册变更回调，每次变更后按顺序推送快照。
// fn 内不得修改购物车；返回值用于取消订阅。
func (c *Cart) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

// BeginCheckout 非空账单进入待确认
func (c *Cart) BeginCheckout() error {
	c.mu.Lock()
	switch {
	case c.state == StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case len(c.lines) == 0:
		c.mu.Unlock()
		return ErrNothingToBill
	}
	c.state = StateAwaitingConfirmation
	c.unlockAndNotify()
	return nil
}

// CancelCheckout 取消待确认
func (c *Cart) CancelCheckout() error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case StateIdle:
		c.mu.Unlock()
		return nil
	}
	c.state = StateIdle
	c.unlockAndNotify()
	return nil
}

// Confirm 提交待确认账单：成功清空购物车，失败保留账单行，两种情况都回到空闲状态
func (c *Cart) Confirm(ctx context.Context) (Receipt, error) {
	c.mu.Lock()
	switch {
	case c.state == StateSubmitting:
		c.mu.Unlock()
		return Receipt{}, ErrSubmitInProgress
	case c.state != StateAwaitingConfirmation:
		c.mu.Unlock()
		return Receipt{}, ErrNotAwaitingConfirmation
	case len(c.lines) == 0:
		c.state = StateIdle
		c.mu.Unlock()
		return Receipt{}, ErrNothingToBill
	}
	c.state = StateSubmitting
	lines := copyLines(c.lines)
	c.unlockAndNotify()

	var (
		receipt Receipt
		err     error
	)
	if c.submitter == nil {
		err = fmt.Errorf("no submitter configured")
	} else {
		receipt, err = c.submitter.CreateBill(ctx, lines)
	}

	c.mu.Lock()
	c.state = StateIdle
	if err == nil {
		c.lines = nil
	}
	c.unlockAndNotify()

	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	return receipt, nil
}

// Submit 等同 BeginCheckout 后 Confirm
func (c *Cart) Submit(ctx context.Context) (Receipt, error) {
	if err := c.BeginCheckout(); err != nil {
		return Receipt{}, err
	}
	return c.Confirm(ctx)
}

func (c *Cart) indexOf(productID uint) int {
	for idx := range c.lines {
		if c.lines[idx].ID == productID {
			return idx
		}
	}
	return -1
}

func (c *Cart) snapshotLocked() (Snapshot, []func(Snapshot)) {
	snap := Snapshot{
		Lines:  copyLines(c.lines),
		Totals: computeTotals(c.lines, c.taxRate),
		State:  c.state,
	}
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for id := 0; id < c.nextSubID; id++ {
		if fn, ok := c.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	return snap, subs
}

// unlockAndNotify 释放锁并推送锁内取得的快照
func (c *Cart) unlockAndNotify() {
	snap, subs := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	notify(subs, snap)
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func computeTotals(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total().Decimal)
	}
	sub, tax, grand := models.BillTotals(subtotal, taxRate)
	return Totals{Subtotal: sub, Tax: tax, GrandTotal: grand}
}

func copyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
