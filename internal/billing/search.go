package billing

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pharmadesk/internal/logger"
)

// 搜索默认参数
const (
	DefaultSearchDelay    = 300 * time.Millisecond
	DefaultMinQueryLength = 2
)

// Searcher 按名称查询商品
type Searcher interface {
	SearchInventory(ctx context.Context, query string) ([]Product, error)
}

// SearchResult 每个稳定查询推送一次，Products 不含缺货商品
type SearchResult struct {
	Query    string
	Products []Product
	Err      error
}

// SearchOption 搜索框配置项
type SearchOption func(*SearchBox)

// WithDelay 防抖延迟
func WithDelay(delay time.Duration) SearchOption {
	return func(b *SearchBox) {
		if delay > 0 {
			b.delay = delay
		}
	}
}

// WithMinQueryLength 发起请求的最短查询长度
func WithMinQueryLength(n int) SearchOption {
	return func(b *SearchBox) {
		if n > 0 {
			b.minLength = n
		}
	}
}

// SearchBox 对输入防抖后发起库存搜索。
// 每次 Type 替换待执行的搜索，旧查询的请求会被取消，结果丢弃。
type SearchBox struct {
	searcher  Searcher
	onResult  func(SearchResult)
	delay     time.Duration
	minLength int

	mu        sync.Mutex
	deliverMu sync.Mutex
	seq       uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	closed    bool
}

// NewSearchBox 创建搜索框，onResult 内不得调用 Type
func NewSearchBox(searcher Searcher, onResult func(SearchResult), opts ...SearchOption) *SearchBox {
	b := &SearchBox{
		searcher:  searcher,
		onResult:  onResult,
		delay:     DefaultSearchDelay,
		minLength: DefaultMinQueryLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Type 记录搜索框当前内容
func (b *SearchBox) Type(query string) {
	query = strings.ToLower(strings.TrimSpace(query))

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq++
	seq := b.seq
	b.stopLocked()
	if utf8.RuneCountInString(query) < b.minLength {
		b.mu.Unlock()
		b.deliver(seq, SearchResult{Query: query, Products: []Product{}})
		return
	}
	b.timer = time.AfterFunc(b.delay, func() {
		b.run(seq, query)
	})
	b.mu.Unlock()
}

// Close 停止待执行的搜索，之后的 Type 被忽略
func (b *SearchBox) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.seq++
	b.stopLocked()
}

func (b *SearchBox) run(seq uint64, query string) {
	b.mu.Lock()
	if b.closed || seq != b.seq {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	products, err := b.searcher.SearchInventory(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warnw("pos_search_failed", "query", query, "error", err)
		b.deliver(seq, SearchResult{Query: query, Products: []Product{}, Err: err})
		return
	}
	b.deliver(seq, SearchResult{Query: query, Products: inStock(products)})
}

func (b *SearchBox) deliver(seq uint64, result SearchResult) {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	current := !b.closed && seq == b.seq
	b.mu.Unlock()
	if !current || b.onResult == nil {
		return
	}
	b.onResult(result)
}

func (b *SearchBox) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func inStock(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if product.Quantity > 0 {
			out = append(out, product)
		}
	}
	return out
}
