// Package pos 账单构建器的交互式终端前端
package pos

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pharmadesk/internal/billing"
	"github.com/pharmadesk/internal/posclient"
)

// KPISource 当日销售数据来源
type KPISource interface {
	TodayKPI(ctx context.Context) (*posclient.SalesKPI, error)
}

const helpText = `Commands:
  search <text>   look up medicines (at least 2 characters)
  add <n>         put result number n on the bill
  qty <id> <n>    set the quantity of a bill line
  rm <id>         remove a bill line
  clear           empty the bill
  pay             process the sale (asks for confirmation)
  yes | no        confirm or cancel the pending sale
  show            print the bill
  kpi             today's sales summary
  help            this text
  quit            leave`

// Session 将购物车、搜索框与终端组合在一起
type Session struct {
	cart   *billing.Cart
	search *billing.SearchBox
	kpi    KPISource

	outMu sync.Mutex
	out   io.Writer

	resultsMu sync.Mutex
	results   []billing.Product

	unsubscribe func()
}

// NewSession 创建会话，searchOpts 用于调整搜索框
func NewSession(cart *billing.Cart, searcher billing.Searcher, kpi KPISource, out io.Writer, searchOpts ...billing.SearchOption) *Session {
	s := &Session{cart: cart, kpi: kpi, out: out}
	s.search = billing.NewSearchBox(searcher, s.onResults, searchOpts...)
	s.unsubscribe = cart.Subscribe(s.onCartChange)
	return s
}

// Close 停止后台搜索并取消购物车订阅
func (s *Session) Close() {
	s.search.Close()
	s.unsubscribe()
}

// Run 逐行读取并执行命令，直到 quit、输入结束或 ctx 取消。
// 读取在独立 goroutine 中进行，阻塞在终端输入时 Ctrl-C 也能立即返回。
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.println("PharmaDesk POS. Type 'help' for commands.")
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.print("> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if quit := s.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute 执行一行命令，返回会话是否结束
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		s.println(helpText)
	case "search", "s":
		s.search.Type(strings.Join(args, " "))
	case "add":
		s.add(args)
	case "qty":
		s.setQuantity(args)
	case "rm", "remove":
		id, ok := s.parseID(args, "usage: rm <id>")
		if ok {
			s.report(s.cart.RemoveItem(id))
		}
	case "clear":
		s.report(s.cart.Clear())
	case "pay":
		s.report(s.cart.BeginCheckout())
	case "yes", "y":
		s.confirm(ctx)
	case "no", "n":
		s.report(s.cart.CancelCheckout())
	case "show":
		s.render(s.cart.Snapshot())
	case "kpi":
		s.showKPI(ctx)
	default:
		s.printf("Unknown command %q. Type 'help'.\n", cmd)
	}
	return false
}

// Results 最近一次搜索结果
func (s *Session) Results() []billing.Product {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	out := make([]billing.Product, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Session) add(args []string) {
	if len(args) != 1 {
		s.println("usage: add <result number>")
		return
	}
	n, err := strconv.Atoi(args[0])
	results := s.Results()
	if err != nil || n < 1 || n > len(results) {
		s.println("No such search result.")
		return
	}
	if err := s.cart.AddItem(results[n-1]); err != nil {
		s.report(err)
		return
	}
	s.resultsMu.Lock()
	s.results = nil
	s.resultsMu.Unlock()
}

func (s *Session) setQuantity(args []string) {
	if len(args) != 2 {
		s.println("usage: qty <id> <quantity>")
		return
	}
	id, ok := s.parseID(args[:1], "usage: qty <id> <quantity>")
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		s.println("Quantity must be a number.")
		return
	}
	s.report(s.cart.SetQuantity(id, quantity))
}

func (s *Session) confirm(ctx context.Context) {
	s.println("Processing sale...")
	receipt, err := s.cart.Confirm(ctx)
	if err != nil {
		s.report(err)
		return
	}
	s.printf("Sale successful! Bill ID: %s\n", receipt.BillID)
}

func (s *Session) showKPI(ctx context.Context) {
	if s.kpi == nil {
		s.println("KPI not available.")
		return
	}
	kpi, err := s.kpi.TodayKPI(ctx)
	if err != nil {
		s.println("Could not load today's sales.")
		return
	}
	s.printf("Today: revenue %s%.2f, %d bills, %d items sold\n",
		CurrencySymbol, kpi.TotalRevenue, kpi.TotalTransactions, kpi.TotalItemsSold)
}

func (s *Session) parseID(args []string, usage string) (uint, bool) {
	if len(args) != 1 {
		s.println(usage)
		return 0, false
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		s.println("Item id must be a positive number.")
		return 0, false
	}
	return uint(id), true
}

func (s *Session) report(err error) {
	if err != nil {
		s.println(billing.UserMessage(err))
	}
}

func (s *Session) onResults(result billing.SearchResult) {
	s.resultsMu.Lock()
	s.results = result.Products
	s.resultsMu.Unlock()

	s.outMu.Lock()
	defer s.outMu.Unlock()
	RenderResults(s.out, result)
}

func (s *Session) onCartChange(snap billing.Snapshot) {
	s.render(snap)
}

func (s *Session) render(snap billing.Snapshot) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	RenderBill(s.out, snap)
}

func (s *Session) print(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprint(s.out, text)
}

func (s *Session) println(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, text)
}

func (s *Session) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
