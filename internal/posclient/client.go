// Package posclient 收银终端访问 pharmadesk HTTP API 的客户端
package posclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pharmadesk/internal/billing"
)

const (
	searchPath   = "/api/inventory/search"
	billPath     = "/api/billing/create"
	kpiTodayPath = "/api/sales/kpi_summary/today"

	defaultTimeout  = 10 * time.Second
	maxResponseBody = 4 << 20
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnexpectedStatus  = errors.New("unexpected status")
)

// SalesKPI 销售 KPI 汇总
type SalesKPI struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalTransactions int64   `json:"total_transactions"`
	TotalItemsSold    int64   `json:"total_items_sold"`
}

// Option 客户端配置项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout 单次请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Client 基于 HTTP 实现 billing.Searcher 与 billing.Submitter
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New 创建指向 baseURL 的客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SearchInventory 查询名称或厂家包含 query 的药品
func (c *Client) SearchInventory(ctx context.Context, query string) ([]billing.Product, error) {
	endpoint := c.baseURL + searchPath + "?q=" + url.QueryEscape(query)
	var products []billing.Product
	status, err := c.do(ctx, http.MethodGet, endpoint, nil, &products)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned %d", ErrUnexpectedStatus, status)
	}
	if products == nil {
		products = []billing.Product{}
	}
	return products, nil
}

type createBillRequest struct {
	Items []billing.Line `json:"items"`
}

type createBillResponse struct {
	Success bool            `json:"success"`
	BillID  json.RawMessage `json:"bill_id"`
	Message string          `json:"message"`
}

// CreateBill 提交账单行，响应非 success:true 均视为失败
func (c *Client) CreateBill(ctx context.Context, lines []billing.Line) (billing.Receipt, error) {
	body, err := json.Marshal(createBillRequest{Items: lines})
	if err != nil {
		return billing.Receipt{}, err
	}
	var resp createBillResponse
	status, err := c.do(ctx, http.MethodPost, c.baseURL+billPath, body, &resp)
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) && status != 0 && status != http.StatusOK {
			return billing.Receipt{}, fmt.Errorf("%w: create bill returned %d", ErrUnexpectedStatus, status)
		}
		return billing.Receipt{}, err
	}
	if !resp.Success {
		return billing.Receipt{}, &billing.RejectedError{Message: resp.Message}
	}
	billID, err := parseBillID(resp.BillID)
	if err != nil {
		return billing.Receipt{}, err
	}
	return billing.Receipt{BillID: billID, Message: resp.Message}, nil
}

// TodayKPI 获取当日销售 KPI
func (c *Client) TodayKPI(ctx context.Context) (*SalesKPI, error) {
	var kpi SalesKPI
	status, err := c.do(ctx, http.MethodGet, c.baseURL+kpiTodayPath, nil, &kpi)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: kpi returned %d", ErrUnexpectedStatus, status)
	}
	return &kpi, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, dest interface{}) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp.StatusCode, nil
}

func parseBillID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("%w: missing bill_id", ErrMalformedResponse)
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: empty bill_id", ErrMalformedResponse)
		}
		return text, nil
	}
	var number json.Number
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if err := decoder.Decode(&number); err != nil {
		return "", fmt.Errorf("%w: bill_id %s", ErrMalformedResponse, string(trimmed))
	}
	if id, err := strconv.ParseInt(number.String(), 10, 64); err == nil {
		return strconv.FormatInt(id, 10), nil
	}
	return number.String(), nil
}
