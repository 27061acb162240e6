package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

const maxBodyBytes = 1 << 20

// Client calls the three POS backend endpoints. It does no retries and
// relies on the underlying http.Client for timeouts.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	validate *validatorv10.Validate
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}
	c := &Client{
		baseURL:  u,
		http:     http.DefaultClient,
		validate: validation.New(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// GetProduct looks a product up by its code. Returns ErrNotFound on a miss.
func (c *Client) GetProduct(ctx context.Context, code string) (*validation.Product, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("product %q: %w", code, ErrNotFound)
	case status < 200 || status > 299:
		return nil, &StatusError{Op: "get product", Status: status, Body: string(body)}
	}

	var p validation.Product
	if err := c.decode(body, &p); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// CreatePurchase submits a purchase. Any non-2xx response is a *PurchaseError.
func (c *Client) CreatePurchase(ctx context.Context, req validation.PurchaseRequest) (*validation.PurchaseResult, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, validation.ErrorsToMap(err))
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal purchase: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/purchase", payload)
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, &PurchaseError{Status: status, Payload: string(body)}
	}

	var res validation.PurchaseResult
	if err := c.decode(body, &res); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	return &res, nil
}

// GetTransaction fetches a recorded transaction. Returns ErrNotFound on a miss.
func (c *Client) GetTransaction(ctx context.Context, id int64) (*validation.Transaction, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/transactions/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	case status < 200 || status > 299:
		return nil, &StatusError{Op: "get transaction", Status: status, Body: string(body)}
	}

	var t validation.Transaction
	if err := c.decode(body, &t); err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))
	return resp.StatusCode, data, nil
}

// decode unmarshals and validates a response body against its schema.
func (c *Client) decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, validation.ErrorsToMap(err))
	}
	return nil
}
