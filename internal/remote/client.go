package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/orderflow"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1MB
)

// TokenProvider resolves the session token attached to every outgoing call.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client talks JSON over HTTP to the warehouse service. Transport-level
// failures trip a circuit breaker; definitive server refusals do not.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	breaker *gobreaker.CircuitBreaker[*callResult]
}

type callResult struct {
	status int
	body   []byte
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests, custom TLS).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[*callResult](gobreaker.Settings{
		Name:    "warehouse-remote",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return c
}

// errorEnvelope matches the service's error body.
type errorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, headers map[string]string) (*callResult, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	op := method + " " + path
	result, err := c.breaker.Execute(func() (*callResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		return &callResult{status: resp.StatusCode, body: raw}, nil
	})
	if err != nil {
		// Covers network errors, timeouts, 5xx and an open breaker alike:
		// in all of them there is no definitive server answer to trust.
		return nil, &TransportError{Op: op, Err: err}
	}

	if result.status == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return nil, ErrAuthExpired
	}
	if result.status >= http.StatusBadRequest {
		var envelope errorEnvelope
		if err := json.Unmarshal(result.body, &envelope); err != nil || envelope.Code == "" {
			return nil, &Rejection{
				Code:       "UNEXPECTED",
				Message:    fmt.Sprintf("request failed with status %d", result.status),
				HTTPStatus: result.status,
			}
		}
		return nil, &Rejection{Code: envelope.Code, Message: envelope.Error, HTTPStatus: result.status}
	}

	return result, nil
}

func decode[T any](result *callResult) (*T, error) {
	var out T
	if err := json.Unmarshal(result.body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// GetCart fetches the canonical cart.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	result, err := c.do(ctx, http.MethodGet, "/cart", nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Cart](result)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem adds quantity of a product; the server merges duplicate lines and
// returns the canonical cart.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	result, err := c.do(ctx, http.MethodPost, "/cart/items", addItemRequest{ProductID: productID, Quantity: quantity}, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Cart](result)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) (*domain.Cart, error) {
	path := "/cart/items/" + url.PathEscape(itemID)
	result, err := c.do(ctx, http.MethodPatch, path, updateItemRequest{Quantity: quantity}, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Cart](result)
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) (*domain.Cart, error) {
	path := "/cart/items/" + url.PathEscape(itemID)
	result, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Cart](result)
}

func (c *Client) ClearCart(ctx context.Context) (*domain.Cart, error) {
	result, err := c.do(ctx, http.MethodDelete, "/cart", nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Cart](result)
}

// CreateOrderRequest is the checkout payload. The cart itself is server-held;
// only shipping and payment details travel.
type CreateOrderRequest struct {
	ShippingInfo  domain.ShippingInfo `json:"shipping_info"`
	PaymentMethod string              `json:"payment_method"`
}

// CreateOrder places the order. idempotencyKey lets the server deduplicate a
// repeated identical request.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	result, err := c.do(ctx, http.MethodPost, "/orders", req, headers)
	if err != nil {
		return nil, err
	}
	return decode[domain.Order](result)
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	result, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Order](result)
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	result, err := c.do(ctx, http.MethodGet, "/orders", nil, nil)
	if err != nil {
		return nil, err
	}
	orders, err := decode[[]domain.Order](result)
	if err != nil {
		return nil, err
	}
	return *orders, nil
}

type advanceOrderRequest struct {
	Status string `json:"status"`
}

// AdvanceOrder asks the server to move an order to target. The server applies
// the same contiguous-stage rule the client pre-validates with.
func (c *Client) AdvanceOrder(ctx context.Context, orderID string, target orderflow.Status) (*domain.Order, error) {
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	result, err := c.do(ctx, http.MethodPatch, path, advanceOrderRequest{Status: target.String()}, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Order](result)
}
