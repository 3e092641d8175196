package pagarme

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/learnhub/learnhub-backend/internal/payments"
	"github.com/learnhub/learnhub-backend/pkg/config"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
)

const (
	defaultBaseURL          = "https://api.pagar.me/core/v5"
	defaultTimeout          = 30 * time.Second
	responseReadLimit int64 = 1 << 20
	statementDescriptor     = "LEARNHUB"
)

var errSecretKeyRequired = errors.New("pagarme secret key is required")

// Client creates orders against the Pagar.me core API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the client from gateway config. The secret key is sent as
// the basic-auth user with an empty password.
func NewClient(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errSecretKeyRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(secret+":")),
	}
	WithBaseURL(cfg.BaseURL)(client)
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func (c *Client) Provider() string {
	return config.GatewayProviderPagarme
}

// CreateOrder posts the order. Non-2xx answers with a JSON body are returned
// as an unsuccessful Response; network and decode failures are
// GATEWAY_TRANSPORT errors.
func (c *Client) CreateOrder(ctx context.Context, order payments.Order) (*payments.Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pagarme client not configured")
	}
	payload, err := json.Marshal(buildOrderRequest(order))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal pagarme order")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build pagarme request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.authHeader)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logFailure(ctx, order, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "execute pagarme request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "read pagarme response")
	}
	if !json.Valid(body) {
		err := fmt.Errorf("status %d: non-JSON body", resp.StatusCode)
		c.logFailure(ctx, order, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "decode pagarme response")
	}

	var decoded orderResponse
	_ = json.Unmarshal(body, &decoded)

	out := &payments.Response{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Status:     payments.ParseStatus(decoded.Status),
		RawStatus:  decoded.Status,
		OrderID:    decoded.ID,
		Body:       json.RawMessage(body),
	}
	c.logResponse(ctx, order, out, time.Since(started))
	return out, nil
}

func (c *Client) logResponse(ctx context.Context, order payments.Order, resp *payments.Response, elapsed time.Duration) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"gateway":        config.GatewayProviderPagarme,
		"order_code":     order.Code,
		"amount":         order.Total(),
		"http_status":    resp.StatusCode,
		"gateway_status": resp.RawStatus,
		"gateway_order":  resp.OrderID,
		"elapsed_ms":     elapsed.Milliseconds(),
	})
	if resp.Success {
		c.logg.Info(ctx, "pagarme order created")
		return
	}
	c.logg.Warn(ctx, "pagarme order rejected")
}

func (c *Client) logFailure(ctx context.Context, order payments.Order, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"gateway":    config.GatewayProviderPagarme,
		"order_code": order.Code,
	})
	c.logg.Error(ctx, "pagarme request failed", err)
}
