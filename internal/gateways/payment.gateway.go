package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/prom"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

const (
	opCreatePayment    = "create_payment"
	opGetPayment       = "get_payment"
	opSearchPayments   = "search_payments"
	opCreatePreference = "create_preference"

	headerIdempotencyKey = "X-Idempotency-Key"
)

var ErrCircuitOpen = fmt.Errorf("%w: circuit open", model.ErrGatewayUnavailable)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.Code, e.Body)
}

type Config struct {
	BaseURL                 string
	AccessToken             string
	Timeout                 time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	// Dial overrides the transport, tests point it at an in-memory listener.
	Dial fasthttp.DialFunc
}

// Client talks to the payment provider's REST API (Mercado Pago dialect).
type Client struct {
	config           Config
	http             *fasthttp.Client
	metrics          *ProviderMetrics
	state            atomic.Int32
	circuitOpenUntil atomic.Int64
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("payment gateway base url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 64
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &Client{
		config: config,
		http: &fasthttp.Client{
			Name:                "invite-gateway",
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			Dial:                config.Dial,
		},
		metrics: NewProviderMetrics(),
	}
	c.state.Store(int32(StateClosed))

	logger.Info("payment gateway client initialized", "base_url", config.BaseURL, "timeout", config.Timeout)
	return c, nil
}

// CreatePayment posts a payment. The idempotency key lets the provider drop a
// duplicate submit; an empty key gets a fresh uuid.
func (c *Client) CreatePayment(ctx context.Context, req *model.PaymentCreateRequest, idempotencyKey string) (*model.GatewayPayment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment: %w", err)
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	resp, err := c.doRequest(ctx, opCreatePayment, fasthttp.MethodPost, "/v1/payments", body, map[string]string{
		headerIdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	payment := parsePayment(resp)
	logger.Info("payment created", "payment_id", payment.ID, "status", payment.Status, "external_reference", payment.ExternalReference)
	return payment, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*model.GatewayPayment, error) {
	resp, err := c.doRequest(ctx, opGetPayment, fasthttp.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil)
	if err != nil {
		return nil, err
	}
	return parsePayment(resp), nil
}

// SearchPayments lists the payments for a reference, newest first.
func (c *Client) SearchPayments(ctx context.Context, externalReference string) ([]*model.GatewayPayment, error) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("external_reference", externalReference)
	args.Set("sort", "date_created")
	args.Set("criteria", "desc")

	resp, err := c.doRequest(ctx, opSearchPayments, fasthttp.MethodGet, "/v1/payments/search?"+args.String(), nil, nil)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(resp, "results").Array()
	payments := make([]*model.GatewayPayment, 0, len(results))
	for _, r := range results {
		payments = append(payments, parsePayment([]byte(r.Raw)))
	}
	return payments, nil
}

func (c *Client) CreatePreference(ctx context.Context, req *model.PreferenceRequest) (*model.Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preference: %w", err)
	}

	resp, err := c.doRequest(ctx, opCreatePreference, fasthttp.MethodPost, "/checkout/preferences", body, nil)
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(resp)
	return &model.Preference{
		ID:        doc.Get("id").String(),
		InitPoint: doc.Get("init_point").String(),
	}, nil
}

func (c *Client) Stats() Stats {
	return Stats{
		State:            stateString(c.getState()),
		TotalRequests:    c.metrics.TotalRequests.Load(),
		FailedReqs:       c.metrics.FailedReqs.Load(),
		SuccessRate:      c.metrics.SuccessRate(),
		AvgLatencyMs:     c.metrics.AvgLatencyMs(),
		P95LatencyMs:     c.metrics.P95LatencyMs(),
		ConsecutiveFails: c.metrics.ConsecutiveFails.Load(),
	}
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	logger.Info("payment gateway client closed")
	return nil
}

// doRequest performs one call bounded by the ctx deadline or the configured
// timeout, whichever is earlier.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body []byte, headers map[string]string) ([]byte, error) {
	if !c.isAvailable() {
		prom.ObserveGatewayRequest(op, "circuit_open", 0)
		return nil, ErrCircuitOpen
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.config.AccessToken != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.config.AccessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	elapsed := time.Since(start)

	if err != nil {
		c.recordFailure(op)
		prom.ObserveGatewayRequest(op, "transport_error", elapsed.Seconds())
		return nil, fmt.Errorf("%w: %s %s: %w", model.ErrGatewayUnavailable, method, path, err)
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		// only provider-side failures count against the breaker
		if code >= 500 {
			c.recordFailure(op)
		}
		prom.ObserveGatewayRequest(op, "status_error", elapsed.Seconds())
		return nil, fmt.Errorf("%w: %s %s: %w", model.ErrGatewayUnavailable, method, path, &StatusError{Code: code, Body: string(resp.Body())})
	}

	c.recordSuccess(elapsed)
	prom.ObserveGatewayRequest(op, "ok", elapsed.Seconds())

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) getState() CircuitState {
	return CircuitState(c.state.Load())
}

func (c *Client) setState(s CircuitState) {
	c.state.Store(int32(s))
}

// isAvailable lets one probe through once the open period has elapsed.
func (c *Client) isAvailable() bool {
	if c.getState() != StateOpen {
		return true
	}
	if time.Now().UnixMilli() >= c.circuitOpenUntil.Load() {
		c.setState(StateHalfOpen)
		logger.Info("payment gateway circuit half-open")
		return true
	}
	return false
}

func (c *Client) recordSuccess(elapsed time.Duration) {
	c.metrics.RecordSuccess(elapsed.Milliseconds())
	if c.getState() != StateClosed {
		c.setState(StateClosed)
		logger.Info("payment gateway circuit closed")
	}
}

func (c *Client) recordFailure(op string) {
	fails := c.metrics.RecordFailure()
	if c.getState() == StateHalfOpen || fails >= int32(c.config.CircuitBreakerThreshold) {
		c.setState(StateOpen)
		c.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).UnixMilli())
		logger.Warn("payment gateway circuit opened", "operation", op, "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

func parsePayment(body []byte) *model.GatewayPayment {
	doc := gjson.ParseBytes(body)
	tx := doc.Get("point_of_interaction.transaction_data")
	raw := make(json.RawMessage, len(body))
	copy(raw, body)
	return &model.GatewayPayment{
		ID:                doc.Get("id").String(),
		Status:            doc.Get("status").String(),
		ExternalReference: doc.Get("external_reference").String(),
		QRCode:            tx.Get("qr_code").String(),
		QRCodeBase64:      tx.Get("qr_code_base64").String(),
		TicketURL:         tx.Get("ticket_url").String(),
		Raw:               raw,
	}
}
