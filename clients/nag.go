package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/circularprotocol/cep/logger"
	"github.com/circularprotocol/cep/metrics"
	"github.com/circularprotocol/cep/types"
)

var _ Client = (*NAGClient)(nil)

// maxResponseBytes bounds how much of a gateway reply is read.
const maxResponseBytes = 8 << 20

// NAGClient talks JSON over HTTP to a Network Access Gateway and to the
// network discovery endpoint.
type NAGClient struct {
	httpClient *http.Client
	networkURL string
	version    string
	limiter    *rate.Limiter
	logger     logger.Logger
	metrics    metrics.Recorder
}

// NAGOption mutates the client during construction.
type NAGOption func(*NAGClient)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) NAGOption {
	return func(c *NAGClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClientLogger sets the logger used for request tracing.
func WithClientLogger(l logger.Logger) NAGOption {
	return func(c *NAGClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClientMetrics sets the recorder used for request latency and failures.
func WithClientMetrics(r metrics.Recorder) NAGOption {
	return func(c *NAGClient) {
		if r != nil {
			c.metrics = r
		}
	}
}

// NewNAGClient builds a gateway client from config.
func NewNAGClient(config types.Config, opts ...NAGOption) *NAGClient {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = types.DefaultRequestTimeout
	}

	c := &NAGClient{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		networkURL: config.NetworkURL,
		version:    config.Version,
		logger:     logger.NoopLogger{},
		metrics:    metrics.NoopRecorder{},
	}
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWalletNonce implements Client.
func (c *NAGClient) GetWalletNonce(ctx context.Context, baseURL string, req *types.WalletNonceRequest) (*types.WalletNonceResponse, error) {
	var resp types.WalletNonceResponse
	if err := c.post(ctx, baseURL+types.EndpointWalletNonce, types.EndpointWalletNonce, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransactionByID implements Client.
func (c *NAGClient) GetTransactionByID(ctx context.Context, baseURL, node string, req *types.TransactionByIDRequest) (*types.TransactionLookup, error) {
	var resp types.TransactionLookup
	endpoint := baseURL + types.EndpointTransactionByID + node
	if err := c.post(ctx, endpoint, types.EndpointTransactionByID, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddTransaction implements Client.
func (c *NAGClient) AddTransaction(ctx context.Context, baseURL, node string, tx *types.Transaction) (*types.GatewayResponse, error) {
	var resp types.GatewayResponse
	endpoint := baseURL + types.EndpointAddTransaction + node
	if err := c.post(ctx, endpoint, types.EndpointAddTransaction, tx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveNetwork asks the discovery endpoint for the NAG URL of a network.
// Every failure is reported as a NETWORK_RESOLUTION_ERROR.
func (c *NAGClient) ResolveNetwork(ctx context.Context, network string) (string, error) {
	target := c.networkURL + url.QueryEscape(network)

	body, err := c.do(ctx, http.MethodGet, target, "getNAG", nil)
	if err != nil {
		return "", types.WrapError(types.ErrNetworkResolution, err, "failed to fetch network URL for %s", network)
	}

	var resp types.NetworkDiscoveryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", types.WrapError(types.ErrNetworkResolution, err, "failed to parse network response")
	}

	if resp.Status != "success" || resp.URL == "" {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to get URL"
		}
		return "", types.NewError(types.ErrNetworkResolution, "%s", msg)
	}
	return resp.URL, nil
}

func (c *NAGClient) post(ctx context.Context, target, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return types.WrapError(types.ErrInvalidRequest, err, "marshal payload")
	}

	respBody, err := c.do(ctx, http.MethodPost, target, endpoint, body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		c.metrics.IncCounter(metrics.EventRequestFailed, map[string]string{"endpoint": endpoint})
		return types.WrapError(types.ErrDecode, err, "Invalid JSON response")
	}
	return nil
}

// do sends one request and returns the body of a 2xx reply.
func (c *NAGClient) do(ctx context.Context, method, target, endpoint string, body []byte) ([]byte, error) {
	labels := map[string]string{"endpoint": endpoint}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.WrapError(types.ErrTransport, err, "rate limiter")
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, types.WrapError(types.ErrTransport, err, "build request")
	}
	requestID := uuid.NewString()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cep-go/"+c.version)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	c.metrics.IncCounter(metrics.EventRequest, labels)
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveLatency(strings.ToLower(method), time.Since(start), labels)
	if err != nil {
		c.metrics.IncCounter(metrics.EventRequestFailed, labels)
		c.logger.Debug("gateway request failed", map[string]any{
			"endpoint":   endpoint,
			"request_id": requestID,
			"error":      err,
		})
		return nil, types.WrapError(types.ErrTransport, err, "Network error")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.IncCounter(metrics.EventRequestFailed, labels)
		return nil, types.WrapError(types.ErrTransport, err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.IncCounter(metrics.EventRequestFailed, labels)
		return nil, &types.CEPError{
			Code:    types.ErrTransport,
			Message: fmt.Sprintf("Network response was not ok. HTTP Code: %d", resp.StatusCode),
			Err:     fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}

	c.logger.Debug("gateway request", map[string]any{
		"endpoint":   endpoint,
		"request_id": requestID,
		"status":     resp.StatusCode,
	})
	return respBody, nil
}
