package zuora

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/internal/httpclient"
	"github.com/Checker-Finance/zuora-adapter/internal/metrics"
	"github.com/Checker-Finance/zuora-adapter/internal/rate"
	"github.com/Checker-Finance/zuora-adapter/pkg/utils"
)

const (
	sandboxBaseURL    = "https://sandbox.zuora.example.com"
	productionBaseURL = "https://api.zuora.example.com"
	servicePath       = "/apps/services/a/"
	defaultAPIVersion = "38.0"
)

// Config holds client construction parameters. Sandbox selects the sandbox
// base URL; BaseURL overrides the selection entirely (tests, proxies).
type Config struct {
	Username   string
	Password   string
	Sandbox    bool
	BaseURL    string
	APIVersion string

	// InsecureSkipVerify disables TLS certificate verification. The legacy
	// sandbox endpoint serves a self-signed certificate, so this stays
	// configurable instead of hardcoded.
	InsecureSkipVerify bool

	// HTTPClient overrides the default transport when set.
	HTTPClient *http.Client
}

// Client wraps the billing platform's SOAP API: it authenticates once,
// holds the session token, and issues envelope POSTs. The token field is
// guarded so a client may be shared across goroutines, but there is no
// token refresh; callers re-authenticate on failure.
type Client struct {
	logger   *zap.Logger
	cfg      Config
	endpoint string
	exec     *httpclient.Executor

	mu           sync.RWMutex
	sessionToken string
}

// NewClient constructs a SOAP client for the configured environment.
func NewClient(logger *zap.Logger, cfg Config, rateMgr *rate.Manager) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	base := cfg.BaseURL
	if base == "" {
		if cfg.Sandbox {
			base = sandboxBaseURL
		} else {
			base = productionBaseURL
		}
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec
			},
		}
	}

	return &Client{
		logger:   logger,
		cfg:      cfg,
		endpoint: base + servicePath + cfg.APIVersion,
		exec:     httpclient.New(logger, rateMgr, hc, "zuora"),
	}
}

// Endpoint returns the resolved API endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// SessionToken returns the current session token, or "" when the client has
// not authenticated.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// SetSessionToken injects a previously obtained session token, e.g. one
// restored from the session cache.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	c.sessionToken = token
	c.mu.Unlock()
}

// Authenticated reports whether a session token is set.
func (c *Client) Authenticated() bool { return c.SessionToken() != "" }

// Authenticate performs the login round trip and stores the returned
// session token. Transport failures come back as *ConnectionError wrapping
// the cause; a non-200 status comes back as *ErrorResponse and leaves the
// token untouched. A 200 response whose body lacks the token path stores an
// empty token without error.
func (c *Client) Authenticate(ctx context.Context) (*Response, error) {
	payload, err := newEnvelope("", loginBody(c.cfg.Username, c.cfg.Password)).WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("zuora: build login envelope: %w", err)
	}

	res, err := c.post(ctx, "login", payload)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	if res.StatusCode != http.StatusOK {
		c.logger.Warn("zuora.login_rejected", zap.Int("status", res.StatusCode))
		return nil, &ErrorResponse{StatusCode: res.StatusCode, Body: res.Body}
	}

	token := extractSessionToken(res.Body)
	c.SetSessionToken(token)
	c.logger.Info("zuora.login_success",
		zap.String("user", c.cfg.Username),
		zap.String("session", utils.MaskToken(token)))
	return res, nil
}

// CreateObject submits a create call for any registered object type. The
// data record is filtered against the type's field whitelist; the raw HTTP
// response is returned uninterpreted — non-200 statuses are not errors at
// this layer.
func (c *Client) CreateObject(ctx context.Context, typeName string, data Data) (*Response, error) {
	payload, err := c.CreateObjectXML(typeName, data)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "create."+typeName, payload)
}

// CreateObjectXML builds the authenticated create envelope without issuing
// a network call. It fails with ErrNotAuthenticated before any I/O when no
// session token is set.
func (c *Client) CreateObjectXML(typeName string, data Data) ([]byte, error) {
	fields, ok := SchemaFields(typeName)
	if !ok {
		return nil, &UnknownObjectError{TypeName: typeName}
	}
	token := c.SessionToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return newEnvelope(token, createBody(typeName, fields, data)).WriteToBytes()
}

// CreateRefund submits a Refund create call.
func (c *Client) CreateRefund(ctx context.Context, data Data) (*Response, error) {
	return c.CreateObject(ctx, "Refund", data)
}

// CreateRefundXML builds the Refund create envelope without a network call.
func (c *Client) CreateRefundXML(data Data) ([]byte, error) {
	return c.CreateObjectXML("Refund", data)
}

// CreateBillRun submits a BillRun create call.
func (c *Client) CreateBillRun(ctx context.Context, data Data) (*Response, error) {
	return c.CreateObject(ctx, "BillRun", data)
}

// CreateBillRunXML builds the BillRun create envelope without a network call.
func (c *Client) CreateBillRunXML(data Data) ([]byte, error) {
	return c.CreateObjectXML("BillRun", data)
}

func (c *Client) post(ctx context.Context, operation string, payload []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml")

	start := time.Now()
	result, err := c.exec.DoRaw(ctx, req, "zuora")
	if err != nil {
		metrics.IncSOAPRequest(operation, "error")
		return nil, err
	}
	metrics.IncSOAPRequest(operation, strconv.Itoa(result.StatusCode))
	metrics.ObserveDuration(metrics.SOAPRequestDuration, start, operation)

	return &Response{StatusCode: result.StatusCode, Body: result.Body}, nil
}
