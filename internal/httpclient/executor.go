package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/internal/rate"
)

// Result is the raw outcome of a single HTTP round trip. Interpreting the
// status code is left entirely to the caller.
type Result struct {
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
}

// Executor performs rate-limited, zap-logged HTTP execution for the SOAP
// transport. It never retries: the adapter is a pass-through layer and
// resilience belongs to the caller.
type Executor struct {
	logger   *zap.Logger
	rateMgr  *rate.Manager
	http     *http.Client
	venueTag string
}

// New creates an Executor. rateMgr may be nil to disable rate limiting.
func New(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, venueTag string) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		logger:   logger,
		rateMgr:  rateMgr,
		http:     httpClient,
		venueTag: venueTag,
	}
}

// DoRaw executes req exactly once after rate-limit admission and returns the
// raw status and body, whatever the status was.
func (e *Executor) DoRaw(ctx context.Context, req *http.Request, rateLimitKey string) (*Result, error) {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		e.logger.Warn(e.venueTag+".http_failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.logger.Warn(e.venueTag+".read_failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return nil, fmt.Errorf("read response: %w", err)
	}
	elapsed := time.Since(start)

	e.logger.Debug(e.venueTag+".http_done",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return &Result{StatusCode: resp.StatusCode, Body: body, Elapsed: elapsed}, nil
}
