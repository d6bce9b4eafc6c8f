package cricfeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/resilience"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/usecase"
)

const (
	defaultBaseURL = "https://api.cricfeed.io/v2"
	defaultTimeout = 10 * time.Second
	maxBodySize    = 6 << 20
)

var errCricFeedTransient = crerr.New("cricfeed transient failure")

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
}

// Client fetches live match snapshots from the cricfeed API. Polls for
// the same match fan in through a single flight, and a circuit breaker
// sheds load while the provider is down.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	token          string
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.Breaker
	circuitEnabled bool
	flight         resilience.Group[[]byte]
}

var _ usecase.SnapshotProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			MaxResponseBodySize: maxBodySize,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	breakerCfg := resilience.NormalizeBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// GetMatchSnapshot returns the current cumulative snapshot, or nil when
// the provider has nothing for the match yet.
func (c *Client) GetMatchSnapshot(ctx context.Context, providerMatchID string) (*usecase.Snapshot, error) {
	if strings.TrimSpace(providerMatchID) == "" {
		return nil, fmt.Errorf("provider match id is required")
	}

	path := "/matches/" + url.PathEscape(providerMatchID) + "/snapshot"
	raw, err := c.doJSON(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var envelope snapshotEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}
	if envelope.Data == nil {
		return nil, nil
	}
	return envelope.Data, nil
}

func (c *Client) doJSON(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "cricfeed circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: cricket feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		body, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errCricFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return body, reqErr
	})
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		body, status, retryAfter, err := c.roundTrip(fullURL)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %v", errCricFeedTransient, err)
		case status == fasthttp.StatusNotFound || status == fasthttp.StatusNoContent:
			// The provider has no payload for this match yet.
			return nil, nil
		case status >= 200 && status < 300:
			return body, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: provider status=%d body=%s", errCricFeedTransient, status, abbreviateBody(body))
		default:
			return nil, fmt.Errorf("provider status=%d body=%s", status, abbreviateBody(body))
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		if retryAfter > backoff {
			backoff = retryAfter
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "cricfeed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) roundTrip(fullURL string) ([]byte, int, time.Duration, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, 0, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), parseRetryAfter(resp.Header.Peek("Retry-After")), nil
}

func parseRetryAfter(value []byte) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(string(value)))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
