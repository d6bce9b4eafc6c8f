package jobqueue

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/resilience"
)

var errReplayQueueTransient = crerr.New("replay queue transient failure")

type ReplayPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.BreakerConfig
}

// ReplayPublisher enqueues failed payouts onto a QStash-compatible
// queue, which later POSTs them back to our internal replay endpoint.
// The deduplication id is the failure record id, so re-enqueueing the
// same failure is harmless.
type ReplayPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.Breaker
	circuitEnabled   bool
}

func NewReplayPublisher(cfg ReplayPublisherConfig, logger *logging.Logger) *ReplayPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeBreakerConfig(cfg.CircuitBreaker)

	return &ReplayPublisher{
		client:           &http.Client{Timeout: timeout},
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          resilience.NewBreaker(breakerCfg),
		circuitEnabled:   breakerCfg.Enabled,
	}
}

type replayPayload struct {
	FailureID string  `json:"failure_id"`
	UserID    string  `json:"user_id"`
	ContestID string  `json:"contest_id"`
	EntryID   string  `json:"entry_id"`
	Rank      int     `json:"rank"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
}

func (p *ReplayPublisher) EnqueueSettlementReplay(ctx context.Context, record wallet.FailureRecord) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "replay queue circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("replay queue is temporarily unavailable: %w", err)
		}
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid REPLAY_QUEUE_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid REPLAY_QUEUE_TARGET_BASE_URL")
	}

	path := "/v1/internal/contests/" + url.PathEscape(record.ContestID) + "/replay-payout"
	targetURL := targetBaseURL + path
	publishURL := baseURL + "/v2/publish/" + targetURL

	body, err := sonic.Marshal(replayPayload{
		FailureID: record.ID,
		UserID:    record.UserID,
		ContestID: record.ContestID,
		EntryID:   record.EntryID,
		Rank:      record.Rank,
		Amount:    record.Amount,
		Reason:    record.Reason,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal replay payload")
	}

	preview := buildCurlPreview(publishURL, p.retries, record.ID, string(body), p.internalJobToken != "")
	p.logger.InfoContext(ctx, "replay publish request",
		"contest_id", record.ContestID,
		"entry_id", record.EntryID,
		"publish_url", publishURL,
		"curl_preview", preview,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create replay queue request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if record.ID != "" {
		req.Header.Set("Upstash-Deduplication-Id", record.ID)
	}
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: publish replay job target_url=%s: %v", errReplayQueueTransient, targetURL, err)
		p.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := fmt.Errorf(
			"publish replay job status=%d target_url=%s body=%s",
			resp.StatusCode,
			targetURL,
			strings.TrimSpace(string(raw)),
		)
		if isRetryableStatus(resp.StatusCode) {
			callErr = fmt.Errorf("%w: %v", errReplayQueueTransient, callErr)
		}
		p.recordCircuitResult(callErr)
		return callErr
	}

	p.logger.InfoContext(ctx, "replay job published", "contest_id", record.ContestID, "entry_id", record.EntryID, "deduplication_id", record.ID)
	p.recordCircuitResult(nil)
	return nil
}

func (p *ReplayPublisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errReplayQueueTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func buildCurlPreview(publishURL string, retries int, deduplicationID, body string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if strings.TrimSpace(deduplicationID) != "" {
		appendHeader("Upstash-Deduplication-Id: " + deduplicationID)
	}
	if withForwardToken {
		appendHeader("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}
