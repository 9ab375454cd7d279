// Package tempo provides a typed client for the Tempo Cloud REST API v4.
//
// Every HTTP attempt passes through the rate limiter before it is sent,
// so retries consume additional permits. Transient failures (429, 5xx,
// connection errors) are retried with exponential backoff; a 429
// Retry-After header overrides the backoff delay.
package tempo

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

	"github.com/cenkalti/backoff/v5"

	"github.com/localrivet/tempomcp/internal/errortypes"
	"github.com/localrivet/tempomcp/internal/ratelimit"
	"github.com/localrivet/tempomcp/internal/telemetry"
)

// Default client settings.
const (
	DefaultBaseURL  = "https://api.tempo.io/4"
	DefaultTimeout  = 30 * time.Second
	DefaultMaxTries = 3
)

// API defines the remote operations the domain layer depends on.
type API interface {
	ListWorklogs(ctx context.Context, params ListWorklogsParams) (*WorklogList, error)
	GetWorklog(ctx context.Context, worklogID int64) (*Worklog, error)
	CreateWorklog(ctx context.Context, input CreateWorklogInput) (*Worklog, error)
	UpdateWorklog(ctx context.Context, worklogID int64, input UpdateWorklogInput) (*Worklog, error)
	DeleteWorklog(ctx context.Context, worklogID int64) error
	ListAccounts(ctx context.Context) ([]Account, error)
	ListWorkAttributes(ctx context.Context) ([]WorkAttribute, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PermitAcquirer gates outbound call attempts.
type PermitAcquirer interface {
	Acquire(ctx context.Context) error
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	MaxTries   int
	HTTPClient httpDoer
	Limiter    PermitAcquirer
	Metrics    *telemetry.MetricsCollector
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL    string
	apiToken   string
	maxTries   int
	httpClient httpDoer
	limiter    PermitAcquirer
	metrics    *telemetry.MetricsCollector
}

// NewClient creates a Client from cfg, applying defaults for unset fields.
// The API token is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, errortypes.ConfigError(errors.New("api token is required"), "cannot create tempo client")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errortypes.ConfigError(fmt.Errorf("invalid base URL %q", cfg.BaseURL), "cannot create tempo client")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxTries := cfg.MaxTries
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultRate)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}

	return &Client{
		baseURL:    baseURL,
		apiToken:   cfg.APIToken,
		maxTries:   maxTries,
		httpClient: doer,
		limiter:    limiter,
		metrics:    metrics,
	}, nil
}

// Metrics exposes the collector so callers can report on client activity.
func (c *Client) Metrics() *telemetry.MetricsCollector {
	return c.metrics
}

// ListWorklogs fetches one page of worklogs matching params.
func (c *Client) ListWorklogs(ctx context.Context, params ListWorklogsParams) (*WorklogList, error) {
	query := url.Values{}
	if params.From != "" {
		query.Set("from", params.From)
	}
	if params.To != "" {
		query.Set("to", params.To)
	}
	if params.ProjectID > 0 {
		query.Set("project", strconv.FormatInt(params.ProjectID, 10))
	}
	if params.IssueID > 0 {
		query.Set("issue", strconv.FormatInt(params.IssueID, 10))
	}
	if params.AccountID != "" {
		query.Set("accountId", params.AccountID)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	var out WorklogList
	if err := c.do(ctx, "list_worklogs", http.MethodGet, "worklogs", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWorklog fetches a single worklog by its Tempo id.
func (c *Client) GetWorklog(ctx context.Context, worklogID int64) (*Worklog, error) {
	var out Worklog
	endpoint := fmt.Sprintf("worklogs/%d", worklogID)
	if err := c.do(ctx, "get_worklog", http.MethodGet, endpoint, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWorklog creates a new worklog and returns the created entity.
func (c *Client) CreateWorklog(ctx context.Context, input CreateWorklogInput) (*Worklog, error) {
	var out Worklog
	if err := c.do(ctx, "create_worklog", http.MethodPost, "worklogs", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWorklog applies a partial update to an existing worklog.
func (c *Client) UpdateWorklog(ctx context.Context, worklogID int64, input UpdateWorklogInput) (*Worklog, error) {
	var out Worklog
	endpoint := fmt.Sprintf("worklogs/%d", worklogID)
	if err := c.do(ctx, "update_worklog", http.MethodPut, endpoint, nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteWorklog removes a worklog.
func (c *Client) DeleteWorklog(ctx context.Context, worklogID int64) error {
	endpoint := fmt.Sprintf("worklogs/%d", worklogID)
	return c.do(ctx, "delete_worklog", http.MethodDelete, endpoint, nil, nil, nil)
}

// ListAccounts fetches all Tempo accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out accountList
	if err := c.do(ctx, "list_accounts", http.MethodGet, "accounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ListWorkAttributes fetches all work-attribute definitions.
func (c *Client) ListWorkAttributes(ctx context.Context) ([]WorkAttribute, error) {
	var out workAttributeList
	if err := c.do(ctx, "list_work_attributes", http.MethodGet, "work-attributes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// do issues one logical API call: permit acquisition, request, response
// decoding, and the retry policy around all three. Each attempt acquires
// its own permit and rebuilds the request body.
func (c *Client) do(ctx context.Context, operation, method, endpoint string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		marshaled, err := json.Marshal(body)
		if err != nil {
			return errortypes.InternalError(err, "marshal request body").
				WithField(errortypes.FieldOperation, operation)
		}
		payload = marshaled
	}

	requestURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	// Retained across attempts so a Retry-After driven retry that
	// ultimately fails still surfaces the rate-limited error.
	var lastErr *errortypes.AppError

	attempt := func() (struct{}, error) {
		if err := c.limiter.Acquire(ctx); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		c.metrics.IncrementCounter(telemetry.MetricAPICalls, 1)
		c.metrics.RecordTimestamp(telemetry.MetricLastAPICall)

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return struct{}{}, backoff.Permanent(errortypes.InternalError(err, "create request").
				WithField(errortypes.FieldOperation, operation))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		started := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errortypes.TransientError(err, "tempo request failed").
				WithField(errortypes.FieldOperation, operation)
			return struct{}{}, lastErr
		}
		defer resp.Body.Close()
		c.metrics.RecordTimer(telemetry.MetricResponseTime, time.Since(started))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				return struct{}{}, nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				if errors.Is(err, io.EOF) {
					return struct{}{}, nil
				}
				return struct{}{}, backoff.Permanent(errortypes.ProtocolError(err, "decode tempo response").
					WithField(errortypes.FieldHTTPStatus, resp.StatusCode).
					WithField(errortypes.FieldOperation, operation))
			}
			return struct{}{}, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			c.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
			lastErr = remoteError(errortypes.RateLimitedError, resp, operation)
			if seconds, ok := retryAfterSeconds(resp); ok {
				return struct{}{}, backoff.RetryAfter(seconds)
			}
			return struct{}{}, lastErr

		case resp.StatusCode == http.StatusNotFound:
			c.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
			return struct{}{}, backoff.Permanent(remoteError(errortypes.NotFoundError, resp, operation))

		case resp.StatusCode >= 500:
			c.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
			lastErr = remoteError(errortypes.TransientError, resp, operation)
			return struct{}{}, lastErr

		default:
			c.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
			return struct{}{}, backoff.Permanent(remoteError(errortypes.APIError, resp, operation))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxTries)),
		backoff.WithNotify(func(error, time.Duration) {
			c.metrics.IncrementCounter(telemetry.MetricRetryAttempts, 1)
		}),
	)
	if err != nil {
		var retryAfter *backoff.RetryAfterError
		if errors.As(err, &retryAfter) && lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

// remoteError builds a typed error from a non-success response, keeping
// the remote message, HTTP status, and operation name.
func remoteError(newErr func(error, string) *errortypes.AppError, resp *http.Response, operation string) *errortypes.AppError {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(detail))
	if message == "" {
		message = resp.Status
	}
	return newErr(errors.New(message), "tempo rejected "+operation).
		WithField(errortypes.FieldHTTPStatus, resp.StatusCode).
		WithField(errortypes.FieldOperation, operation)
}

// retryAfterSeconds parses an integer Retry-After header.
func retryAfterSeconds(resp *http.Response) (int, bool) {
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}
