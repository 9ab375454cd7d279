package tempo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/localrivet/tempomcp/internal/errortypes"
)

// countingLimiter records how many permits were handed out.
type countingLimiter struct {
	acquired int64
}

func (l *countingLimiter) Acquire(ctx context.Context) error {
	atomic.AddInt64(&l.acquired, 1)
	return ctx.Err()
}

func newTestClient(t *testing.T, serverURL string, limiter PermitAcquirer) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:  serverURL,
		APIToken: "test-token",
		MaxTries: 3,
		Limiter:  limiter,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "https://api.tempo.io/4"})
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !errortypes.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "not a url", APIToken: "x"})
	if err == nil {
		t.Fatal("expected error for invalid base URL")
	}
	if !errortypes.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestGetWorklogSendsBearerAuth(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"tempoWorklogId": 42, "timeSpentSeconds": 3600}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	worklog, err := client.GetWorklog(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetWorklog failed: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if worklog.TempoWorklogID != 42 {
		t.Errorf("expected worklog id 42, got %d", worklog.TempoWorklogID)
	}
	if worklog.TimeSpentSeconds != 3600 {
		t.Errorf("expected 3600 seconds, got %d", worklog.TimeSpentSeconds)
	}
}

func TestListWorklogsBuildsQuery(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"metadata": {"count": 0}, "results": []}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	_, err := client.ListWorklogs(context.Background(), ListWorklogsParams{
		From:  "2026-08-01",
		To:    "2026-08-31",
		Limit: 50,
	})
	if err != nil {
		t.Fatalf("ListWorklogs failed: %v", err)
	}
	for _, want := range []string{"from=2026-08-01", "to=2026-08-31", "limit=50"} {
		if !containsParam(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func containsParam(query, param string) bool {
	for _, part := range splitQuery(query) {
		if part == param {
			return true
		}
	}
	return false
}

func splitQuery(query string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == '&' {
			parts = append(parts, query[start:i])
			start = i + 1
		}
	}
	return parts
}

func TestRetryAfterHonoredAndConsumesExtraPermit(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"tempoWorklogId": 7}`))
	}))
	defer ts.Close()

	limiter := &countingLimiter{}
	client := newTestClient(t, ts.URL, limiter)
	worklog, err := client.GetWorklog(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if worklog.TempoWorklogID != 7 {
		t.Errorf("expected worklog id 7, got %d", worklog.TempoWorklogID)
	}
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
	if got := atomic.LoadInt64(&limiter.acquired); got != 2 {
		t.Errorf("expected 2 permits consumed, got %d", got)
	}
}

func TestExhaustedRetryAfterSurfacesRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	_, err := client.GetWorklog(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if !errortypes.IsRateLimitedError(err) {
		t.Errorf("expected rate limited error, got %v", err)
	}
}

func TestServerErrorRetriedToMaxTries(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	client, err := NewClient(ClientConfig{
		BaseURL:  ts.URL,
		APIToken: "test-token",
		MaxTries: 2,
		Limiter:  &countingLimiter{},
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	start := time.Now()
	_, err = client.GetWorklog(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error from persistent 502")
	}
	if !errortypes.IsTransientError(err) {
		t.Errorf("expected transient error, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("retries took too long: %v", elapsed)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "no such worklog", http.StatusNotFound)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	_, err := client.GetWorklog(context.Background(), 999)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if !errortypes.IsNotFoundError(err) {
		t.Errorf("expected not found error, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}

func TestBadRequestIsNotRetried(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "issueId is required", http.StatusBadRequest)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	_, err := client.CreateWorklog(context.Background(), CreateWorklogInput{})
	if err == nil {
		t.Fatal("expected error from 400")
	}
	if errortypes.TypeOf(err) != errortypes.ErrorTypeAPI {
		t.Errorf("expected api error, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}

func TestMalformedBodyIsProtocolError(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"tempoWorklogId": not-json`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	_, err := client.GetWorklog(context.Background(), 1)
	if err == nil {
		t.Fatal("expected protocol error")
	}
	if !errortypes.IsProtocolError(err) {
		t.Errorf("expected protocol error, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("malformed body should not be retried, got %d attempts", got)
	}
}

func TestDeleteWorklogAcceptsEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	if err := client.DeleteWorklog(context.Background(), 5); err != nil {
		t.Fatalf("DeleteWorklog failed: %v", err)
	}
}

func TestListAccountsUnwrapsEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata": {"count": 2}, "results": [
			{"key": "DEV", "name": "Development", "status": "OPEN"},
			{"key": "OPS", "name": "Operations", "status": "CLOSED"}
		]}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL, &countingLimiter{})
	accounts, err := client.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Key != "DEV" || accounts[1].Status != "CLOSED" {
		t.Errorf("unexpected accounts: %+v", accounts)
	}
}
