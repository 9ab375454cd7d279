// Package worklog implements the domain operations over the remote
// Tempo API: input validation, transparent pagination, attribute
// checking against the cached work-attribute set, and summarization.
package worklog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/localrivet/tempomcp/internal/errortypes"
	"github.com/localrivet/tempomcp/internal/telemetry"
	"github.com/localrivet/tempomcp/internal/tempo"
	"github.com/localrivet/tempomcp/internal/timeutil"
)

// Listing limits. Callers asking for more than MaxLimit are capped.
const (
	DefaultLimit = 50
	MaxLimit     = 1000

	// pageSize is the per-request page size used while paginating.
	pageSize = 200
)

// Service exposes the worklog operations backed by a tempo.API.
type Service struct {
	api     tempo.API
	metrics *telemetry.MetricsCollector
	refs    referenceCache
}

// NewService creates a Service. metrics may be nil.
func NewService(api tempo.API, metrics *telemetry.MetricsCollector) *Service {
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	return &Service{api: api, metrics: metrics}
}

// Query filters a worklog listing. From and To are required ISO dates.
type Query struct {
	From      string
	To        string
	ProjectID int64
	IssueID   int64
	AccountID string
	Limit     int
}

// CreateParams are the inputs for recording a new worklog.
type CreateParams struct {
	IssueID     int64
	TimeSpent   string
	Description string
	StartDate   string
	StartTime   string
	Billable    *bool
	AccountID   string
	Attributes  map[string]interface{}
}

// UpdateParams are the optional fields of a partial worklog update.
type UpdateParams struct {
	TimeSpent   *string
	Description *string
	StartDate   *string
	StartTime   *string
	Billable    *bool
}

// SearchParams combine remote filters with an optional local
// description match.
type SearchParams struct {
	From      string
	To        string
	ProjectID int64
	IssueID   int64
	AccountID string
	Text      string
	Limit     int
}

// IssueTotal is the time recorded against one issue over a range.
type IssueTotal struct {
	IssueID      int64
	IssueKey     string
	TotalSeconds int
	Entries      int
}

// DayTotal is the time recorded on one calendar day over a range.
type DayTotal struct {
	Date         string
	TotalSeconds int
	Entries      int
}

// Summary aggregates a date range of worklogs.
type Summary struct {
	From         string
	To           string
	TotalSeconds int
	Entries      int
	ByIssue      []IssueTotal
	ByDay        []DayTotal
}

// GetWorklogs lists worklogs in the given range, following pagination
// until the requested limit is reached or the range is exhausted.
func (s *Service) GetWorklogs(ctx context.Context, q Query) ([]tempo.Worklog, error) {
	from, to, err := validateRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(q.Limit)

	return s.collect(ctx, tempo.ListWorklogsParams{
		From:      from,
		To:        to,
		ProjectID: q.ProjectID,
		IssueID:   q.IssueID,
		AccountID: q.AccountID,
	}, limit)
}

// collect pages through the list endpoint until limit results are
// gathered or no page follows.
func (s *Service) collect(ctx context.Context, params tempo.ListWorklogsParams, limit int) ([]tempo.Worklog, error) {
	results := make([]tempo.Worklog, 0, limit)
	offset := 0
	for len(results) < limit {
		params.Offset = offset
		params.Limit = pageSize
		if remaining := limit - len(results); remaining < pageSize {
			params.Limit = remaining
		}

		page, err := s.api.ListWorklogs(ctx, params)
		if err != nil {
			return nil, err
		}
		results = append(results, page.Results...)
		if !page.HasNext() || len(page.Results) == 0 {
			break
		}
		offset += len(page.Results)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CreateWorklog validates p, resolves the duration string, checks the
// attribute keys against the cached work-attribute definitions, and
// records the worklog.
func (s *Service) CreateWorklog(ctx context.Context, p CreateParams) (*tempo.Worklog, error) {
	if p.IssueID <= 0 {
		return nil, errortypes.ValidationError(nil, "issue id is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, errortypes.ValidationError(nil, "description is required")
	}

	seconds, err := timeutil.ParseDurationSeconds(p.TimeSpent)
	if err != nil {
		return nil, errortypes.ValidationError(err, fmt.Sprintf("cannot parse time spent %q", p.TimeSpent))
	}

	startDate := strings.TrimSpace(p.StartDate)
	if startDate == "" {
		startDate = timeutil.Today()
	} else if _, err := timeutil.ParseDay(startDate); err != nil {
		return nil, errortypes.ValidationError(err, fmt.Sprintf("invalid start date %q", startDate))
	}

	attributes, err := s.resolveAttributes(ctx, p.Attributes)
	if err != nil {
		return nil, err
	}

	input := tempo.CreateWorklogInput{
		IssueID:          p.IssueID,
		TimeSpentSeconds: seconds,
		StartDate:        startDate,
		Description:      p.Description,
		StartTime:        p.StartTime,
		AuthorAccountID:  p.AccountID,
		Attributes:       attributes,
	}
	if p.Billable != nil {
		billable := 0
		if *p.Billable {
			billable = seconds
		}
		input.BillableSeconds = &billable
	}

	return s.api.CreateWorklog(ctx, input)
}

// resolveAttributes validates the requested attribute keys against the
// work-attribute definitions and checks that every required attribute
// is present. The definitions come from the session cache.
func (s *Service) resolveAttributes(ctx context.Context, requested map[string]interface{}) ([]tempo.AttributeValue, error) {
	definitions, err := s.GetWorkAttributes(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]tempo.WorkAttribute, len(definitions))
	for _, def := range definitions {
		byKey[def.Key] = def
	}

	for key := range requested {
		if _, ok := byKey[key]; !ok {
			return nil, errortypes.ValidationError(nil, fmt.Sprintf("unknown work attribute %q", key))
		}
	}
	for _, def := range definitions {
		if !def.Required {
			continue
		}
		if _, ok := requested[def.Key]; !ok {
			return nil, errortypes.ValidationError(nil, fmt.Sprintf("required work attribute %q is missing", def.Key))
		}
	}

	if len(requested) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(requested))
	for key := range requested {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]tempo.AttributeValue, 0, len(keys))
	for _, key := range keys {
		values = append(values, tempo.AttributeValue{Key: key, Value: requested[key]})
	}
	return values, nil
}

// UpdateWorklog applies a partial update. At least one field must be
// set. A billable toggle without a new duration resolves the current
// duration from the remote worklog.
func (s *Service) UpdateWorklog(ctx context.Context, worklogID int64, p UpdateParams) (*tempo.Worklog, error) {
	if worklogID <= 0 {
		return nil, errortypes.ValidationError(nil, "worklog id is required")
	}
	if p.TimeSpent == nil && p.Description == nil && p.StartDate == nil &&
		p.StartTime == nil && p.Billable == nil {
		return nil, errortypes.ValidationError(nil, "update requires at least one field")
	}

	var input tempo.UpdateWorklogInput
	if p.TimeSpent != nil {
		seconds, err := timeutil.ParseDurationSeconds(*p.TimeSpent)
		if err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("cannot parse time spent %q", *p.TimeSpent))
		}
		input.TimeSpentSeconds = &seconds
	}
	if p.Description != nil {
		input.Description = p.Description
	}
	if p.StartDate != nil {
		if _, err := timeutil.ParseDay(*p.StartDate); err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("invalid start date %q", *p.StartDate))
		}
		input.StartDate = p.StartDate
	}
	if p.StartTime != nil {
		input.StartTime = p.StartTime
	}
	if p.Billable != nil {
		billable := 0
		if *p.Billable {
			if input.TimeSpentSeconds != nil {
				billable = *input.TimeSpentSeconds
			} else {
				current, err := s.api.GetWorklog(ctx, worklogID)
				if err != nil {
					return nil, err
				}
				billable = current.TimeSpentSeconds
			}
		}
		input.BillableSeconds = &billable
	}

	return s.api.UpdateWorklog(ctx, worklogID, input)
}

// DeleteWorklog removes a worklog by id.
func (s *Service) DeleteWorklog(ctx context.Context, worklogID int64) error {
	if worklogID <= 0 {
		return errortypes.ValidationError(nil, "worklog id is required")
	}
	return s.api.DeleteWorklog(ctx, worklogID)
}

// SearchWorklogs runs a filtered listing plus an optional local
// description match. At least one remote filter must be present; a
// text query alone would force an unbounded scan and is rejected.
// Date bounds may be one-sided.
func (s *Service) SearchWorklogs(ctx context.Context, p SearchParams) ([]tempo.Worklog, error) {
	if p.From == "" && p.To == "" && p.ProjectID == 0 && p.IssueID == 0 && p.AccountID == "" {
		return nil, errortypes.ValidationError(nil, "search requires at least one filter besides the text query")
	}

	from := strings.TrimSpace(p.From)
	to := strings.TrimSpace(p.To)
	var fromDay, toDay time.Time
	if from != "" {
		day, err := timeutil.ParseDay(from)
		if err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("invalid from date %q", from))
		}
		fromDay = day
	}
	if to != "" {
		day, err := timeutil.ParseDay(to)
		if err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("invalid to date %q", to))
		}
		toDay = day
	}
	if from != "" && to != "" && fromDay.After(toDay) {
		return nil, errortypes.ValidationError(errors.New("from is after to"), fmt.Sprintf("invalid range %s..%s", from, to))
	}

	limit := clampLimit(p.Limit)
	results, err := s.collect(ctx, tempo.ListWorklogsParams{
		From:      from,
		To:        to,
		ProjectID: p.ProjectID,
		IssueID:   p.IssueID,
		AccountID: p.AccountID,
	}, limit)
	if err != nil {
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(p.Text))
	if text == "" {
		return results, nil
	}
	matched := results[:0]
	for _, worklog := range results {
		if strings.Contains(strings.ToLower(worklog.Description), text) {
			matched = append(matched, worklog)
		}
	}
	return matched, nil
}

// GetAccounts returns the Tempo accounts, served from the session cache
// after the first call.
func (s *Service) GetAccounts(ctx context.Context) ([]tempo.Account, error) {
	if accounts, ok := s.refs.getAccounts(); ok {
		s.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
		return accounts, nil
	}
	s.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)

	accounts, err := s.api.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	s.refs.setAccounts(accounts)
	return accounts, nil
}

// GetWorkAttributes returns the work-attribute definitions, served from
// the session cache after the first call.
func (s *Service) GetWorkAttributes(ctx context.Context) ([]tempo.WorkAttribute, error) {
	if attributes, ok := s.refs.getAttributes(); ok {
		s.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
		return attributes, nil
	}
	s.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)

	attributes, err := s.api.ListWorkAttributes(ctx)
	if err != nil {
		return nil, err
	}
	s.refs.setAttributes(attributes)
	return attributes, nil
}

// GetSummary totals the worklogs in [from, to], grouped per issue and
// per day. accountID optionally narrows the range to one account.
func (s *Service) GetSummary(ctx context.Context, from, to, accountID string) (*Summary, error) {
	validFrom, validTo, err := validateRange(from, to)
	if err != nil {
		return nil, err
	}

	worklogs, err := s.collect(ctx, tempo.ListWorklogsParams{
		From:      validFrom,
		To:        validTo,
		AccountID: accountID,
	}, MaxLimit)
	if err != nil {
		return nil, err
	}

	summary := &Summary{From: validFrom, To: validTo, Entries: len(worklogs)}
	issues := make(map[int64]*IssueTotal)
	days := make(map[string]*DayTotal)
	for _, worklog := range worklogs {
		summary.TotalSeconds += worklog.TimeSpentSeconds

		issue, ok := issues[worklog.Issue.ID]
		if !ok {
			issue = &IssueTotal{IssueID: worklog.Issue.ID, IssueKey: worklog.Issue.Key}
			issues[worklog.Issue.ID] = issue
		}
		issue.TotalSeconds += worklog.TimeSpentSeconds
		issue.Entries++

		day, ok := days[worklog.StartDate]
		if !ok {
			day = &DayTotal{Date: worklog.StartDate}
			days[worklog.StartDate] = day
		}
		day.TotalSeconds += worklog.TimeSpentSeconds
		day.Entries++
	}

	summary.ByIssue = make([]IssueTotal, 0, len(issues))
	for _, issue := range issues {
		summary.ByIssue = append(summary.ByIssue, *issue)
	}
	sort.Slice(summary.ByIssue, func(i, j int) bool {
		if summary.ByIssue[i].TotalSeconds != summary.ByIssue[j].TotalSeconds {
			return summary.ByIssue[i].TotalSeconds > summary.ByIssue[j].TotalSeconds
		}
		return summary.ByIssue[i].IssueID < summary.ByIssue[j].IssueID
	})

	summary.ByDay = make([]DayTotal, 0, len(days))
	for _, day := range days {
		summary.ByDay = append(summary.ByDay, *day)
	}
	sort.Slice(summary.ByDay, func(i, j int) bool {
		return summary.ByDay[i].Date < summary.ByDay[j].Date
	})

	return summary, nil
}

// validateRange checks that both dates are present, parseable, and
// ordered. It returns the trimmed values.
func validateRange(from, to string) (string, string, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return "", "", errortypes.ValidationError(nil, "from and to dates are required")
	}
	fromDay, err := timeutil.ParseDay(from)
	if err != nil {
		return "", "", errortypes.ValidationError(err, fmt.Sprintf("invalid from date %q", from))
	}
	toDay, err := timeutil.ParseDay(to)
	if err != nil {
		return "", "", errortypes.ValidationError(err, fmt.Sprintf("invalid to date %q", to))
	}
	if fromDay.After(toDay) {
		return "", "", errortypes.ValidationError(errors.New("from is after to"), fmt.Sprintf("invalid range %s..%s", from, to))
	}
	return from, to, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
