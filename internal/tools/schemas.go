// Package tools defines the tool names and request/response schemas
// for the Tempo worklog MCP surface.
package tools

import (
	"github.com/localrivet/tempomcp/internal/tempo"
	"github.com/localrivet/tempomcp/internal/timeutil"
)

const (
	// ToolGetWorklogs is the name of the get_worklogs MCP tool
	ToolGetWorklogs = "get_worklogs"

	// ToolCreateWorklog is the name of the create_worklog MCP tool
	ToolCreateWorklog = "create_worklog"

	// ToolUpdateWorklog is the name of the update_worklog MCP tool
	ToolUpdateWorklog = "update_worklog"

	// ToolDeleteWorklog is the name of the delete_worklog MCP tool
	ToolDeleteWorklog = "delete_worklog"

	// ToolSearchWorklogs is the name of the search_worklogs MCP tool
	ToolSearchWorklogs = "search_worklogs"

	// ToolGetAccounts is the name of the get_accounts MCP tool
	ToolGetAccounts = "get_accounts"

	// ToolGetWorkAttributes is the name of the get_work_attributes MCP tool
	ToolGetWorkAttributes = "get_work_attributes"

	// ToolGetTodaySummary is the name of the get_today_summary MCP tool
	ToolGetTodaySummary = "get_today_summary"
)

// Status values used in every response envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WorklogView is the tool-facing shape of a worklog, with the duration
// formatted for display alongside the raw seconds.
type WorklogView struct {
	ID              int64                  `json:"id"`
	IssueID         int64                  `json:"issue_id,omitempty"`
	IssueKey        string                 `json:"issue_key,omitempty"`
	TimeSpent       string                 `json:"time_spent"`
	TimeSpentSecs   int                    `json:"time_spent_seconds"`
	BillableSeconds int                    `json:"billable_seconds,omitempty"`
	StartDate       string                 `json:"start_date"`
	StartTime       string                 `json:"start_time,omitempty"`
	Description     string                 `json:"description"`
	Author          string                 `json:"author,omitempty"`
	Attributes      map[string]interface{} `json:"attributes,omitempty"`
}

// NewWorklogView converts a wire worklog into its tool-facing view.
func NewWorklogView(w tempo.Worklog) WorklogView {
	view := WorklogView{
		ID:              w.TempoWorklogID,
		IssueID:         w.Issue.ID,
		IssueKey:        w.Issue.Key,
		TimeSpent:       timeutil.FormatDuration(w.TimeSpentSeconds),
		TimeSpentSecs:   w.TimeSpentSeconds,
		BillableSeconds: w.BillableSeconds,
		StartDate:       w.StartDate,
		StartTime:       w.StartTime,
		Description:     w.Description,
		Author:          w.Author.DisplayName,
	}
	if len(w.Attributes.Values) > 0 {
		view.Attributes = make(map[string]interface{}, len(w.Attributes.Values))
		for _, value := range w.Attributes.Values {
			view.Attributes[value.Key] = value.Value
		}
	}
	return view
}

// NewWorklogViews converts a slice of wire worklogs.
func NewWorklogViews(worklogs []tempo.Worklog) []WorklogView {
	views := make([]WorklogView, 0, len(worklogs))
	for _, worklog := range worklogs {
		views = append(views, NewWorklogView(worklog))
	}
	return views
}

// AccountView is the tool-facing shape of a Tempo account.
type AccountView struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Global bool   `json:"global,omitempty"`
}

// WorkAttributeView is the tool-facing shape of a work-attribute
// definition.
type WorkAttributeView struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Values   []string `json:"values,omitempty"`
}

// GetWorklogsRequest defines the input schema for get_worklogs tool
type GetWorklogsRequest struct {
	// From is the inclusive start date (YYYY-MM-DD)
	From string `json:"from"`

	// To is the inclusive end date (YYYY-MM-DD)
	To string `json:"to"`

	// ProjectID optionally restricts results to one Jira project
	ProjectID int64 `json:"project_id,omitempty"`

	// IssueID optionally restricts results to one Jira issue
	IssueID int64 `json:"issue_id,omitempty"`

	// AccountID optionally restricts results to one Tempo account
	AccountID string `json:"account_id,omitempty"`

	// Limit is the maximum number of results to return
	Limit int `json:"limit,omitempty"`
}

// GetWorklogsResponse defines the output schema for get_worklogs tool
type GetWorklogsResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Worklogs contains the matching entries
	Worklogs []WorklogView `json:"worklogs,omitempty"`

	// Count is the number of entries returned
	Count int `json:"count"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// CreateWorklogRequest defines the input schema for create_worklog tool
type CreateWorklogRequest struct {
	// IssueID is the Jira issue to record time against
	IssueID int64 `json:"issue_id"`

	// TimeSpent is the duration worked, e.g. "2h 30m", "1.5h", "90m"
	TimeSpent string `json:"time_spent"`

	// Description describes the work done
	Description string `json:"description"`

	// StartDate is the day of the work (YYYY-MM-DD); defaults to today
	StartDate string `json:"start_date,omitempty"`

	// StartTime is the optional time of day (HH:MM:SS)
	StartTime string `json:"start_time,omitempty"`

	// Billable marks the full duration as billable when true
	Billable *bool `json:"billable,omitempty"`

	// AccountID is the optional author account id
	AccountID string `json:"account_id,omitempty"`

	// Attributes are work-attribute key/value pairs
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// CreateWorklogResponse defines the output schema for create_worklog tool
type CreateWorklogResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Worklog is the created entry with its assigned id
	Worklog *WorklogView `json:"worklog,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// UpdateWorklogRequest defines the input schema for update_worklog tool
type UpdateWorklogRequest struct {
	// WorklogID is the id of the worklog to update
	WorklogID int64 `json:"worklog_id"`

	// TimeSpent optionally replaces the duration worked
	TimeSpent *string `json:"time_spent,omitempty"`

	// Description optionally replaces the description
	Description *string `json:"description,omitempty"`

	// StartDate optionally moves the entry to another day
	StartDate *string `json:"start_date,omitempty"`

	// StartTime optionally replaces the time of day
	StartTime *string `json:"start_time,omitempty"`

	// Billable optionally toggles the billable flag
	Billable *bool `json:"billable,omitempty"`
}

// UpdateWorklogResponse defines the output schema for update_worklog tool
type UpdateWorklogResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Worklog is the updated entry
	Worklog *WorklogView `json:"worklog,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// DeleteWorklogRequest defines the input schema for delete_worklog tool
type DeleteWorklogRequest struct {
	// WorklogID is the id of the worklog to delete
	WorklogID int64 `json:"worklog_id"`
}

// DeleteWorklogResponse defines the output schema for delete_worklog tool
type DeleteWorklogResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// SearchWorklogsRequest defines the input schema for search_worklogs tool
type SearchWorklogsRequest struct {
	// From is the optional inclusive start date (YYYY-MM-DD)
	From string `json:"from,omitempty"`

	// To is the optional inclusive end date (YYYY-MM-DD)
	To string `json:"to,omitempty"`

	// ProjectID optionally restricts results to one Jira project
	ProjectID int64 `json:"project_id,omitempty"`

	// IssueID optionally restricts results to one Jira issue
	IssueID int64 `json:"issue_id,omitempty"`

	// AccountID optionally restricts results to one Tempo account
	AccountID string `json:"account_id,omitempty"`

	// Query matches against worklog descriptions, case-insensitive
	Query string `json:"query,omitempty"`

	// Limit is the maximum number of results to return
	Limit int `json:"limit,omitempty"`
}

// SearchWorklogsResponse defines the output schema for search_worklogs tool
type SearchWorklogsResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Worklogs contains the matching entries
	Worklogs []WorklogView `json:"worklogs,omitempty"`

	// Count is the number of entries returned
	Count int `json:"count"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// GetAccountsRequest defines the input schema for get_accounts tool
type GetAccountsRequest struct{}

// GetAccountsResponse defines the output schema for get_accounts tool
type GetAccountsResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Accounts contains the Tempo accounts
	Accounts []AccountView `json:"accounts,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// GetWorkAttributesRequest defines the input schema for get_work_attributes tool
type GetWorkAttributesRequest struct{}

// GetWorkAttributesResponse defines the output schema for get_work_attributes tool
type GetWorkAttributesResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Attributes contains the work-attribute definitions
	Attributes []WorkAttributeView `json:"attributes,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// GetTodaySummaryRequest defines the input schema for get_today_summary tool
type GetTodaySummaryRequest struct {
	// Date overrides the day to summarize (YYYY-MM-DD); defaults to today
	Date string `json:"date,omitempty"`

	// AccountID optionally narrows the summary to one Tempo account
	AccountID string `json:"account_id,omitempty"`
}

// IssueTotalView is the per-issue line of a summary.
type IssueTotalView struct {
	IssueID   int64  `json:"issue_id"`
	IssueKey  string `json:"issue_key,omitempty"`
	TimeSpent string `json:"time_spent"`
	Seconds   int    `json:"seconds"`
	Entries   int    `json:"entries"`
}

// DayTotalView is the per-day line of a summary.
type DayTotalView struct {
	Date      string `json:"date"`
	TimeSpent string `json:"time_spent"`
	Seconds   int    `json:"seconds"`
	Entries   int    `json:"entries"`
}

// GetTodaySummaryResponse defines the output schema for get_today_summary tool
type GetTodaySummaryResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// From and To bound the summarized range
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// TotalTimeSpent is the formatted total for the range
	TotalTimeSpent string `json:"total_time_spent,omitempty"`

	// TotalSeconds is the raw total for the range
	TotalSeconds int `json:"total_seconds"`

	// Entries is the number of worklogs in the range
	Entries int `json:"entries"`

	// ByIssue groups the total per issue, largest first
	ByIssue []IssueTotalView `json:"by_issue,omitempty"`

	// ByDay groups the total per day in date order
	ByDay []DayTotalView `json:"by_day,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}
