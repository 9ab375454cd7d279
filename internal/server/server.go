package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/tempomcp/internal/errortypes"
	"github.com/localrivet/tempomcp/internal/tempo"
	"github.com/localrivet/tempomcp/internal/timeutil"
	"github.com/localrivet/tempomcp/internal/tools"
	"github.com/localrivet/tempomcp/internal/worklog"
)

// Operations are the domain operations the tool handlers dispatch to.
type Operations interface {
	GetWorklogs(ctx context.Context, q worklog.Query) ([]tempo.Worklog, error)
	CreateWorklog(ctx context.Context, p worklog.CreateParams) (*tempo.Worklog, error)
	UpdateWorklog(ctx context.Context, worklogID int64, p worklog.UpdateParams) (*tempo.Worklog, error)
	DeleteWorklog(ctx context.Context, worklogID int64) error
	SearchWorklogs(ctx context.Context, p worklog.SearchParams) ([]tempo.Worklog, error)
	GetAccounts(ctx context.Context) ([]tempo.Account, error)
	GetWorkAttributes(ctx context.Context) ([]tempo.WorkAttribute, error)
	GetSummary(ctx context.Context, from, to, accountID string) (*worklog.Summary, error)
}

// MCPWorklogToolServer implements the WorklogToolServer interface
// for handling MCP tool calls against the Tempo worklog service.
// Handlers run under a server-lifetime context so Stop cancels queued
// rate-limit waits and in-flight HTTP calls.
type MCPWorklogToolServer struct {
	service   Operations
	mcpServer server.Server
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewWorklogToolServer creates a new MCPWorklogToolServer instance.
func NewWorklogToolServer(service Operations) *MCPWorklogToolServer {
	return &MCPWorklogToolServer{
		service: service,
	}
}

// Initialize registers the tool surface. The set of tools is fixed at
// startup; gomcp rejects unknown tool names before handlers run.
func (s *MCPWorklogToolServer) Initialize() error {
	slog.Info("Initializing MCP Worklog Tool Server")

	if s.service == nil {
		return errortypes.ConfigError(errors.New("missing worklog service"), "server initialization failed")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	srv := server.NewServer("tempomcp")

	srv = srv.Tool(tools.ToolGetWorklogs, "List worklogs in a date range with optional filters",
		s.handleGetWorklogs)

	srv = srv.Tool(tools.ToolCreateWorklog, "Record time spent against a Jira issue",
		s.handleCreateWorklog)

	srv = srv.Tool(tools.ToolUpdateWorklog, "Update fields of an existing worklog",
		s.handleUpdateWorklog)

	srv = srv.Tool(tools.ToolDeleteWorklog, "Delete a worklog by id",
		s.handleDeleteWorklog)

	srv = srv.Tool(tools.ToolSearchWorklogs, "Search worklogs by filters and description text",
		s.handleSearchWorklogs)

	srv = srv.Tool(tools.ToolGetAccounts, "List the Tempo accounts",
		s.handleGetAccounts)

	srv = srv.Tool(tools.ToolGetWorkAttributes, "List the work-attribute definitions",
		s.handleGetWorkAttributes)

	srv = srv.Tool(tools.ToolGetTodaySummary, "Summarize the time recorded today",
		s.handleGetTodaySummary)

	s.mcpServer = srv
	slog.Info("MCP Worklog Tool Server initialized successfully", "tool_count", 8)
	return nil
}

// Start starts the MCP server on the stdio transport.
func (s *MCPWorklogToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(errors.New("server not initialized"), "cannot start server")
	}

	slog.Info("Starting MCP Worklog Tool Server")

	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server, cancelling any operation
// still waiting on the rate limiter or the remote API.
func (s *MCPWorklogToolServer) Stop() error {
	slog.Info("Stopping MCP Worklog Tool Server")
	if s.cancel != nil {
		s.cancel()
	}
	// The server will exit when stdin is closed
	return nil
}

// handleGetWorklogs handles the get_worklogs MCP tool call.
func (s *MCPWorklogToolServer) handleGetWorklogs(ctx *server.Context, req tools.GetWorklogsRequest) (tools.GetWorklogsResponse, error) {
	slog.Info("Processing get_worklogs request", "from", req.From, "to", req.To)

	response := tools.GetWorklogsResponse{
		Status: tools.StatusSuccess,
	}

	worklogs, err := s.service.GetWorklogs(s.ctx, worklog.Query{
		From:      req.From,
		To:        req.To,
		ProjectID: req.ProjectID,
		IssueID:   req.IssueID,
		AccountID: req.AccountID,
		Limit:     req.Limit,
	})
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	response.Worklogs = tools.NewWorklogViews(worklogs)
	response.Count = len(response.Worklogs)
	slog.Info("Successfully listed worklogs", "count", response.Count)
	return response, nil
}

// handleCreateWorklog handles the create_worklog MCP tool call.
func (s *MCPWorklogToolServer) handleCreateWorklog(ctx *server.Context, req tools.CreateWorklogRequest) (tools.CreateWorklogResponse, error) {
	slog.Info("Processing create_worklog request", "issue_id", req.IssueID, "time_spent", req.TimeSpent)

	response := tools.CreateWorklogResponse{
		Status: tools.StatusSuccess,
	}

	created, err := s.service.CreateWorklog(s.ctx, worklog.CreateParams{
		IssueID:     req.IssueID,
		TimeSpent:   req.TimeSpent,
		Description: req.Description,
		StartDate:   req.StartDate,
		StartTime:   req.StartTime,
		Billable:    req.Billable,
		AccountID:   req.AccountID,
		Attributes:  req.Attributes,
	})
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	view := tools.NewWorklogView(*created)
	response.Worklog = &view
	slog.Info("Successfully created worklog", "worklog_id", created.TempoWorklogID)
	return response, nil
}

// handleUpdateWorklog handles the update_worklog MCP tool call.
func (s *MCPWorklogToolServer) handleUpdateWorklog(ctx *server.Context, req tools.UpdateWorklogRequest) (tools.UpdateWorklogResponse, error) {
	slog.Info("Processing update_worklog request", "worklog_id", req.WorklogID)

	response := tools.UpdateWorklogResponse{
		Status: tools.StatusSuccess,
	}

	updated, err := s.service.UpdateWorklog(s.ctx, req.WorklogID, worklog.UpdateParams{
		TimeSpent:   req.TimeSpent,
		Description: req.Description,
		StartDate:   req.StartDate,
		StartTime:   req.StartTime,
		Billable:    req.Billable,
	})
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	view := tools.NewWorklogView(*updated)
	response.Worklog = &view
	slog.Info("Successfully updated worklog", "worklog_id", req.WorklogID)
	return response, nil
}

// handleDeleteWorklog handles the delete_worklog MCP tool call.
func (s *MCPWorklogToolServer) handleDeleteWorklog(ctx *server.Context, req tools.DeleteWorklogRequest) (tools.DeleteWorklogResponse, error) {
	slog.Info("Processing delete_worklog request", "worklog_id", req.WorklogID)

	response := tools.DeleteWorklogResponse{
		Status: tools.StatusSuccess,
	}

	if err := s.service.DeleteWorklog(s.ctx, req.WorklogID); err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	slog.Info("Successfully deleted worklog", "worklog_id", req.WorklogID)
	return response, nil
}

// handleSearchWorklogs handles the search_worklogs MCP tool call.
func (s *MCPWorklogToolServer) handleSearchWorklogs(ctx *server.Context, req tools.SearchWorklogsRequest) (tools.SearchWorklogsResponse, error) {
	slog.Info("Processing search_worklogs request", "query", req.Query)

	response := tools.SearchWorklogsResponse{
		Status: tools.StatusSuccess,
	}

	worklogs, err := s.service.SearchWorklogs(s.ctx, worklog.SearchParams{
		From:      req.From,
		To:        req.To,
		ProjectID: req.ProjectID,
		IssueID:   req.IssueID,
		AccountID: req.AccountID,
		Text:      req.Query,
		Limit:     req.Limit,
	})
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	response.Worklogs = tools.NewWorklogViews(worklogs)
	response.Count = len(response.Worklogs)
	slog.Info("Successfully searched worklogs", "count", response.Count)
	return response, nil
}

// handleGetAccounts handles the get_accounts MCP tool call.
func (s *MCPWorklogToolServer) handleGetAccounts(ctx *server.Context, req tools.GetAccountsRequest) (tools.GetAccountsResponse, error) {
	slog.Info("Processing get_accounts request")

	response := tools.GetAccountsResponse{
		Status: tools.StatusSuccess,
	}

	accounts, err := s.service.GetAccounts(s.ctx)
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	response.Accounts = make([]tools.AccountView, 0, len(accounts))
	for _, account := range accounts {
		response.Accounts = append(response.Accounts, tools.AccountView{
			Key:    account.Key,
			Name:   account.Name,
			Status: account.Status,
			Global: account.Global,
		})
	}
	slog.Info("Successfully listed accounts", "count", len(response.Accounts))
	return response, nil
}

// handleGetWorkAttributes handles the get_work_attributes MCP tool call.
func (s *MCPWorklogToolServer) handleGetWorkAttributes(ctx *server.Context, req tools.GetWorkAttributesRequest) (tools.GetWorkAttributesResponse, error) {
	slog.Info("Processing get_work_attributes request")

	response := tools.GetWorkAttributesResponse{
		Status: tools.StatusSuccess,
	}

	attributes, err := s.service.GetWorkAttributes(s.ctx)
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	response.Attributes = make([]tools.WorkAttributeView, 0, len(attributes))
	for _, attribute := range attributes {
		response.Attributes = append(response.Attributes, tools.WorkAttributeView{
			Key:      attribute.Key,
			Name:     attribute.Name,
			Type:     attribute.Type,
			Required: attribute.Required,
			Values:   attribute.Values,
		})
	}
	slog.Info("Successfully listed work attributes", "count", len(response.Attributes))
	return response, nil
}

// handleGetTodaySummary handles the get_today_summary MCP tool call.
func (s *MCPWorklogToolServer) handleGetTodaySummary(ctx *server.Context, req tools.GetTodaySummaryRequest) (tools.GetTodaySummaryResponse, error) {
	date := req.Date
	if date == "" {
		date = timeutil.Today()
	}
	slog.Info("Processing get_today_summary request", "date", date)

	response := tools.GetTodaySummaryResponse{
		Status: tools.StatusSuccess,
	}

	summary, err := s.service.GetSummary(s.ctx, date, date, req.AccountID)
	if err != nil {
		errortypes.LogError(nil, err)
		response.Status = tools.StatusError
		response.Code = errorCode(err)
		response.Error = err.Error()
		return response, nil
	}

	response.From = summary.From
	response.To = summary.To
	response.TotalSeconds = summary.TotalSeconds
	response.TotalTimeSpent = timeutil.FormatDuration(summary.TotalSeconds)
	response.Entries = summary.Entries
	response.ByIssue = make([]tools.IssueTotalView, 0, len(summary.ByIssue))
	for _, issue := range summary.ByIssue {
		response.ByIssue = append(response.ByIssue, tools.IssueTotalView{
			IssueID:   issue.IssueID,
			IssueKey:  issue.IssueKey,
			TimeSpent: timeutil.FormatDuration(issue.TotalSeconds),
			Seconds:   issue.TotalSeconds,
			Entries:   issue.Entries,
		})
	}
	response.ByDay = make([]tools.DayTotalView, 0, len(summary.ByDay))
	for _, day := range summary.ByDay {
		response.ByDay = append(response.ByDay, tools.DayTotalView{
			Date:      day.Date,
			TimeSpent: timeutil.FormatDuration(day.TotalSeconds),
			Seconds:   day.TotalSeconds,
			Entries:   day.Entries,
		})
	}
	slog.Info("Successfully summarized worklogs", "entries", summary.Entries, "total_seconds", summary.TotalSeconds)
	return response, nil
}
