package tempo

// Entity shapes follow the Tempo Cloud REST API v4 wire format.

// IssueRef identifies the Jira issue a worklog is recorded against.
type IssueRef struct {
	Self string `json:"self,omitempty"`
	ID   int64  `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
}

// Author identifies the user who recorded a worklog.
type Author struct {
	Self        string `json:"self,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// AttributeValue is a single work-attribute key/value pair on a worklog.
type AttributeValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// AttributeValues wraps the attribute values collection on a worklog.
type AttributeValues struct {
	Self   string           `json:"self,omitempty"`
	Values []AttributeValue `json:"values,omitempty"`
}

// Worklog is a single recorded unit of time spent against an issue.
type Worklog struct {
	Self             string          `json:"self,omitempty"`
	TempoWorklogID   int64           `json:"tempoWorklogId,omitempty"`
	Issue            IssueRef        `json:"issue"`
	TimeSpentSeconds int             `json:"timeSpentSeconds"`
	BillableSeconds  int             `json:"billableSeconds,omitempty"`
	StartDate        string          `json:"startDate"`
	StartTime        string          `json:"startTime,omitempty"`
	Description      string          `json:"description"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	UpdatedAt        string          `json:"updatedAt,omitempty"`
	Author           Author          `json:"author"`
	Attributes       AttributeValues `json:"attributes,omitempty"`
}

// Account is a Tempo account. Read-only from this service's perspective.
type Account struct {
	Self   string `json:"self,omitempty"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Global bool   `json:"global,omitempty"`
}

// AccountStatusOpen is the status value of an account accepting worklogs.
const AccountStatusOpen = "OPEN"

// WorkAttribute describes a work-attribute definition: its key, whether
// worklogs must carry it, and the allowed value set for static-list types.
type WorkAttribute struct {
	Self     string   `json:"self,omitempty"`
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Values   []string `json:"values,omitempty"`
}

// PageMetadata is the pagination envelope on list responses.
type PageMetadata struct {
	Count  int    `json:"count"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Next   string `json:"next,omitempty"`
}

// WorklogList is one page of worklog results.
type WorklogList struct {
	Self     string       `json:"self,omitempty"`
	Metadata PageMetadata `json:"metadata"`
	Results  []Worklog    `json:"results"`
}

// HasNext reports whether another page follows this one.
func (l *WorklogList) HasNext() bool {
	return l.Metadata.Next != ""
}

type accountList struct {
	Metadata PageMetadata `json:"metadata"`
	Results  []Account    `json:"results"`
}

type workAttributeList struct {
	Metadata PageMetadata    `json:"metadata"`
	Results  []WorkAttribute `json:"results"`
}

// ListWorklogsParams are the filters accepted by the worklog list endpoint.
// Zero values are omitted from the query.
type ListWorklogsParams struct {
	From      string
	To        string
	ProjectID int64
	IssueID   int64
	AccountID string
	Limit     int
	Offset    int
}

// CreateWorklogInput is the payload for creating a worklog.
type CreateWorklogInput struct {
	IssueID          int64            `json:"issueId"`
	TimeSpentSeconds int              `json:"timeSpentSeconds"`
	StartDate        string           `json:"startDate"`
	Description      string           `json:"description"`
	StartTime        string           `json:"startTime,omitempty"`
	BillableSeconds  *int             `json:"billableSeconds,omitempty"`
	AuthorAccountID  string           `json:"authorAccountId,omitempty"`
	Attributes       []AttributeValue `json:"attributes,omitempty"`
}

// UpdateWorklogInput is the partial-update payload for a worklog.
// Nil fields are left untouched upstream.
type UpdateWorklogInput struct {
	TimeSpentSeconds *int    `json:"timeSpentSeconds,omitempty"`
	Description      *string `json:"description,omitempty"`
	StartDate        *string `json:"startDate,omitempty"`
	StartTime        *string `json:"startTime,omitempty"`
	BillableSeconds  *int    `json:"billableSeconds,omitempty"`
}
