package tools

import (
	"testing"

	"github.com/localrivet/tempomcp/internal/tempo"
)

func TestNewWorklogViewFormatsDuration(t *testing.T) {
	view := NewWorklogView(tempo.Worklog{
		TempoWorklogID:   42,
		Issue:            tempo.IssueRef{ID: 7, Key: "PRJ-7"},
		TimeSpentSeconds: 9000,
		StartDate:        "2026-08-10",
		Description:      "integration review",
		Author:           tempo.Author{DisplayName: "Sam"},
	})

	if view.ID != 42 || view.IssueKey != "PRJ-7" {
		t.Errorf("unexpected identity fields: %+v", view)
	}
	if view.TimeSpent != "2h 30m" {
		t.Errorf("expected formatted duration 2h 30m, got %q", view.TimeSpent)
	}
	if view.TimeSpentSecs != 9000 {
		t.Errorf("expected raw seconds preserved, got %d", view.TimeSpentSecs)
	}
	if view.Author != "Sam" {
		t.Errorf("expected author display name, got %q", view.Author)
	}
	if view.Attributes != nil {
		t.Errorf("expected no attributes map, got %v", view.Attributes)
	}
}

func TestNewWorklogViewFlattensAttributes(t *testing.T) {
	view := NewWorklogView(tempo.Worklog{
		TempoWorklogID:   1,
		TimeSpentSeconds: 1800,
		Attributes: tempo.AttributeValues{
			Values: []tempo.AttributeValue{
				{Key: "_Category_", Value: "Development"},
				{Key: "_Overtime_", Value: true},
			},
		},
	})

	if len(view.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %v", view.Attributes)
	}
	if view.Attributes["_Category_"] != "Development" {
		t.Errorf("unexpected category value: %v", view.Attributes["_Category_"])
	}
	if view.Attributes["_Overtime_"] != true {
		t.Errorf("unexpected overtime value: %v", view.Attributes["_Overtime_"])
	}
}

func TestNewWorklogViewsPreservesOrder(t *testing.T) {
	views := NewWorklogViews([]tempo.Worklog{
		{TempoWorklogID: 3, TimeSpentSeconds: 60},
		{TempoWorklogID: 1, TimeSpentSeconds: 120},
	})
	if len(views) != 2 || views[0].ID != 3 || views[1].ID != 1 {
		t.Errorf("expected input order preserved, got %+v", views)
	}
}
