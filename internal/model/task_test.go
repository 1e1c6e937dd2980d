package model

import "testing"

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{
		"all":       FilterAll,
		"active":    FilterActive,
		"completed": FilterCompleted,
		"":          FilterAll,
		"done":      FilterAll,
	}
	for input, expected := range cases {
		if got := ParseFilter(input); got != expected {
			t.Errorf("ParseFilter(%q) = %s, expected %s", input, got, expected)
		}
	}
}

func TestFilterMatch(t *testing.T) {
	open := Task{Title: "open"}
	done := Task{Title: "done", Completed: true}

	if !FilterAll.Match(open) || !FilterAll.Match(done) {
		t.Error("Expected all to match every task")
	}
	if !FilterActive.Match(open) || FilterActive.Match(done) {
		t.Error("Expected active to match only open tasks")
	}
	if FilterCompleted.Match(open) || !FilterCompleted.Match(done) {
		t.Error("Expected completed to match only completed tasks")
	}
}

func TestFilterNext(t *testing.T) {
	if FilterAll.Next() != FilterActive || FilterActive.Next() != FilterCompleted || FilterCompleted.Next() != FilterAll {
		t.Error("Unexpected filter cycle")
	}
}

func TestParsePriority(t *testing.T) {
	if p, ok := ParsePriority("h"); !ok || p != PriorityHigh {
		t.Errorf("Expected high, got %s (%v)", p, ok)
	}
	if p, ok := ParsePriority("urgent"); ok || p != "urgent" {
		t.Errorf("Expected unknown priority to pass through, got %s (%v)", p, ok)
	}
}

func TestLabels(t *testing.T) {
	ja := NewLabels("ja")
	if got := ja.Priority(PriorityHigh); got != "高" {
		t.Errorf("Expected 高, got %s", got)
	}
	if got := ja.Priority("urgent"); got != "urgent" {
		t.Errorf("Expected unknown priority to pass through, got %s", got)
	}

	en := NewLabels("en-US")
	if got := en.Priority(PriorityMedium); got != "Medium" {
		t.Errorf("Expected Medium, got %s", got)
	}
	if got := en.Filter(FilterCompleted); got != "Completed" {
		t.Errorf("Expected Completed, got %s", got)
	}
	if got := en.Empty(FilterActive); got != "No active tasks" {
		t.Errorf("Unexpected empty-state label: %s", got)
	}

	if got := NewLabels("").Priority(PriorityLow); got != "低" {
		t.Errorf("Expected Japanese fallback, got %s", got)
	}
}
