package model

import (
	"time"
)

type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Priority  Priority  `json:"priority"`
	Deadline  Date      `json:"deadline"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewTask(id int64, title string, priority Priority, deadline Date, createdAt time.Time) Task {
	return Task{
		ID:        id,
		Title:     title,
		Priority:  priority,
		Deadline:  deadline,
		CreatedAt: createdAt,
	}
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts the stored names and their one-letter shortcuts.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "high", "h":
		return PriorityHigh, true
	case "medium", "m", "mid":
		return PriorityMedium, true
	case "low", "l":
		return PriorityLow, true
	default:
		return Priority(s), false
	}
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter never fails: anything unrecognized means all.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) Match(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	for i, v := range Filters {
		if v == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}
