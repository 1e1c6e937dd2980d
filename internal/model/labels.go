package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// The first tag is the fallback for unknown or empty language names.
var supportedLanguages = []language.Tag{
	language.Japanese,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

type labelSet struct {
	priority map[Priority]string
	filter   map[Filter]string
	empty    map[Filter]string
	overdue  string
	confirm  string
}

var labelSets = map[language.Tag]labelSet{
	language.Japanese: {
		priority: map[Priority]string{
			PriorityHigh:   "高",
			PriorityMedium: "中",
			PriorityLow:    "低",
		},
		filter: map[Filter]string{
			FilterAll:       "すべて",
			FilterActive:    "未完了",
			FilterCompleted: "完了",
		},
		empty: map[Filter]string{
			FilterAll:       "TODOがありません",
			FilterActive:    "未完了のTODOがありません",
			FilterCompleted: "完了したTODOがありません",
		},
		overdue: "期限切れ",
		confirm: "このTODOを削除してもよろしいですか？",
	},
	language.English: {
		priority: map[Priority]string{
			PriorityHigh:   "high",
			PriorityMedium: "medium",
			PriorityLow:    "low",
		},
		empty: map[Filter]string{
			FilterAll:       "No tasks",
			FilterActive:    "No active tasks",
			FilterCompleted: "No completed tasks",
		},
		overdue: "overdue",
		confirm: "Delete this task?",
	},
}

// Labels holds the display strings for one language.
type Labels struct {
	tag   language.Tag
	set   labelSet
	title cases.Caser
}

// NewLabels picks the closest supported language for a BCP 47 name such as
// "ja", "en-US" or "en_GB".
func NewLabels(lang string) Labels {
	_, idx := language.MatchStrings(languageMatcher, lang)
	tag := supportedLanguages[idx]
	return Labels{
		tag:   tag,
		set:   labelSets[tag],
		title: cases.Title(tag),
	}
}

func (l Labels) Language() language.Tag {
	return l.tag
}

// Priority maps known priorities to their label and passes anything else
// through unchanged.
func (l Labels) Priority(p Priority) string {
	if s, ok := l.set.priority[p]; ok {
		return l.title.String(s)
	}
	return string(p)
}

func (l Labels) Filter(f Filter) string {
	if s, ok := l.set.filter[f]; ok {
		return s
	}
	return l.title.String(string(f))
}

func (l Labels) Empty(f Filter) string {
	if s, ok := l.set.empty[f]; ok {
		return s
	}
	return l.set.empty[FilterAll]
}

func (l Labels) Overdue() string {
	return l.set.overdue
}

func (l Labels) ConfirmDelete() string {
	return l.set.confirm
}
