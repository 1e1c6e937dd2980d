package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shiraishi0303/todo-claude-code/internal/model"
	"github.com/Shiraishi0303/todo-claude-code/internal/storage/memory"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) (*Store, *memory.KVStorage, *fakeClock) {
	t.Helper()
	kv := memory.NewKVStorage()
	clock := &fakeClock{t: time.Date(2026, time.October, 16, 9, 30, 0, 0, time.Local)}
	s := New(kv, WithClock(clock.Now), WithLabels(model.NewLabels("ja")))
	s.Load(context.Background())
	return s, kv, clock
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	s, kv, clock := newTestStore(t)

	deadline := model.NewDate(2026, time.November, 1)
	task, ok := s.Add(ctx, "  Buy milk  ", model.PriorityHigh, deadline)
	if !ok {
		t.Fatal("Expected Add to succeed")
	}
	if task.Title != "Buy milk" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Completed {
		t.Error("Expected new task not to be completed")
	}
	if task.ID != clock.t.UnixMilli() {
		t.Errorf("Expected id from creation time, got %d", task.ID)
	}

	restarted := New(kv, WithClock(clock.Now))
	loaded := restarted.Load(ctx)
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 task after restart, got %d", len(loaded))
	}
	got := loaded[0]
	if got.ID != task.ID || got.Title != task.Title || got.Priority != task.Priority ||
		got.Completed != task.Completed || !got.Deadline.Equal(task.Deadline) || !got.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("Round trip mismatch: stored %+v, loaded %+v", task, got)
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, ok := s.Add(ctx, title, model.PriorityLow, model.Date{}); ok {
			t.Errorf("Expected Add(%q) to be rejected", title)
		}
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("Expected empty collection, got %d tasks", len(s.Tasks()))
	}
	if kv.Writes() != 0 {
		t.Errorf("Expected no writes, got %d", kv.Writes())
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	a, _ := s.Add(ctx, "first", model.PriorityLow, model.Date{})
	b, _ := s.Add(ctx, "second", model.PriorityLow, model.Date{})
	if a.ID == b.ID {
		t.Fatalf("Expected unique ids, both are %d", a.ID)
	}
	if b.ID <= a.ID {
		t.Errorf("Expected increasing ids, got %d then %d", a.ID, b.ID)
	}
	if !equalIDs(ids(s.Tasks()), []int64{b.ID, a.ID}) {
		t.Errorf("Expected newest first, got %v", ids(s.Tasks()))
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	task, _ := s.Add(ctx, "toggle me", model.PriorityMedium, model.Date{})
	writes := kv.Writes()

	if !s.Toggle(ctx, task.ID) {
		t.Fatal("Expected Toggle to find the task")
	}
	if got, _ := s.Get(task.ID); !got.Completed {
		t.Error("Expected task to be completed after first toggle")
	}
	s.Toggle(ctx, task.ID)
	if got, _ := s.Get(task.ID); got.Completed {
		t.Error("Expected task to be open after second toggle")
	}
	if kv.Writes() != writes+2 {
		t.Errorf("Expected 2 writes, got %d", kv.Writes()-writes)
	}

	if s.Toggle(ctx, 42) {
		t.Error("Expected Toggle on unknown id to report false")
	}
	if kv.Writes() != writes+2 {
		t.Error("Expected no write for unknown id")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	a, _ := s.Add(ctx, "keep", model.PriorityLow, model.Date{})
	b, _ := s.Add(ctx, "drop", model.PriorityLow, model.Date{})

	if !s.Remove(ctx, b.ID) {
		t.Fatal("Expected first Remove to succeed")
	}
	writes := kv.Writes()
	if s.Remove(ctx, b.ID) {
		t.Error("Expected second Remove to be a no-op")
	}
	if kv.Writes() != writes {
		t.Error("Expected no write for a no-op Remove")
	}
	if !equalIDs(ids(s.Tasks()), []int64{a.ID}) {
		t.Errorf("Expected only %d to remain, got %v", a.ID, ids(s.Tasks()))
	}
}

func TestFiltered(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	a, _ := s.Add(ctx, "a", model.PriorityLow, model.Date{})
	b, _ := s.Add(ctx, "b", model.PriorityLow, model.Date{})
	c, _ := s.Add(ctx, "c", model.PriorityLow, model.Date{})
	s.Toggle(ctx, b.ID)

	s.SetFilter("active")
	if got := ids(s.Filtered()); !equalIDs(got, []int64{c.ID, a.ID}) {
		t.Errorf("Unexpected active tasks: %v", got)
	}

	s.SetFilter("completed")
	if got := ids(s.Filtered()); !equalIDs(got, []int64{b.ID}) {
		t.Errorf("Unexpected completed tasks: %v", got)
	}

	s.SetFilter("all")
	if got := ids(s.Filtered()); !equalIDs(got, []int64{c.ID, b.ID, a.ID}) {
		t.Errorf("Unexpected all tasks: %v", got)
	}

	s.SetFilter("bogus")
	if s.Filter() != model.FilterAll {
		t.Errorf("Expected unknown filter to fall back to all, got %s", s.Filter())
	}
	if got := ids(s.Filtered()); len(got) != 3 {
		t.Errorf("Expected all tasks for unknown filter, got %v", got)
	}
}

func TestEditCursor(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	task, _ := s.Add(ctx, "draft", model.PriorityLow, model.Date{})

	if _, ok := s.BeginEdit(999); ok {
		t.Error("Expected BeginEdit on unknown id to fail")
	}
	if _, editing := s.Editing(); editing {
		t.Error("Expected cursor to stay idle")
	}

	writes := kv.Writes()
	if s.CommitEdit(ctx, "x", model.PriorityHigh, model.Date{}) {
		t.Error("Expected CommitEdit while idle to be a no-op")
	}
	s.CancelEdit()
	if kv.Writes() != writes {
		t.Error("Expected no writes while idle")
	}

	got, ok := s.BeginEdit(task.ID)
	if !ok || got.Title != "draft" {
		t.Fatalf("Expected BeginEdit to return the task, got %+v (%v)", got, ok)
	}
	if id, editing := s.Editing(); !editing || id != task.ID {
		t.Errorf("Expected cursor on %d, got %d (%v)", task.ID, id, editing)
	}

	s.CancelEdit()
	if _, editing := s.Editing(); editing {
		t.Error("Expected CancelEdit to clear the cursor")
	}
	if got, _ := s.Get(task.ID); got.Title != "draft" {
		t.Error("Expected CancelEdit not to change the task")
	}

	deadline := model.NewDate(2026, time.December, 24)
	s.BeginEdit(task.ID)
	if !s.CommitEdit(ctx, " final ", model.PriorityHigh, deadline) {
		t.Fatal("Expected CommitEdit to apply")
	}
	got, _ = s.Get(task.ID)
	if got.Title != "final" || got.Priority != model.PriorityHigh || !got.Deadline.Equal(deadline) {
		t.Errorf("Unexpected task after edit: %+v", got)
	}
	if _, editing := s.Editing(); editing {
		t.Error("Expected CommitEdit to clear the cursor")
	}
	if kv.Writes() != writes+1 {
		t.Errorf("Expected 1 write for the edit, got %d", kv.Writes()-writes)
	}
}

func TestCommitEditAcceptsBlankTitle(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	task, _ := s.Add(ctx, "named", model.PriorityLow, model.Date{})
	s.BeginEdit(task.ID)
	if !s.CommitEdit(ctx, "   ", model.PriorityLow, model.Date{}) {
		t.Fatal("Expected CommitEdit to apply")
	}
	if got, _ := s.Get(task.ID); got.Title != "" {
		t.Errorf("Expected blank title to be stored, got %q", got.Title)
	}
}

func TestCommitEditAfterRemove(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	task, _ := s.Add(ctx, "gone", model.PriorityLow, model.Date{})
	s.BeginEdit(task.ID)
	s.Remove(ctx, task.ID)
	writes := kv.Writes()

	if s.CommitEdit(ctx, "ghost", model.PriorityLow, model.Date{}) {
		t.Error("Expected CommitEdit on a removed task to report false")
	}
	if _, editing := s.Editing(); editing {
		t.Error("Expected cursor to be cleared")
	}
	if kv.Writes() != writes {
		t.Error("Expected no write")
	}
}

func TestIsOverdue(t *testing.T) {
	s, _, clock := newTestStore(t)
	today := model.DateOf(clock.t)

	if s.IsOverdue(model.Date{}) {
		t.Error("Expected empty deadline not to be overdue")
	}
	if s.IsOverdue(today) {
		t.Error("Expected today not to be overdue")
	}
	if !s.IsOverdue(today.AddDays(-1)) {
		t.Error("Expected yesterday to be overdue")
	}
	if s.IsOverdue(today.AddDays(1)) {
		t.Error("Expected tomorrow not to be overdue")
	}

	clock.t = time.Date(2026, time.October, 16, 23, 59, 59, 0, time.Local)
	if s.IsOverdue(today) {
		t.Error("Expected time of day to be ignored")
	}

	done := model.Task{Deadline: today.AddDays(-3), Completed: true}
	if s.ShowOverdue(done) {
		t.Error("Expected completed task not to be shown as overdue")
	}
}

func TestPriorityLabel(t *testing.T) {
	s, _, _ := newTestStore(t)

	expected := map[model.Priority]string{
		model.PriorityHigh:   "高",
		model.PriorityMedium: "中",
		model.PriorityLow:    "低",
		"someday":            "someday",
	}
	for p, label := range expected {
		if got := s.PriorityLabel(p); got != label {
			t.Errorf("PriorityLabel(%s) = %s, expected %s", p, got, label)
		}
	}
}

type brokenKV struct {
	data []byte
}

func (b *brokenKV) Get(context.Context, string) ([]byte, error) {
	if b.data != nil {
		return b.data, nil
	}
	return nil, errors.New("disk on fire")
}

func (b *brokenKV) Set(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestLoadFailsSoft(t *testing.T) {
	ctx := context.Background()

	for name, kv := range map[string]model.KV{
		"missing":  memory.NewKVStorage(),
		"error":    &brokenKV{},
		"corrupt":  &brokenKV{data: []byte(`{"not": "a list"`)},
		"bad date": &brokenKV{data: []byte(`[{"id":1,"title":"x","deadline":"someday"}]`)},
	} {
		if got := New(kv).Load(ctx); len(got) != 0 {
			t.Errorf("%s: expected empty collection, got %d tasks", name, len(got))
		}
	}
}

func TestLoadSkipsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStorage()
	doc := `[{"id":1,"title":"a","priority":"low","deadline":"","completed":false,"createdAt":"2026-10-16T00:00:00.000Z"},` +
		`{"id":1,"title":"b","priority":"low","deadline":"","completed":false,"createdAt":"2026-10-16T00:00:00.000Z"}]`
	if err := kv.Set(ctx, DocumentKey, []byte(doc)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := New(kv).Load(ctx)
	if len(got) != 1 || got[0].Title != "a" {
		t.Errorf("Expected only the first task, got %+v", got)
	}
}

func TestPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	s := New(&brokenKV{})
	s.Load(ctx)

	task, ok := s.Add(ctx, "still here", model.PriorityLow, model.Date{})
	if !ok {
		t.Fatal("Expected Add to succeed despite write failure")
	}
	if _, found := s.Get(task.ID); !found {
		t.Error("Expected task to stay in memory")
	}
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestStore(t)

	a, _ := s.Add(ctx, "Buy milk", model.PriorityHigh, model.Date{})
	if !equalIDs(ids(s.Tasks()), []int64{a.ID}) {
		t.Fatalf("Expected [A], got %v", ids(s.Tasks()))
	}

	clock.Advance(time.Second)
	yesterday := model.DateOf(clock.t).AddDays(-1)
	b, _ := s.Add(ctx, "Pay rent", model.PriorityMedium, yesterday)
	if !equalIDs(ids(s.Tasks()), []int64{b.ID, a.ID}) {
		t.Fatalf("Expected [B, A], got %v", ids(s.Tasks()))
	}

	s.SetFilter("all")
	if !equalIDs(ids(s.Filtered()), []int64{b.ID, a.ID}) {
		t.Errorf("Expected filtered [B, A], got %v", ids(s.Filtered()))
	}
	if !s.IsOverdue(b.Deadline) {
		t.Error("Expected B to be overdue")
	}
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	a, _ := s.Add(ctx, "a", model.PriorityLow, model.Date{})
	s.Add(ctx, "b", model.PriorityLow, model.Date{})
	s.Toggle(ctx, a.ID)

	c := s.Counts()
	if c.Total != 2 || c.Active != 1 || c.Completed != 1 {
		t.Errorf("Unexpected counts: %+v", c)
	}
}
