package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/Shiraishi0303/todo-claude-code/internal/model"
)

// DocumentKey is where the task list is kept in the backend.
const DocumentKey = "todos"

type Option func(*Store)

func WithLogger(l lgr.L) Option {
	return func(s *Store) {
		s.log = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLabels(labels model.Labels) Option {
	return func(s *Store) {
		s.labels = labels
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// Store owns the task list, the active filter and the edit cursor. It is not
// safe for concurrent use; callers drive it from a single event loop.
type Store struct {
	kv     model.KV
	log    lgr.L
	now    func() time.Time
	labels model.Labels
	key    string

	tasks  []model.Task
	filter model.Filter
	lastID int64

	editing   int64
	isEditing bool
}

func New(kv model.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		log:    lgr.NoOp,
		now:    time.Now,
		labels: model.NewLabels(""),
		key:    DocumentKey,
		filter: model.FilterAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A missing or
// unreadable document yields an empty list.
func (s *Store) Load(ctx context.Context) []model.Task {
	s.tasks = s.read(ctx)
	s.lastID = 0
	for _, t := range s.tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	s.isEditing = false
	return s.Tasks()
}

func (s *Store) read(ctx context.Context) []model.Task {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, model.ErrKeyNotFound) {
			s.log.Logf("[WARN] could not read %q: %v", s.key, err)
		}
		return []model.Task{}
	}

	var stored []model.Task
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Logf("[WARN] could not decode %q, starting empty: %v", s.key, err)
		return []model.Task{}
	}

	tasks := make([]model.Task, 0, len(stored))
	seen := make(map[int64]bool, len(stored))
	for _, t := range stored {
		if seen[t.ID] {
			s.log.Logf("[WARN] skip duplicate task id=%d", t.ID)
			continue
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	s.log.Logf("[DEBUG] loaded %d tasks from %q", len(tasks), s.key)
	return tasks
}

// persist writes the whole list. Failures are logged and otherwise ignored so
// the in-memory state stays usable.
func (s *Store) persist(ctx context.Context) {
	tasks := s.tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		s.log.Logf("[WARN] could not encode tasks: %v", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.log.Logf("[WARN] could not persist tasks: %v", err)
	}
}

func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) index(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Add prepends a new task. It reports false and changes nothing when the
// title is blank.
func (s *Store) Add(ctx context.Context, title string, priority model.Priority, deadline model.Date) (model.Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		s.log.Logf("[DEBUG] rejected task with empty title")
		return model.Task{}, false
	}

	now := s.now()
	task := model.NewTask(s.nextID(now), title, priority, deadline, now.UTC().Truncate(time.Millisecond))
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.persist(ctx)

	s.log.Logf("[DEBUG] added task id=%d", task.ID)
	return task, true
}

func (s *Store) Remove(ctx context.Context, id int64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.persist(ctx)

	s.log.Logf("[DEBUG] removed task id=%d", id)
	return true
}

func (s *Store) Toggle(ctx context.Context, id int64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.persist(ctx)

	s.log.Logf("[DEBUG] task id=%d completed=%t", id, s.tasks[i].Completed)
	return true
}

// BeginEdit moves the edit cursor to id when such a task exists.
func (s *Store) BeginEdit(id int64) (model.Task, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	s.editing = id
	s.isEditing = true
	return s.tasks[i], true
}

// CommitEdit applies the values to the task under the edit cursor and clears
// the cursor. Unlike Add, a blank title is accepted here.
func (s *Store) CommitEdit(ctx context.Context, title string, priority model.Priority, deadline model.Date) bool {
	if !s.isEditing {
		return false
	}
	id := s.editing
	s.isEditing = false

	i := s.index(id)
	if i < 0 {
		s.log.Logf("[DEBUG] task id=%d disappeared while editing", id)
		return false
	}
	s.tasks[i].Title = strings.TrimSpace(title)
	s.tasks[i].Priority = priority
	s.tasks[i].Deadline = deadline
	s.persist(ctx)

	s.log.Logf("[DEBUG] edited task id=%d", id)
	return true
}

func (s *Store) CancelEdit() {
	s.isEditing = false
}

// Editing returns the id under the edit cursor.
func (s *Store) Editing() (int64, bool) {
	return s.editing, s.isEditing
}

func (s *Store) SetFilter(name string) {
	s.filter = model.ParseFilter(name)
}

func (s *Store) Filter() model.Filter {
	return s.filter
}

// Filtered returns the tasks visible under the current filter, newest first.
func (s *Store) Filtered() []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if s.filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Get(id int64) (model.Task, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

type Counts struct {
	Total     int
	Active    int
	Completed int
}

func (s *Store) Counts() Counts {
	var c Counts
	for _, t := range s.tasks {
		c.Total++
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

// IsOverdue reports whether deadline is set and earlier than today.
func (s *Store) IsOverdue(deadline model.Date) bool {
	return deadline.Before(model.DateOf(s.now()))
}

// ShowOverdue is IsOverdue for tasks that are still open.
func (s *Store) ShowOverdue(t model.Task) bool {
	return !t.Completed && s.IsOverdue(t.Deadline)
}

func (s *Store) PriorityLabel(p model.Priority) string {
	return s.labels.Priority(p)
}

func (s *Store) Labels() model.Labels {
	return s.labels
}

// Today is the current calendar day according to the store clock.
func (s *Store) Today() model.Date {
	return model.DateOf(s.now())
}
