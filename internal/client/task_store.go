package client

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"taskflow/internal/models"
)

// Filters narrow the task list. Empty fields do not filter.
type Filters struct {
	Status   models.Status
	Priority models.Priority
	Search   string
}

func (f Filters) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// Match reports whether t passes every set filter. Search is a
// case-insensitive substring match on title or description.
func (f Filters) Match(t models.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
}

// TaskStore keeps the caller's visible tasks in sync with the server. All
// methods are safe for concurrent use.
type TaskStore struct {
	api *Client

	mu      sync.RWMutex
	tasks   []models.Task
	current *models.Task
	filters Filters
	lastErr error
}

func NewTaskStore(api *Client) *TaskStore {
	return &TaskStore{api: api}
}

// Tasks returns a copy of the loaded tasks.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Filtered applies the current filters to the loaded tasks without a
// round trip.
func (s *TaskStore) Filtered() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if s.filters.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskStore) Current() *models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

func (s *TaskStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Err is the error from the most recent failed operation, cleared by the
// next successful one.
func (s *TaskStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *TaskStore) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// SetFilters overwrites the fields of the current filters that f sets.
func (s *TaskStore) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Status != "" {
		s.filters.Status = f.Status
	}
	if f.Priority != "" {
		s.filters.Priority = f.Priority
	}
	if f.Search != "" {
		s.filters.Search = f.Search
	}
}

func (s *TaskStore) ClearFilters() {
	s.mu.Lock()
	s.filters = Filters{}
	s.mu.Unlock()
}

func (s *TaskStore) record(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// Fetch reloads the task list from the server using the current filters.
func (s *TaskStore) Fetch(ctx context.Context) error {
	tasks, err := s.api.ListTasks(ctx, s.Filters())
	if err != nil {
		return s.record(err)
	}
	s.mu.Lock()
	s.tasks = tasks
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// FetchOne loads a single task, with its comments, as the current task.
func (s *TaskStore) FetchOne(ctx context.Context, id int) (*models.Task, error) {
	t, err := s.api.GetTask(ctx, id)
	if err != nil {
		return nil, s.record(err)
	}
	s.mu.Lock()
	s.current = t
	s.lastErr = nil
	s.mu.Unlock()
	return t, nil
}

// Create sends form and puts the new task at the front of the list.
func (s *TaskStore) Create(ctx context.Context, form TaskForm) (*models.Task, error) {
	t, err := s.api.CreateTask(ctx, form)
	if err != nil {
		return nil, s.record(err)
	}
	s.mu.Lock()
	s.tasks = append([]models.Task{*t}, s.tasks...)
	s.lastErr = nil
	s.mu.Unlock()
	return t, nil
}

func (s *TaskStore) Update(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	t, err := s.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, s.record(err)
	}
	s.replace(*t)
	return t, nil
}

func (s *TaskStore) UpdatePriority(ctx context.Context, id int, priority models.Priority) (*models.Task, error) {
	t, err := s.api.UpdateTaskPriority(ctx, id, priority)
	if err != nil {
		return nil, s.record(err)
	}
	s.replace(*t)
	return t, nil
}

// UpdateStatus shows the new status immediately and reverts it if the
// server refuses the change.
func (s *TaskStore) UpdateStatus(ctx context.Context, id int, status models.Status) (*models.Task, error) {
	previous, known := s.setStatus(id, status, "")

	t, err := s.api.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		if known {
			s.setStatus(id, previous, status)
		}
		return nil, s.record(err)
	}
	s.replace(*t)
	return t, nil
}

// setStatus sets the status of task id in the list and the current task.
// When only is non-empty, entries whose status has since changed from it
// are left alone. It returns the list entry's prior status.
func (s *TaskStore) setStatus(id int, status, only models.Status) (models.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous models.Status
	known := false
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		if only == "" || s.tasks[i].Status == only {
			previous, known = s.tasks[i].Status, true
			s.tasks[i].Status = status
		}
	}
	if s.current != nil && s.current.ID == id && (only == "" || s.current.Status == only) {
		if !known {
			previous, known = s.current.Status, true
		}
		cur := *s.current
		cur.Status = status
		s.current = &cur
	}
	return previous, known
}

// Delete removes the task on the server, then locally.
func (s *TaskStore) Delete(ctx context.Context, id int) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return s.record(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.lastErr = nil
	return nil
}

func (s *TaskStore) replace(t models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
		}
	}
	if s.current != nil && s.current.ID == t.ID {
		cur := t
		s.current = &cur
	}
	s.lastErr = nil
}
