// Package memory is an in-process Store used for local development and
// tests. Transactions run against a copy of the data that replaces the
// live copy only when the transaction succeeds.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/repository"
)

type taskRow struct {
	ID           int
	Title        string
	Description  *string
	Status       models.Status
	Priority     models.Priority
	AssignedToID *int
	CreatedByID  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type state struct {
	users    map[int]models.User
	tasks    map[int]taskRow
	comments map[int]models.Comment
	lastID   int
}

func newState() *state {
	return &state{
		users:    map[int]models.User{},
		tasks:    map[int]taskRow{},
		comments: map[int]models.Comment{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[int]models.User, len(s.users)),
		tasks:    make(map[int]taskRow, len(s.tasks)),
		comments: make(map[int]models.Comment, len(s.comments)),
		lastID:   s.lastID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	return c
}

func (s *state) nextID() int {
	s.lastID++
	return s.lastID
}

type Store struct {
	mu    sync.Mutex
	data  *state
	clock func() time.Time
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState(), clock: time.Now}
}

// WithClock replaces the time source, mostly for deterministic ordering in
// tests.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

func (s *Store) view() view {
	return view{s: s.data, now: s.clock}
}

// InTx must not call methods on s itself from within fn; use q.
func (s *Store) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(view{s: snapshot, now: s.clock}); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListTasks(ctx, filter)
}

func (s *Store) FindTask(ctx context.Context, id int, scope models.Scope) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindTask(ctx, id, scope)
}

func (s *Store) TaskVisible(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().TaskVisible(ctx, id, scope)
}

func (s *Store) LockTask(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().LockTask(ctx, id, scope)
}

func (s *Store) CreateTask(ctx context.Context, t models.NewTask) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateTask(ctx, t)
}

func (s *Store) UpdateTask(ctx context.Context, id int, p models.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateTask(ctx, id, p)
}

func (s *Store) DeleteTask(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteTask(ctx, id)
}

func (s *Store) ListComments(ctx context.Context, taskID int) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListComments(ctx, taskID)
}

func (s *Store) FindComment(ctx context.Context, id int) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindComment(ctx, id)
}

func (s *Store) LockComment(ctx context.Context, id int) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().LockComment(ctx, id)
}

func (s *Store) CreateComment(ctx context.Context, c models.NewComment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateComment(ctx, c)
}

func (s *Store) UpdateComment(ctx context.Context, id int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateComment(ctx, id, content)
}

func (s *Store) DeleteComment(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteComment(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListUsers(ctx)
}

func (s *Store) FindUserByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindUserByID(ctx, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindUserByEmail(ctx, email)
}

func (s *Store) CreateUser(ctx context.Context, u models.NewUser) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateUser(ctx, u)
}

// view implements repository.Queries over one state without locking.
type view struct {
	s   *state
	now func() time.Time
}

func (v view) summary(id int, withEmail bool) *models.UserSummary {
	u, ok := v.s.users[id]
	if !ok {
		return nil
	}
	sum := &models.UserSummary{ID: u.ID, Name: u.Name}
	if withEmail {
		sum.Email = u.Email
	}
	return sum
}

func (v view) joinComment(c models.Comment) models.Comment {
	c.Author = v.summary(c.AuthorID, false)
	return c
}

func (v view) commentsOf(taskID int) []models.Comment {
	out := []models.Comment{}
	for _, c := range v.s.comments {
		if c.TaskID == taskID {
			out = append(out, v.joinComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (v view) join(r taskRow) models.Task {
	t := models.Task{
		ID:           r.ID,
		Title:        r.Title,
		Description:  copyString(r.Description),
		Status:       r.Status,
		Priority:     r.Priority,
		AssignedToID: copyInt(r.AssignedToID),
		CreatedByID:  r.CreatedByID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CreatedBy:    v.summary(r.CreatedByID, false),
		Comments:     v.commentsOf(r.ID),
	}
	if r.AssignedToID != nil {
		t.AssignedTo = v.summary(*r.AssignedToID, true)
	}
	return t
}

func matchesSearch(r taskRow, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(r.Title), term) {
		return true
	}
	return r.Description != nil && strings.Contains(strings.ToLower(*r.Description), term)
}

func (v view) ListTasks(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	rows := []taskRow{}
	for _, r := range v.s.tasks {
		if !f.Scope.Includes(r.AssignedToID) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Priority != "" && r.Priority != f.Priority {
			continue
		}
		if f.Search != "" && !matchesSearch(r, f.Search) {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, v.join(r))
	}
	return tasks, nil
}

func (v view) lookup(id int, scope models.Scope) (taskRow, error) {
	r, ok := v.s.tasks[id]
	if !ok || !scope.Includes(r.AssignedToID) {
		return taskRow{}, repository.ErrNotFound
	}
	return r, nil
}

func (v view) FindTask(_ context.Context, id int, scope models.Scope) (*models.Task, error) {
	r, err := v.lookup(id, scope)
	if err != nil {
		return nil, err
	}
	t := v.join(r)
	return &t, nil
}

func (v view) TaskVisible(_ context.Context, id int, scope models.Scope) (models.TaskRef, error) {
	r, err := v.lookup(id, scope)
	if err != nil {
		return models.TaskRef{}, err
	}
	return models.TaskRef{ID: r.ID, AssignedToID: copyInt(r.AssignedToID)}, nil
}

// LockTask is TaskVisible: the store mutex already serialises transactions.
func (v view) LockTask(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error) {
	return v.TaskVisible(ctx, id, scope)
}

func (v view) userExists(id *int) bool {
	if id == nil {
		return true
	}
	_, ok := v.s.users[*id]
	return ok
}

func (v view) CreateTask(_ context.Context, t models.NewTask) (int, error) {
	if !v.userExists(t.AssignedToID) || !v.userExists(&t.CreatedByID) {
		return 0, repository.ErrInvalidReference
	}
	now := v.now()
	r := taskRow{
		ID:           v.s.nextID(),
		Title:        t.Title,
		Description:  copyString(t.Description),
		Status:       t.Status,
		Priority:     t.Priority,
		AssignedToID: copyInt(t.AssignedToID),
		CreatedByID:  t.CreatedByID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	v.s.tasks[r.ID] = r
	return r.ID, nil
}

func (v view) UpdateTask(_ context.Context, id int, p models.TaskPatch) error {
	r, ok := v.s.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = copyString(p.Description)
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.AssignedToID.Set {
		ref := p.AssignedToID.Ptr()
		if !v.userExists(ref) {
			return repository.ErrInvalidReference
		}
		r.AssignedToID = ref
	}
	r.UpdatedAt = v.now()
	v.s.tasks[id] = r
	return nil
}

func (v view) DeleteTask(_ context.Context, id int) error {
	if _, ok := v.s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range v.s.comments {
		if c.TaskID == id {
			delete(v.s.comments, cid)
		}
	}
	delete(v.s.tasks, id)
	return nil
}

func (v view) ListComments(_ context.Context, taskID int) ([]models.Comment, error) {
	return v.commentsOf(taskID), nil
}

func (v view) FindComment(_ context.Context, id int) (*models.Comment, error) {
	c, ok := v.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	joined := v.joinComment(c)
	return &joined, nil
}

func (v view) LockComment(_ context.Context, id int) (*models.Comment, error) {
	c, ok := v.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (v view) CreateComment(_ context.Context, nc models.NewComment) (int, error) {
	if _, ok := v.s.tasks[nc.TaskID]; !ok {
		return 0, repository.ErrInvalidReference
	}
	if !v.userExists(&nc.AuthorID) {
		return 0, repository.ErrInvalidReference
	}
	c := models.Comment{
		ID:        v.s.nextID(),
		Content:   nc.Content,
		TaskID:    nc.TaskID,
		AuthorID:  nc.AuthorID,
		CreatedAt: v.now(),
	}
	v.s.comments[c.ID] = c
	return c.ID, nil
}

func (v view) UpdateComment(_ context.Context, id int, content string) error {
	c, ok := v.s.comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Content = content
	v.s.comments[id] = c
	return nil
}

func (v view) DeleteComment(_ context.Context, id int) error {
	if _, ok := v.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(v.s.comments, id)
	return nil
}

func (v view) ListUsers(_ context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(v.s.users))
	for _, u := range v.s.users {
		u.PasswordHash = ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (v view) FindUserByID(_ context.Context, id int) (*models.User, error) {
	u, ok := v.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (v view) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	for _, u := range v.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v view) CreateUser(ctx context.Context, nu models.NewUser) (int, error) {
	if _, err := v.FindUserByEmail(ctx, nu.Email); err == nil {
		return 0, repository.ErrConflict
	}
	now := v.now()
	u := models.User{
		ID:           v.s.nextID(),
		Name:         nu.Name,
		Email:        normalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	v.s.users[u.ID] = u
	return u.ID, nil
}
