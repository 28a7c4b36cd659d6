package client

import (
	"errors"
	"sync"

	"taskflow/internal/models"
	"taskflow/pkg/session"
)

// SessionFile is where an AuthStore persists its session. *session.File
// satisfies it.
type SessionFile interface {
	Save(v interface{}) error
	Load(v interface{}) error
	Clear() error
}

// AuthStore holds the signed-in token and profile, mirrored to an optional
// session file so a later process starts signed in.
type AuthStore struct {
	mu      sync.RWMutex
	file    SessionFile
	session Session
}

// NewAuthStore returns an empty store. A nil file keeps the session in
// memory only.
func NewAuthStore(file SessionFile) *AuthStore {
	return &AuthStore{file: file}
}

// Load restores a previously saved session. Having none is not an error.
func (a *AuthStore) Load() error {
	if a.file == nil {
		return nil
	}
	var s Session
	err := a.file.Load(&s)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	return nil
}

func (a *AuthStore) Set(s Session) error {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	return a.persist(s)
}

// SetUser replaces the stored profile and keeps the token.
func (a *AuthStore) SetUser(u *models.User) error {
	a.mu.Lock()
	a.session.User = u
	s := a.session
	a.mu.Unlock()
	return a.persist(s)
}

func (a *AuthStore) Clear() error {
	a.mu.Lock()
	a.session = Session{}
	a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	return a.file.Clear()
}

func (a *AuthStore) persist(s Session) error {
	if a.file == nil {
		return nil
	}
	return a.file.Save(s)
}

func (a *AuthStore) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Token
}

func (a *AuthStore) User() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session.User == nil {
		return nil
	}
	u := *a.session.User
	return &u
}

func (a *AuthStore) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Token != "" && a.session.User != nil
}

func (a *AuthStore) IsAdmin() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.User != nil && a.session.User.Role == models.RoleAdmin
}
