// Package session persists a value to an encrypted file between runs of a
// client process.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"taskflow/pkg/crypto"
)

// ErrNoSession is returned by Load when nothing has been saved.
var ErrNoSession = errors.New("session: none saved")

type File struct {
	path       string
	passphrase string
}

func New(path, passphrase string) *File {
	return &File{path: path, passphrase: passphrase}
}

// DefaultPath is <user config dir>/taskflow/session.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskflow", "session"), nil
}

func (f *File) Path() string {
	return f.path
}

// Save encrypts v as JSON and writes it with owner-only permissions.
func (f *File) Save(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := crypto.Encrypt(raw, f.passphrase)
	if err != nil {
		return fmt.Errorf("encrypt session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sealed), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// Load decrypts the saved session into v.
func (f *File) Load(v interface{}) error {
	sealed, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	raw, err := crypto.Decrypt(string(sealed), f.passphrase)
	if err != nil {
		return fmt.Errorf("decrypt session: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	return nil
}

// Clear removes the saved session. Clearing twice is not an error.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
