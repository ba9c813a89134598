// Package state persists per-book reading positions and application settings
// under the XDG base directories.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	appName       = "rsvp"
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// ReadingState stores position for a single book
type ReadingState struct {
	WordIndex int       `json:"word_index"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store manages persistent reading state
type Store struct {
	path string
	data map[string]ReadingState
	mu   sync.RWMutex
}

// NewStore creates or loads state from XDG_STATE_HOME/rsvp/
func NewStore() (*Store, error) {
	dir := stateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ReadingState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]ReadingState)
	}
	return store, nil
}

// stateDir returns XDG_STATE_HOME/rsvp or ~/.local/state/rsvp
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appName)
}

// ComputeHash generates content hash for file identity
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil // First 16 bytes = 32 hex chars
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// GetPosition returns saved position for a book, or 0 if not found
func (s *Store) GetPosition(hash string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.data[hash]; ok {
		return state.WordIndex
	}
	return 0
}

// SetPosition saves position for a book
func (s *Store) SetPosition(hash, title string, wordIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash] = ReadingState{
		WordIndex: wordIndex,
		Title:     title,
		UpdatedAt: time.Now().UTC(),
	}
	return s.save()
}

// Clear removes saved position for a book
func (s *Store) Clear(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, hash)
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
