package cursor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// State is the last conversation the poller handed out.
type State struct {
	ConversationID string    `json:"conversation_id"`
	SeenAt         time.Time `json:"seen_at"`
}

type Repository interface {
	Load() (State, error)
	Save(state State) error
}

type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

// Load returns the zero State for an empty or unreadable file.
func (r *FileRepository) Load() (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return State{}, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	var st State
	if err := json.NewDecoder(f).Decode(&st); err != nil {
		return State{}, nil
	}
	return st, nil
}

func (r *FileRepository) Save(state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MemoryRepository keeps the cursor for the life of the process only.
type MemoryRepository struct {
	mu    sync.Mutex
	state State
}

func (m *MemoryRepository) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryRepository) Save(state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	return nil
}
