package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Credentials — токен и пользователь, которому он выдан. Хранятся
// строго вместе: токен без пользователя бесполезен, пользователь без
// токена вводит в заблуждение.
type Credentials struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Store — интерфейс хранилища учётных данных.
type Store interface {
	Save(c Credentials) error
	// Load возвращает ok=false, если данных нет; ошибка — только про I/O
	Load() (Credentials, bool, error)
	Clear() error
}

// FileStore пишет JSON-файл атомарно (tmp + rename), чтобы упавший
// процесс не оставил в файле половину токена.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStorePath — ~/.pdffeed/credentials.json
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pdffeed", "credentials.json"), nil
}

func (s *FileStore) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load() (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, err
	}
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil || c.AccessToken == "" {
		// битый файл равнозначен отсутствию данных
		return Credentials{}, false, nil
	}
	return c, true, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemStore — хранилище в памяти, для тестов и недолговечных сессий.
type MemStore struct {
	mu    sync.Mutex
	creds Credentials
	ok    bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds, s.ok = c, true
	return nil
}

func (s *MemStore) Load() (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, s.ok, nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds, s.ok = Credentials{}, false
	return nil
}
