package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// State persists the auth token and the last-synced marker. The file is
// written with owner-only permissions because it carries the token.
type State struct {
	mu   sync.Mutex
	path string
	data stateData
}

type stateData struct {
	Token      string    `yaml:"token,omitempty"`
	LastUpdate time.Time `yaml:"last_update,omitempty"`
}

// OpenState loads the state file, starting empty when it does not exist.
func OpenState(path string) (*State, error) {
	s := &State{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parsing state %q: %w", path, err)
	}

	return s, nil
}

// Token returns the stored API token, empty when logged out.
func (s *State) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.Token
}

// SetToken stores the API token and persists immediately.
func (s *State) SetToken(tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Token = tok

	return s.save()
}

// LastUpdate returns the last recorded remote change timestamp.
func (s *State) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.LastUpdate
}

// SetLastUpdate stores the last-synced marker and persists immediately.
func (s *State) SetLastUpdate(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.LastUpdate = t

	return s.save()
}

func (s *State) save() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}

	return nil
}
