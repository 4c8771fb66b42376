/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package settings persists small UI preferences, currently only the last
// directory the user browsed, in an INI file at ~/.config/pdfquirkrc.
//
// Keys live in the [General] section, the layout QSettings uses for
// section-less keys, so rc files written by older pdfquirk builds keep working.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// LastFilePath is the key holding the last browsed directory.
const LastFilePath = "lastFilePath"

const section = "General"

// Store is a synchronous key-value preference store.
type Store interface {
	String(key, def string) string
	SetString(key, value string)
	Sync() error
}

// DefaultPath returns <home>/.config/pdfquirkrc.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "pdfquirkrc"), nil
}

// HomeDir returns the user's home directory, or "." if it cannot be resolved.
func HomeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

// IniStore is a Store backed by an INI file.
type IniStore struct {
	mu   sync.Mutex
	path string
	file *ini.File
}

// OpenIni loads the INI file at path. A missing file yields an empty store
// that is created on the first Sync.
func OpenIni(path string) (*IniStore, error) {
	if path == "" {
		return nil, errors.New("settings path is required")
	}
	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, Insensitive: false}, path)
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", path, err)
	}
	return &IniStore{path: path, file: f}, nil
}

// Path returns the backing file.
func (s *IniStore) Path() string { return s.path }

func (s *IniStore) String(key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return def
	}
	v := sec.Key(key).String()
	if v == "" {
		return def
	}
	return v
}

func (s *IniStore) SetString(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Section(section).Key(key).SetValue(value)
}

// Sync writes the file to disk, creating its directory when needed.
func (s *IniStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := s.file.SaveTo(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store. The zero value is ready to use.
// Syncs counts calls to Sync.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	Syncs  int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{values: map[string]string{}} }

func (m *MemoryStore) String(key, def string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok && v != "" {
		return v
	}
	return def
}

func (m *MemoryStore) SetString(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
}

func (m *MemoryStore) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Syncs++
	return nil
}
