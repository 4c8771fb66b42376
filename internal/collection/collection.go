/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package collection holds the ordered list of images queued for the next PDF.
// Insertion order is display order and page order. Duplicates are kept.
package collection

import (
	"path/filepath"
	"strings"
	"sync"
)

// Extensions accepted by the image pickers.
var Extensions = []string{".png", ".jpeg", ".jpg"}

// IsImage reports whether p has one of Extensions (case-insensitive).
func IsImage(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Collection is an ordered sequence of image paths.
// Listeners registered with OnChanged run after every mutation, outside the lock.
type Collection struct {
	mu        sync.RWMutex
	files     []string
	listeners []func()
}

func New() *Collection { return &Collection{} }

// Add appends one path.
func (c *Collection) Add(path string) {
	c.mu.Lock()
	c.files = append(c.files, path)
	c.mu.Unlock()
	c.notify()
}

// AddAll appends paths in order and notifies once. It returns the new length.
func (c *Collection) AddAll(paths []string) int {
	if len(paths) == 0 {
		return c.Len()
	}
	c.mu.Lock()
	c.files = append(c.files, paths...)
	n := len(c.files)
	c.mu.Unlock()
	c.notify()
	return n
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// At returns the path at index i.
func (c *Collection) At(i int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.files) {
		return "", false
	}
	return c.files[i], true
}

// Files returns a snapshot copy of the paths.
func (c *Collection) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.files))
	copy(out, c.files)
	return out
}

// Clear drops all entries.
func (c *Collection) Clear() {
	c.mu.Lock()
	c.files = nil
	c.mu.Unlock()
	c.notify()
}

// OnChanged registers fn to be called after each mutation.
func (c *Collection) OnChanged(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Collection) notify() {
	c.mu.RLock()
	ls := append([]func(){}, c.listeners...)
	c.mu.RUnlock()
	for _, fn := range ls {
		fn()
	}
}
