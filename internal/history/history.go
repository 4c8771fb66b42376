/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps a log of PDF builds in a BoltDB file.
package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	applog "pdfquirk/internal/log"
	"pdfquirk/internal/pdfbuild"
)

const buildsBucket = "Builds"

// Record is one finished build.
type Record struct {
	ID       uint64        `json:"id"`
	Output   string        `json:"output"`
	Images   int           `json:"images"`
	Pages    int           `json:"pages"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Store is the build history database.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the history file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(buildsBucket)); err != nil {
			return fmt.Errorf("create bucket %s: %w", buildsBucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add stores rec under the next sequence number and returns that id.
func (s *Store) Add(rec Record) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(buildsBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = seq
		rec.ID = seq
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
	if err != nil {
		return 0, fmt.Errorf("add history record: %w", err)
	}
	return id, nil
}

// Recent returns up to n records, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(buildsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, rec)
			if n > 0 && len(out) >= n {
				break
			}
		}
		return nil
	})
	return out, err
}

// itob encodes ids big-endian so cursor order is insertion order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Recording wraps a Builder and stores a Record for every build.
type Recording struct {
	Next  pdfbuild.Builder
	Store *Store
}

// Build runs the wrapped builder and records the outcome. A failure to write
// the record is logged and does not change the build result.
func (r Recording) Build(ctx context.Context, req pdfbuild.Request) (pdfbuild.Result, error) {
	start := time.Now()
	res, err := r.Next.Build(ctx, req)
	if r.Store == nil {
		return res, err
	}
	rec := Record{
		Output:   req.Output,
		Images:   len(req.Files),
		Pages:    res.Pages,
		OK:       err == nil,
		Started:  start.UTC(),
		Duration: time.Since(start),
	}
	if res.Output != "" {
		rec.Output = res.Output
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if _, herr := r.Store.Add(rec); herr != nil {
		applog.WithComponent("history").WarnContext(ctx, "record build failed", slog.Any("err", herr))
	}
	return res, err
}
