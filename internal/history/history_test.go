/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pdfquirk/internal/pdfbuild"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestAddAndRecentNewestFirst(t *testing.T) {
	s, path := openTestStore(t)
	for i, out := range []string{"/a.pdf", "/b.pdf", "/c.pdf"} {
		id, err := s.Add(Record{Output: out, Pages: i + 1, OK: true})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if id != uint64(i+1) {
			t.Fatalf("id = %d, want %d", id, i+1)
		}
	}
	recs, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].Output != "/c.pdf" || recs[1].Output != "/b.pdf" {
		t.Fatalf("Recent(2) = %+v", recs)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Records survive reopening.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	all, err := s2.Recent(0)
	if err != nil || len(all) != 3 || all[2].ID != 1 {
		t.Fatalf("Recent(0) = %+v, %v", all, err)
	}
}

type stubBuilder struct{ err error }

func (b stubBuilder) Build(_ context.Context, req pdfbuild.Request) (pdfbuild.Result, error) {
	if b.err != nil {
		return pdfbuild.Result{}, b.err
	}
	return pdfbuild.Result{Output: req.Output, Pages: len(req.Files)}, nil
}

func TestRecordingStoresOutcome(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()
	ctx := context.Background()
	req := pdfbuild.Request{Files: []string{"/1.png", "/2.png"}, Output: "/out.pdf"}

	if _, err := (Recording{Next: stubBuilder{}, Store: s}).Build(ctx, req); err != nil {
		t.Fatalf("Build: %v", err)
	}
	boom := errors.New("disk full")
	if _, err := (Recording{Next: stubBuilder{err: boom}, Store: s}).Build(ctx, req); !errors.Is(err, boom) {
		t.Fatalf("want wrapped builder error, got %v", err)
	}

	recs, err := s.Recent(0)
	if err != nil || len(recs) != 2 {
		t.Fatalf("Recent = %+v, %v", recs, err)
	}
	if recs[0].OK || recs[0].Error != "disk full" || recs[0].Images != 2 {
		t.Fatalf("failed record = %+v", recs[0])
	}
	if !recs[1].OK || recs[1].Pages != 2 || recs[1].Output != "/out.pdf" {
		t.Fatalf("ok record = %+v", recs[1])
	}
}
