//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"os"
	"path/filepath"
	"testing"

	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"

	"pdfquirk/internal/dialog"
)

func TestReleaseSaveTarget_RemovesPlaceholder(t *testing.T) {
	test.NewTempApp(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out")

	wc, err := fstorage.Writer(fstorage.NewFileURI(path))
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	got := releaseSaveTarget(wc)
	if got != path {
		t.Fatalf("path = %q, want %q", got, path)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("placeholder still on disk: %v", err)
	}
	// The build target gets the extension; nothing is left under the typed name.
	if out := dialog.EnsurePDFExt(got); out != path+".pdf" {
		t.Fatalf("EnsurePDFExt = %q", out)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("dir not empty: %v", entries)
	}
}

func TestReleaseSaveTarget_KeepsWrittenFile(t *testing.T) {
	test.NewTempApp(t)
	path := filepath.Join(t.TempDir(), "keep.pdf")

	wc, err := fstorage.Writer(fstorage.NewFileURI(path))
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if _, err := wc.Write([]byte("%PDF-1.3")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	releaseSaveTarget(wc)
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("written file removed: %v", err)
	}
}
