/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pdfbuild

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadJobResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.json")
	body := `{"output":"out/scan.pdf","images":["p1.png","/abs/p2.JPG"],"title":"Receipts"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	req, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if req.Output != filepath.Join(dir, "out", "scan.pdf") {
		t.Fatalf("Output = %q", req.Output)
	}
	if len(req.Files) != 2 || req.Files[0] != filepath.Join(dir, "p1.png") || req.Files[1] != "/abs/p2.JPG" {
		t.Fatalf("Files = %v", req.Files)
	}
	if req.Title != "Receipts" {
		t.Fatalf("Title = %q", req.Title)
	}
}

func TestParseJobSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing images": `{"output":"a.pdf"}`,
		"empty images":   `{"output":"a.pdf","images":[]}`,
		"not a pdf":      `{"output":"a.txt","images":["a.png"]}`,
		"bad image":      `{"output":"a.pdf","images":["a.tiff"]}`,
		"extra field":    `{"output":"a.pdf","images":["a.png"],"dpi":300}`,
	}
	for name, body := range cases {
		_, err := ParseJob([]byte(body), "", name)
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("%s: want SchemaError, got %v", name, err)
		}
		if len(se.Problems) == 0 || !strings.Contains(se.Error(), name) {
			t.Fatalf("%s: unexpected error %q", name, se.Error())
		}
	}
}
