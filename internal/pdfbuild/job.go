/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pdfbuild

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed job.schema.json
var jobSchema []byte

// SchemaError lists the violations of a job file.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid job file %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

type jobFile struct {
	Output string   `json:"output"`
	Images []string `json:"images"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
}

// LoadJob reads a JSON job file, validates it and returns the Request it
// describes. Relative paths resolve against the job file's directory.
func LoadJob(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read job: %w", err)
	}
	return ParseJob(data, filepath.Dir(path), path)
}

// ParseJob validates data against the job schema. baseDir resolves relative
// paths; name is used in error messages.
func ParseJob(data []byte, baseDir, name string) (Request, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(jobSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Request{}, fmt.Errorf("validate job %s: %w", name, err)
	}
	if !result.Valid() {
		se := &SchemaError{Path: name}
		for _, e := range result.Errors() {
			se.Problems = append(se.Problems, e.String())
		}
		return Request{}, se
	}
	var jf jobFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return Request{}, fmt.Errorf("decode job %s: %w", name, err)
	}
	req := Request{Output: resolve(baseDir, jf.Output), Title: jf.Title, Author: jf.Author}
	for _, img := range jf.Images {
		req.Files = append(req.Files, resolve(baseDir, img))
	}
	return req, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
