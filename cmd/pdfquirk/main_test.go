/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfquirk/internal/ui"
)

// executeCommandC executes a cobra command and captures its output.
func executeCommandC(root *cobra.Command, args ...string) (string, string, error) {
	actualStdout := new(bytes.Buffer)
	actualStderr := new(bytes.Buffer)
	root.SetOut(actualStdout)
	root.SetErr(actualStderr)
	root.SetArgs(args)

	err := root.Execute()

	return actualStdout.String(), actualStderr.String(), err
}

// isolate points every per-user path into a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("PDFQUIRK_HISTORY_FILE", filepath.Join(dir, "history.db"))
	t.Setenv("PDFQUIRK_LOG_LEVEL", "error")
	return dir
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 20, 30))))
}

func TestRootHelp(t *testing.T) {
	isolate(t)
	stdout, stderr, err := executeCommandC(NewRootCmd(), "--help")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "pdfquirk [command]")
	assert.Contains(t, stdout, "build")
	assert.Contains(t, stdout, "history")
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	stdout, _, err := executeCommandC(NewRootCmd(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "PDF Quirk "), stdout)
}

func TestBuildAndHistory(t *testing.T) {
	dir := isolate(t)
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeImage(t, a)
	writeImage(t, b)
	out := filepath.Join(dir, "out.pdf")

	stdout, stderr, err := executeCommandC(NewRootCmd(), "build", "-o", out, "--title", "Test", a, b)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, out, strings.TrimSpace(stdout))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, _, err = executeCommandC(NewRootCmd(), "build", "-o", filepath.Join(dir, "bad.pdf"), filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "bad.pdf"))

	stdout, _, err = executeCommandC(NewRootCmd(), "history", "-n", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3, stdout)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "failed")
	assert.Contains(t, lines[2], "ok")
	assert.Contains(t, lines[2], out)
}

func TestBuildFromJob(t *testing.T) {
	dir := isolate(t)
	writeImage(t, filepath.Join(dir, "p1.png"))
	job := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(job, []byte(`{"output":"job.pdf","images":["p1.png","p1.png"]}`), 0o644))

	stdout, _, err := executeCommandC(NewRootCmd(), "build", "--job", job, "--no-history")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job.pdf"), strings.TrimSpace(stdout))
	assert.NoFileExists(t, filepath.Join(dir, "history.db"))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"output":"x.pdf","images":[]}`), 0o644))
	_, _, err = executeCommandC(NewRootCmd(), "build", "--job", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images")
}

func TestBuildArgumentErrors(t *testing.T) {
	isolate(t)
	_, _, err := executeCommandC(NewRootCmd(), "build", "-o", "x.pdf")
	assert.EqualError(t, err, "no images given")
	_, _, err = executeCommandC(NewRootCmd(), "build", "a.png")
	assert.EqualError(t, err, "--output is required")
	_, _, err = executeCommandC(NewRootCmd(), "build", "--job", "j.json", "a.png")
	assert.Error(t, err)
}

func TestHistoryEmpty(t *testing.T) {
	isolate(t)
	stdout, _, err := executeCommandC(NewRootCmd(), "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No builds recorded yet.")
}

func TestUICommandWithoutUI(t *testing.T) {
	if ui.Available {
		t.Skip("desktop UI compiled in")
	}
	isolate(t)
	_, _, err := executeCommandC(NewRootCmd(), "ui")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UI not built")
}
