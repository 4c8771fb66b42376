/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.PDF.PageSize != "a4" || cfg.Thumbnails.FollowResize {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestEnvOverridesPageSize(t *testing.T) {
	t.Setenv(EnvPageSize, "LETTER")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if got, want := cfg.PDF.PageSize, "letter"; got != want {
		t.Fatalf("PDF.PageSize = %q, want %q", got, want)
	}
	if env, ok := EnvOverrideFor("pdf.page_size"); !ok || env != EnvPageSize {
		t.Fatalf("EnvOverrideFor = %q,%v", env, ok)
	}
}

func TestEnvOverridesFollowResize(t *testing.T) {
	t.Setenv(EnvFollowResize, "yes")
	cfg, _ := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if !cfg.Thumbnails.FollowResize {
		t.Fatalf("Thumbnails.FollowResize expected true from env override")
	}
}

func TestSaveAndLoadRoundTripViaHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	cfg := Defaults()
	cfg.PDF.PageSize = "image"
	cfg.PDF.MarginPt = 18
	cfg.Thumbnails.FollowResize = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	path, _ := ConfigPath()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.PDF.PageSize != "image" || got.PDF.MarginPt != 18 || !got.Thumbnails.FollowResize {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}

func TestLoadFromMalformedFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("pdf: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.PDF.PageSize != "a4" {
		t.Fatalf("defaults not kept on parse error: %#v", cfg.PDF)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/pdfquirk.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pdfquirk.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestStoragePathsHonourOverrides(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.ThumbCache = "/x/thumbs.sqlite"
	cfg.Storage.HistoryFile = "/x/history.db"
	if p, _ := cfg.ThumbCachePath(); p != "/x/thumbs.sqlite" {
		t.Fatalf("ThumbCachePath = %q", p)
	}
	if p, _ := cfg.HistoryPath(); p != "/x/history.db" {
		t.Fatalf("HistoryPath = %q", p)
	}
}
