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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable application configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// The last-used browse directory is not part of this file; it lives in the
// INI settings store (see internal/settings).
type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	Logging       LoggingConfig    `yaml:"logging"`
	Thumbnails    ThumbnailsConfig `yaml:"thumbnails"`
	PDF           PDFConfig        `yaml:"pdf"`
	Storage       StorageConfig    `yaml:"storage"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type ThumbnailsConfig struct {
	// FollowResize re-sizes thumbnail cells from the list height. Off by default.
	FollowResize bool `yaml:"follow_resize"`
}

type PDFConfig struct {
	PageSize string  `yaml:"page_size"` // "a4" | "letter" | "image"
	MarginPt float64 `yaml:"margin_pt"`
	DPI      float64 `yaml:"dpi"` // pixel density assumed by page_size "image"
	Author   string  `yaml:"author"`
}

type StorageConfig struct {
	ThumbCache         string `yaml:"thumb_cache"` // empty = <cache dir>/pdfquirk/thumbs.sqlite
	ThumbCacheMaxBytes int64  `yaml:"thumb_cache_max_bytes"`
	HistoryFile        string `yaml:"history_file"` // empty = <config dir>/pdfquirk/history.db
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Thumbnails:    ThumbnailsConfig{FollowResize: false},
		PDF:           PDFConfig{PageSize: "a4", MarginPt: 0, DPI: 72},
		Storage:       StorageConfig{ThumbCacheMaxBytes: 64 * 1024 * 1024},
	}
}

// Env var names used as overrides.
const (
	EnvPageSize     = "PDFQUIRK_PAGE_SIZE"
	EnvMarginPt     = "PDFQUIRK_MARGIN_PT"
	EnvFollowResize = "PDFQUIRK_FOLLOW_RESIZE"
	EnvThumbCache   = "PDFQUIRK_THUMB_CACHE"
	EnvHistoryFile  = "PDFQUIRK_HISTORY_FILE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PDFQUIRK_LOG_LEVEL"
	EnvLogFormat = "PDFQUIRK_LOG_FORMAT"
	EnvLogSource = "PDFQUIRK_LOG_SOURCE"
	EnvLogFile   = "PDFQUIRK_LOG_FILE"
)

const appDirName = "pdfquirk"

// Dir returns the per-user application config directory.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home := os.Getenv("HOME")
			if home == "" {
				return "", errors.New("cannot resolve config directory")
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName), nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ThumbCachePath resolves the thumbnail cache database location.
func (c AppConfig) ThumbCachePath() (string, error) {
	if p := strings.TrimSpace(c.Storage.ThumbCache); p != "" {
		return p, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, appDirName, "thumbs.sqlite"), nil
}

// HistoryPath resolves the build history database location.
func (c AppConfig) HistoryPath() (string, error) {
	if p := strings.TrimSpace(c.Storage.HistoryFile); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit file. A missing file is not an error;
// a malformed one is reported together with the defaults.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		loadErr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, loadErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg as YAML to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.ToLower(strings.TrimSpace(src.Logging.Level)); s != "" {
		dst.Logging.Level = s
	}
	if s := strings.ToLower(strings.TrimSpace(src.Logging.Format)); s != "" {
		dst.Logging.Format = s
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
	// booleans: copy directly from file so user preferences persist
	dst.Thumbnails.FollowResize = src.Thumbnails.FollowResize
	if s := strings.ToLower(strings.TrimSpace(src.PDF.PageSize)); s != "" {
		dst.PDF.PageSize = s
	}
	if src.PDF.MarginPt > 0 {
		dst.PDF.MarginPt = src.PDF.MarginPt
	}
	if src.PDF.DPI > 0 {
		dst.PDF.DPI = src.PDF.DPI
	}
	if s := strings.TrimSpace(src.PDF.Author); s != "" {
		dst.PDF.Author = s
	}
	if s := strings.TrimSpace(src.Storage.ThumbCache); s != "" {
		dst.Storage.ThumbCache = s
	}
	if src.Storage.ThumbCacheMaxBytes != 0 {
		dst.Storage.ThumbCacheMaxBytes = src.Storage.ThumbCacheMaxBytes
	}
	if s := strings.TrimSpace(src.Storage.HistoryFile); s != "" {
		dst.Storage.HistoryFile = s
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvPageSize)); v != "" {
		cfg.PDF.PageSize = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMarginPt)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.PDF.MarginPt = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFollowResize)); v != "" {
		cfg.Thumbnails.FollowResize = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvThumbCache)); v != "" {
		cfg.Storage.ThumbCache = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryFile)); v != "" {
		cfg.Storage.HistoryFile = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"pdf.page_size":            EnvPageSize,
		"pdf.margin_pt":            EnvMarginPt,
		"thumbnails.follow_resize": EnvFollowResize,
		"storage.thumb_cache":      EnvThumbCache,
		"storage.history_file":     EnvHistoryFile,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
