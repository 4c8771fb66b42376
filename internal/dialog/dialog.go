/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dialog coordinates the main window: it owns the image collection,
// opens pickers, keeps the info line and the Save button in step with the
// collection and drives the PDF build. It knows nothing about the toolkit;
// the window is reached through the View and Picker ports.
//
// All methods must be called on the UI goroutine. Build completions are
// posted back to it through the Dispatcher.
package dialog

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"

	"pdfquirk/internal/collection"
	applog "pdfquirk/internal/log"
	"pdfquirk/internal/pdfbuild"
	"pdfquirk/internal/settings"
	"pdfquirk/internal/thumbs"
)

// ErrBusy is returned for actions that are not allowed while a build runs.
var ErrBusy = errors.New("a PDF is being created")

// State of the coordinator.
type State int

const (
	Idle State = iota
	Building
)

func (s State) String() string {
	if s == Building {
		return "building"
	}
	return "idle"
}

// Info is the text of the info line. Link is set only after a successful
// save and is the file the text links to.
type Info struct {
	Text         string
	Link         string
	OpenExternal bool
}

// Picker shows file dialogs. An empty result means the user cancelled.
type Picker interface {
	OpenImages(dir string, done func(paths []string))
	SavePDF(dir string, done func(path string))
}

// View is the part of the window the coordinator updates.
type View interface {
	SetInfo(Info)
	SetSaveEnabled(bool)
	SetBusy(bool)
	Refresh()
}

// Starter launches a build in the background and calls done once when it ends.
type Starter interface {
	Start(req pdfbuild.Request, done func(ok bool, output string)) error
}

// Scanner acquires pages from a scanner and reports the image files.
type Scanner interface {
	Scan(done func(paths []string))
}

// Dispatcher runs fn on the UI goroutine.
type Dispatcher func(fn func())

// Options wires a Coordinator. Store, Picker, View and Starter are required.
type Options struct {
	Store    settings.Store
	Picker   Picker
	View     View
	Starter  Starter
	Dispatch Dispatcher
	Scanner  Scanner

	// FontHeight is the pixel height of the thumbnail label font.
	FontHeight int
	// Title and Author go into the PDF metadata.
	Title  string
	Author string
}

// Coordinator is the dialog logic.
type Coordinator struct {
	store    settings.Store
	picker   Picker
	view     View
	starter  Starter
	dispatch Dispatcher
	scanner  Scanner
	title    string
	author   string

	images   *collection.Collection
	delegate *thumbs.Delegate

	state State
	// seq identifies the running build; completions for other builds are dropped.
	seq  uint64
	info Info
	log  *slog.Logger
}

// New returns a coordinator with an empty collection and the info line set.
func New(opts Options) (*Coordinator, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("dialog: settings store is required")
	case opts.Picker == nil:
		return nil, errors.New("dialog: picker is required")
	case opts.View == nil:
		return nil, errors.New("dialog: view is required")
	case opts.Starter == nil:
		return nil, errors.New("dialog: starter is required")
	}
	d := opts.Dispatch
	if d == nil {
		d = func(fn func()) { fn() }
	}
	c := &Coordinator{
		store:    opts.Store,
		picker:   opts.Picker,
		view:     opts.View,
		starter:  opts.Starter,
		dispatch: d,
		scanner:  opts.Scanner,
		title:    opts.Title,
		author:   opts.Author,
		images:   collection.New(),
		delegate: thumbs.NewDelegate(opts.FontHeight),
		log:      applog.WithComponent("dialog"),
	}
	c.images.OnChanged(c.view.Refresh)
	c.updateInfo("")
	return c, nil
}

// Images is the collection shown in the list.
func (c *Coordinator) Images() *collection.Collection { return c.images }

// Delegate holds the thumbnail cell geometry.
func (c *Coordinator) Delegate() *thumbs.Delegate { return c.delegate }

// State reports whether a build is running.
func (c *Coordinator) State() State { return c.state }

// Info is the current info line.
func (c *Coordinator) Info() Info { return c.info }

// HasScanner reports whether scanner acquisition is available.
func (c *Coordinator) HasScanner() bool { return c.scanner != nil }

// LastDir is the directory pickers open in: the last used one or the home directory.
func (c *Coordinator) LastDir() string {
	return c.store.String(settings.LastFilePath, settings.HomeDir())
}

// AddFromFile opens the image picker. Selected files are appended in order
// and the directory of the last one is remembered.
func (c *Coordinator) AddFromFile() error {
	if c.state == Building {
		return ErrBusy
	}
	c.picker.OpenImages(c.LastDir(), c.addPicked)
	return nil
}

func (c *Coordinator) addPicked(paths []string) {
	if len(paths) == 0 {
		return
	}
	if c.state == Building {
		c.log.Warn("images dropped while building", slog.Int("count", len(paths)))
		return
	}
	c.images.AddAll(paths)
	c.updateInfo("")

	dir := filepath.Dir(paths[len(paths)-1])
	c.store.SetString(settings.LastFilePath, dir)
	if err := c.store.Sync(); err != nil {
		c.log.Error("save settings failed", slog.Any("err", err))
	}
	c.log.Debug("images added", slog.Int("added", len(paths)), slog.Int("total", c.images.Len()), slog.String("dir", dir))
}

// AddDropped appends files dropped onto the window. Paths that are not
// supported images are skipped; it returns how many were added.
func (c *Coordinator) AddDropped(paths []string) (int, error) {
	if c.state == Building {
		return 0, ErrBusy
	}
	var imgs []string
	for _, p := range paths {
		if collection.IsImage(p) {
			imgs = append(imgs, p)
		}
	}
	c.addPicked(imgs)
	return len(imgs), nil
}

// AddFromScanner asks the scanner for pages. Without a scanner it does nothing.
func (c *Coordinator) AddFromScanner() error {
	if c.state == Building {
		return ErrBusy
	}
	if c.scanner == nil {
		return nil
	}
	c.scanner.Scan(func(paths []string) {
		if len(paths) == 0 {
			return
		}
		if c.state == Building {
			c.log.Warn("scanned images dropped while building", slog.Int("count", len(paths)))
			return
		}
		c.images.AddAll(paths)
		c.updateInfo("")
	})
	return nil
}

// Save asks for a destination and starts the build. It returns before the
// build ends; BuildFinished reports the outcome.
func (c *Coordinator) Save() error {
	if c.state == Building {
		return ErrBusy
	}
	if c.images.Len() == 0 {
		return pdfbuild.ErrNoImages
	}
	c.picker.SavePDF(c.LastDir(), c.startBuild)
	return nil
}

func (c *Coordinator) startBuild(dest string) {
	if strings.TrimSpace(dest) == "" || c.state == Building {
		return
	}
	req := pdfbuild.Request{
		Files:  c.images.Files(),
		Output: EnsurePDFExt(dest),
		Title:  c.title,
		Author: c.author,
	}
	c.state = Building
	c.seq++
	seq := c.seq
	c.view.SetBusy(true)
	c.view.SetSaveEnabled(false)
	c.log.Info("build requested", slog.Int("images", len(req.Files)), slog.String("output", req.Output))

	err := c.starter.Start(req, func(ok bool, output string) {
		c.dispatch(func() { c.finish(seq, ok, output) })
	})
	if err != nil {
		c.log.Error("build not started", slog.Any("err", err))
		c.finish(seq, false, req.Output)
	}
}

// BuildFinished handles the completion of the running build.
func (c *Coordinator) BuildFinished(ok bool, output string) {
	c.finish(c.seq, ok, output)
}

func (c *Coordinator) finish(seq uint64, ok bool, output string) {
	if c.state != Building || seq != c.seq {
		c.log.Debug("stray build completion ignored", slog.Bool("ok", ok))
		return
	}
	c.state = Idle
	c.view.SetBusy(false)
	if ok {
		c.images.Clear()
		c.updateInfo(output)
		c.log.Info("pdf saved", slog.String("output", output))
		return
	}
	// The collection is kept so the user can retry.
	c.updateInfo("")
	c.log.Warn("pdf creation failed", slog.String("output", output), slog.Int("images", c.images.Len()))
}

// Accept is the default button action. It never closes the window.
func (c *Coordinator) Accept() bool { return false }

// Close reports whether the window may close; not while a build runs.
func (c *Coordinator) Close() bool { return c.state != Building }

func (c *Coordinator) updateInfo(saved string) {
	n := c.images.Len()
	if saved != "" {
		c.info = SavedInfo(saved)
	} else {
		c.info = CountInfo(n)
	}
	c.view.SetInfo(c.info)
	c.view.SetSaveEnabled(n > 0 && c.state == Idle)
}

// CountInfo is the info line for n loaded images.
func CountInfo(n int) Info {
	if n <= 0 {
		return Info{Text: "No images loaded. Load from scanner or file using the buttons above."}
	}
	return Info{Text: fmt.Sprintf("%d image(s) loaded. Press Save button to create PDF.", n)}
}

// SavedInfo is the info line after a PDF was written to path. Text is markup
// with the path escaped; Link carries the raw path.
func SavedInfo(path string) Info {
	esc := html.EscapeString(path)
	return Info{
		Text:         fmt.Sprintf(`PDF file was saved to <a href="file:%s">%s</a>`, esc, esc),
		Link:         path,
		OpenExternal: true,
	}
}

// EnsurePDFExt appends ".pdf" unless path already ends in it, in any case.
func EnsurePDFExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return path
	}
	return path + ".pdf"
}
