//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"math"
	"net/url"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	fdialog "fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pdfquirk/internal/collection"
	"pdfquirk/internal/dialog"
)

// windowView implements dialog.View on fyne widgets.
type windowView struct {
	info     *widget.RichText
	save     *widget.Button
	progress *widget.ProgressBarInfinite
	list     fyne.Widget
}

func newWindowView() *windowView {
	info := widget.NewRichText()
	info.Wrapping = fyne.TextWrapWord
	progress := widget.NewProgressBarInfinite()
	progress.Stop()
	progress.Hide()
	return &windowView{info: info, progress: progress}
}

func (v *windowView) SetInfo(i dialog.Info) {
	v.info.Segments = infoSegments(i)
	v.info.Refresh()
}

func (v *windowView) SetSaveEnabled(on bool) {
	if v.save == nil {
		return
	}
	if on {
		v.save.Enable()
	} else {
		v.save.Disable()
	}
}

func (v *windowView) SetBusy(busy bool) {
	if busy {
		v.progress.Show()
		v.progress.Start()
		return
	}
	v.progress.Stop()
	v.progress.Hide()
}

func (v *windowView) Refresh() {
	if v.list != nil {
		v.list.Refresh()
	}
}

// infoSegments renders the info line. A saved file becomes a clickable file: link.
func infoSegments(i dialog.Info) []widget.RichTextSegment {
	if i.Link == "" || !i.OpenExternal {
		return []widget.RichTextSegment{&widget.TextSegment{Text: i.Text, Style: widget.RichTextStyleInline}}
	}
	prefix := i.Text
	if n := strings.Index(prefix, "<a "); n >= 0 {
		prefix = prefix[:n]
	}
	return []widget.RichTextSegment{
		&widget.TextSegment{Text: prefix, Style: widget.RichTextStyleInline},
		&widget.HyperlinkSegment{Text: i.Link, URL: &url.URL{Scheme: "file", Path: i.Link}},
	}
}

// filePicker implements dialog.Picker with fyne file dialogs.
type filePicker struct {
	w fyne.Window
}

// OpenImages picks one image per call; fyne's open dialog has no
// multi-selection. Several files at once are added by dropping them on the window.
func (p filePicker) OpenImages(dir string, done func([]string)) {
	fd := fdialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			fdialog.ShowError(err, p.w)
			done(nil)
			return
		}
		if rc == nil {
			done(nil)
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		done([]string{path})
	}, p.w)
	fd.SetFilter(fstorage.NewExtensionFileFilter(collection.Extensions))
	setLocation(fd, dir)
	fd.Resize(fyne.NewSize(800, 560))
	fd.Show()
}

func (p filePicker) SavePDF(dir string, done func(string)) {
	fd := fdialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			fdialog.ShowError(err, p.w)
			done("")
			return
		}
		if wc == nil {
			done("")
			return
		}
		done(releaseSaveTarget(wc))
	}, p.w)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
	fd.SetFileName("scan.pdf")
	setLocation(fd, dir)
	fd.Resize(fyne.NewSize(800, 560))
	fd.Show()
}

// releaseSaveTarget closes the writer the save dialog opened and removes the
// empty placeholder file it created at the chosen path. The builder writes
// the destination itself and a failed build must leave nothing there.
func releaseSaveTarget(wc fyne.URIWriteCloser) string {
	path := wc.URI().Path()
	_ = wc.Close()
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() && fi.Size() == 0 {
		_ = os.Remove(path)
	}
	return path
}

func setLocation(fd *fdialog.FileDialog, dir string) {
	if dir == "" {
		return
	}
	if lister, err := fstorage.ListerForURI(fstorage.NewFileURI(dir)); err == nil {
		fd.SetLocation(lister)
	}
}

// labelFontHeight measures the label font like the list will draw it.
func labelFontHeight() int {
	s := fyne.MeasureText("Ag", theme.TextSize(), fyne.TextStyle{})
	return int(math.Ceil(float64(s.Height)))
}

// fixedHeight gives its content a fixed minimum height.
type fixedHeight struct {
	h float32
}

func (f *fixedHeight) Layout(objs []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objs {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
}

func (f *fixedHeight) MinSize(objs []fyne.CanvasObject) fyne.Size {
	var w float32
	for _, o := range objs {
		w = max(w, o.MinSize().Width)
	}
	return fyne.NewSize(w, f.h)
}

// heightWatcher fills its content and reports the height it was given.
type heightWatcher struct {
	onHeight func(int)
}

func (h *heightWatcher) Layout(objs []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objs {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if h.onHeight != nil {
		h.onHeight(int(size.Height))
	}
}

func (h *heightWatcher) MinSize(objs []fyne.CanvasObject) fyne.Size {
	var s fyne.Size
	for _, o := range objs {
		s = s.Max(o.MinSize())
	}
	return s
}
