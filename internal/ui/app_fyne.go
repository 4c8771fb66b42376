//go:build fyne && cgo

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
	"context"
	"errors"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	fdialog "fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pdfquirk/internal/crash"
	"pdfquirk/internal/dialog"
	applog "pdfquirk/internal/log"
	"pdfquirk/internal/thumbs"
)

// Available reports whether this binary contains the desktop UI.
const Available = true

// Run opens the PDF Quirk window and blocks until it is closed.
func Run(ctx context.Context, opts Options) error {
	l := applog.WithComponent("ui")
	defer crash.Recover()
	if opts.Settings == nil || opts.Builder == nil {
		return errors.New("ui: settings and builder are required")
	}
	l.Info("starting UI")

	fyneApp := app.NewWithID("de.freisturz.pdfquirk")
	w := fyneApp.NewWindow("PDF Quirk")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(
		float32(max(prefs.IntWithFallback("window.width", 640), 480)),
		float32(max(prefs.IntWithFallback("window.height", 420), 320)),
	))

	fontHeight := labelFontHeight()
	view := newWindowView()
	coord, err := dialog.New(dialog.Options{
		Store:      opts.Settings,
		Picker:     filePicker{w: w},
		View:       view,
		Starter:    dialog.CreatorStarter{Builder: opts.Builder, Ctx: ctx},
		Dispatch:   fyne.Do,
		Scanner:    opts.Scanner,
		FontHeight: fontHeight,
		Author:     opts.Config.PDF.Author,
	})
	if err != nil {
		return err
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = thumbs.NewRenderer(nil)
	}
	list := newThumbList(coord, renderer, fontHeight)
	view.list = list.grid
	coord.Images().OnChanged(func() {
		if coord.Images().Len() == 0 {
			list.forget()
		}
	})

	report := func(err error) {
		if err == nil {
			return
		}
		if errors.Is(err, dialog.ErrBusy) {
			fdialog.ShowInformation("PDF Quirk", "A PDF is being created. Please wait until it is finished.", w)
			return
		}
		fdialog.ShowError(err, w)
	}

	addFile := widget.NewButtonWithIcon("Add from File…", theme.FolderOpenIcon(), func() { report(coord.AddFromFile()) })
	addScan := widget.NewButtonWithIcon("Add from Scanner…", theme.MediaRecordIcon(), func() { report(coord.AddFromScanner()) })
	if !coord.HasScanner() {
		addScan.Disable()
	}
	save := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() { report(coord.Save()) })
	save.Importance = widget.HighImportance
	view.save = save
	// Buttons were created after the coordinator set its initial state.
	view.SetSaveEnabled(coord.Images().Len() > 0)
	view.SetInfo(coord.Info())

	requestClose := func() {
		if !coord.Close() {
			report(dialog.ErrBusy)
			return
		}
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.SetCloseIntercept(nil)
		w.Close()
	}
	closeBtn := widget.NewButtonWithIcon("Close", theme.CancelIcon(), requestClose)
	w.SetCloseIntercept(requestClose)

	var listArea fyne.CanvasObject
	if opts.Config.Thumbnails.FollowResize {
		catcher := thumbs.NewSizeCatcher(func(c thumbs.CellSize) {
			coord.Delegate().SetSize(c)
			list.resize()
		})
		listArea = container.New(&heightWatcher{onHeight: catcher.Resized}, list.grid)
	} else {
		listArea = container.New(&fixedHeight{h: float32(thumbs.ListHeight(coord.Delegate().SizeHint()))}, list.grid)
	}

	top := container.NewHBox(addFile, addScan, layout.NewSpacer())
	bottom := container.NewVBox(
		view.info,
		view.progress,
		container.NewHBox(layout.NewSpacer(), closeBtn, save),
	)
	if opts.Config.Thumbnails.FollowResize {
		w.SetContent(container.NewBorder(top, bottom, nil, nil, listArea))
	} else {
		w.SetContent(container.NewVBox(top, listArea, layout.NewSpacer(), bottom))
	}

	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		paths := make([]string, len(uris))
		for i, u := range uris {
			paths[i] = u.Path()
		}
		n, err := coord.AddDropped(paths)
		report(err)
		l.Debug("files dropped", slog.Int("dropped", len(paths)), slog.Int("added", n))
	})
	// Enter is the dialog's default action; it must not close the window.
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if ev.Name == fyne.KeyReturn || ev.Name == fyne.KeyEnter {
				_ = coord.Accept()
			}
		})
	}

	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// thumbList is the horizontal thumbnail grid. Thumbnails render on
// goroutines and are applied with fyne.Do.
type thumbList struct {
	coord      *dialog.Coordinator
	renderer   *thumbs.Renderer
	fontHeight int
	grid       *widget.GridWrap

	// UI goroutine only.
	shown map[*canvas.Image]string
	res   map[string]fyne.Resource
}

func newThumbList(coord *dialog.Coordinator, r *thumbs.Renderer, fontHeight int) *thumbList {
	tl := &thumbList{
		coord:      coord,
		renderer:   r,
		fontHeight: fontHeight,
		shown:      map[*canvas.Image]string{},
		res:        map[string]fyne.Resource{},
	}
	tl.grid = widget.NewGridWrap(
		func() int { return coord.Images().Len() },
		tl.createCell,
		tl.updateCell,
	)
	return tl
}

func (tl *thumbList) thumbSize() fyne.Size {
	ts := tl.coord.Delegate().ThumbSize(tl.fontHeight)
	return fyne.NewSize(float32(ts.W), float32(ts.H))
}

func (tl *thumbList) createCell() fyne.CanvasObject {
	img := canvas.NewImageFromResource(theme.FileImageIcon())
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(tl.thumbSize())
	lbl := widget.NewLabel("")
	lbl.Alignment = fyne.TextAlignCenter
	lbl.Truncation = fyne.TextTruncateEllipsis
	return container.NewBorder(nil, lbl, nil, nil, img)
}

func (tl *thumbList) updateCell(id widget.GridWrapItemID, obj fyne.CanvasObject) {
	path, ok := tl.coord.Images().At(id)
	if !ok {
		return
	}
	c := obj.(*fyne.Container)
	img := c.Objects[0].(*canvas.Image)
	lbl := c.Objects[1].(*widget.Label)
	lbl.SetText(thumbs.Label(path))
	img.SetMinSize(tl.thumbSize())
	tl.shown[img] = path

	if res, ok := tl.res[path]; ok {
		img.Resource = res
		img.Refresh()
		return
	}
	img.Resource = theme.FileImageIcon()
	img.Refresh()

	ts := tl.coord.Delegate().ThumbSize(tl.fontHeight)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		b, err := tl.renderer.Thumbnail(ctx, path, ts.W, ts.H)
		if err != nil {
			applog.WithComponent("ui").Warn("thumbnail failed", slog.String("file", path), slog.Any("err", err))
			return
		}
		res := fyne.NewStaticResource(thumbs.Label(path), b)
		fyne.Do(func() {
			tl.res[path] = res
			if tl.shown[img] == path {
				img.Resource = res
				img.Refresh()
			}
		})
	}()
}

// resize applies a new cell size from the delegate.
func (tl *thumbList) resize() {
	tl.res = map[string]fyne.Resource{}
	tl.grid.Refresh()
}

// forget drops rendered thumbnails once the list is empty.
func (tl *thumbList) forget() {
	tl.res = map[string]fyne.Resource{}
	tl.shown = map[*canvas.Image]string{}
	tl.renderer.Forget()
}

var (
	_ dialog.View   = (*windowView)(nil)
	_ dialog.Picker = filePicker{}
)
