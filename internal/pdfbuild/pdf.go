/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pdfbuild turns an ordered list of images into a multi-page PDF,
// one image per page.
package pdfbuild

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"

	applog "pdfquirk/internal/log"
	"pdfquirk/internal/version"
)

var (
	ErrNoImages = errors.New("no images to build")
	ErrNoOutput = errors.New("output path is required")
)

// Request is one build: the ordered image paths and the destination file.
type Request struct {
	Files  []string
	Output string
	Title  string
	Author string
}

// Result describes a finished build.
type Result struct {
	Output   string
	Pages    int
	Duration time.Duration
}

// Builder writes the PDF for a Request.
type Builder interface {
	Build(ctx context.Context, req Request) (Result, error)
}

// PageSize selects how pages are sized.
type PageSize string

const (
	PageA4     PageSize = "a4"
	PageLetter PageSize = "letter"
	// PageImage sizes each page to its image at Options.DPI.
	PageImage PageSize = "image"
)

var paperSizes = map[PageSize]gofpdf.SizeType{
	PageA4:     {Wd: 595.28, Ht: 841.89},
	PageLetter: {Wd: 612, Ht: 792},
}

// Options controls page geometry. Units are points.
type Options struct {
	PageSize PageSize
	MarginPt float64
	DPI      float64
	Author   string
}

// PDFBuilder is the gofpdf-backed Builder.
type PDFBuilder struct {
	opt Options
}

// New returns a PDFBuilder, filling unset options with A4, no margin and 72 dpi.
func New(opt Options) *PDFBuilder {
	opt.PageSize = PageSize(strings.ToLower(strings.TrimSpace(string(opt.PageSize))))
	if opt.PageSize == "" {
		opt.PageSize = PageA4
	}
	if opt.DPI <= 0 {
		opt.DPI = 72
	}
	if opt.MarginPt < 0 {
		opt.MarginPt = 0
	}
	return &PDFBuilder{opt: opt}
}

// Validate checks a request before any file is read.
func (b *PDFBuilder) Validate(req Request) error {
	if len(req.Files) == 0 {
		return ErrNoImages
	}
	if strings.TrimSpace(req.Output) == "" {
		return ErrNoOutput
	}
	if b.opt.PageSize != PageImage {
		if _, ok := paperSizes[b.opt.PageSize]; !ok {
			return fmt.Errorf("unknown page size %q", b.opt.PageSize)
		}
	}
	for _, f := range req.Files {
		if imageType(f) == "" {
			return fmt.Errorf("unsupported image type: %s", f)
		}
	}
	return nil
}

// Build writes req.Output. The file is written next to the destination and
// renamed into place, so a failed build never leaves a partial PDF behind.
func (b *PDFBuilder) Build(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	l := applog.WithOperation(applog.WithComponent("pdfbuild"), "build")
	if err := b.Validate(req); err != nil {
		return Result{}, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: paperSizes[PageA4]})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("pdfquirk "+version.String(), true)
	if req.Title != "" {
		pdf.SetTitle(req.Title, true)
	}
	author := req.Author
	if author == "" {
		author = b.opt.Author
	}
	if author != "" {
		pdf.SetAuthor(author, true)
	}

	for i, path := range req.Files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := b.addPage(pdf, path); err != nil {
			l.ErrorContext(ctx, "page failed", slog.Int("page", i+1), slog.String("file", path), slog.Any("err", err))
			return Result{}, fmt.Errorf("page %d (%s): %w", i+1, filepath.Base(path), err)
		}
		l.DebugContext(ctx, "page added", slog.Int("page", i+1), slog.String("file", path))
	}

	outPath, err := filepath.Abs(req.Output)
	if err != nil {
		return Result{}, fmt.Errorf("resolve output: %w", err)
	}
	if err := writeAtomically(pdf, outPath); err != nil {
		return Result{}, err
	}
	res := Result{Output: outPath, Pages: len(req.Files), Duration: time.Since(start)}
	l.InfoContext(ctx, "pdf written", slog.String("output", outPath), slog.Int("pages", res.Pages), slog.Duration("took", res.Duration))
	return res, nil
}

func (b *PDFBuilder) addPage(pdf *gofpdf.Fpdf, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("empty image")
	}
	typ := imageType(path)
	if typ == "PNG" && pngNeedsTranscode(data) {
		if data, err = transcodePNG(data); err != nil {
			return err
		}
	}
	// Register under the path so duplicates share one image object.
	pdf.RegisterImageOptionsReader(path, gofpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return err
	}

	pageW, pageH, x, y, w, h := b.layout(float64(cfg.Width), float64(cfg.Height))
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: pageW, Ht: pageH})
	pdf.ImageOptions(path, x, y, w, h, false, gofpdf.ImageOptions{ImageType: typ}, 0, "")
	return pdf.Error()
}

// layout returns the page size and the image rectangle for an image of
// pxW x pxH pixels. Paper pages follow the image orientation and the image
// is scaled to fit inside the margins, centered.
func (b *PDFBuilder) layout(pxW, pxH float64) (pageW, pageH, x, y, w, h float64) {
	m := b.opt.MarginPt
	if b.opt.PageSize == PageImage {
		w = pxW * 72 / b.opt.DPI
		h = pxH * 72 / b.opt.DPI
		return w + 2*m, h + 2*m, m, m, w, h
	}
	paper := paperSizes[b.opt.PageSize]
	pageW, pageH = paper.Wd, paper.Ht
	if pxW > pxH {
		pageW, pageH = pageH, pageW
	}
	availW := pageW - 2*m
	availH := pageH - 2*m
	scale := availW / pxW
	if s := availH / pxH; s < scale {
		scale = s
	}
	w = pxW * scale
	h = pxH * scale
	x = (pageW - w) / 2
	y = (pageH - h) / 2
	return pageW, pageH, x, y, w, h
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	}
	return ""
}

// pngNeedsTranscode reports PNG variants gofpdf cannot embed directly:
// 16-bit channels and Adam7 interlacing. It reads the IHDR chunk.
func pngNeedsTranscode(data []byte) bool {
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	bitDepth := data[24]
	interlace := data[28]
	return bitDepth == 16 || interlace != 0
}

// transcodePNG re-encodes an image as a plain 8-bit, non-interlaced PNG.
func transcodePNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomically(pdf *gofpdf.Fpdf, outPath string) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pdfquirk-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	w := bufio.NewWriter(tmp)
	if err := pdf.Output(w); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := flushAndClose(w, tmp); err != nil {
		cleanup()
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		cleanup()
		return fmt.Errorf("move pdf into place: %w", err)
	}
	return nil
}

func flushAndClose(w *bufio.Writer, f *os.File) error {
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
