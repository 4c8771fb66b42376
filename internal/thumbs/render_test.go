/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package thumbs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pdfquirk/internal/storage"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w && i < h; i++ {
		img.Set(i, i, color.RGBA{255, 0, 0, 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestFitInside(t *testing.T) {
	cases := []struct{ sw, sh, w, h, ew, eh int }{
		{400, 600, 100, 141, 94, 141},
		{600, 400, 100, 141, 100, 66},
		{50, 50, 100, 141, 50, 50},
		{0, 10, 100, 100, 1, 1},
		{10000, 1, 100, 141, 100, 1},
	}
	for _, c := range cases {
		w, h := FitInside(c.sw, c.sh, c.w, c.h)
		if w != c.ew || h != c.eh {
			t.Fatalf("FitInside(%d,%d,%d,%d) = %dx%d, want %dx%d", c.sw, c.sh, c.w, c.h, w, h, c.ew, c.eh)
		}
	}
}

func TestRendererScalesAndCaches(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.png")
	writeTestPNG(t, src, 400, 600)

	cache, err := storage.Open(filepath.Join(dir, "thumbs.sqlite"), 0)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	r := NewRenderer(cache)
	b, err := r.Thumbnail(ctx, src, BaseWidth, BaseHeight)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if cfg.Width != 94 || cfg.Height != 141 {
		t.Fatalf("thumbnail is %dx%d", cfg.Width, cfg.Height)
	}

	total, err := cache.TotalBytes(ctx)
	if err != nil || total != int64(len(b)) {
		t.Fatalf("cache holds %d bytes (%v), want %d", total, err, len(b))
	}

	// A fresh renderer is served from the database.
	b2, err := NewRenderer(cache).Thumbnail(ctx, src, BaseWidth, BaseHeight)
	if err != nil || !bytes.Equal(b, b2) {
		t.Fatalf("cached thumbnail differs: %v", err)
	}
}

func TestRendererErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(nil)
	if _, err := r.Thumbnail(context.Background(), filepath.Join(dir, "missing.png"), 10, 10); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Thumbnail(context.Background(), bad, 10, 10); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := r.Thumbnail(context.Background(), bad, 0, 10); err == nil {
		t.Fatalf("expected size error")
	}
}
