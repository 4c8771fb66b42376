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
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/image/draw"

	applog "pdfquirk/internal/log"
	"pdfquirk/internal/storage"
)

// Renderer produces PNG thumbnails. Results are kept in memory and, when a
// cache is set, in the SQLite thumbnail cache across runs.
type Renderer struct {
	cache *storage.Cache

	mu  sync.RWMutex
	mem map[memKey][]byte
}

type memKey struct {
	path string
	w, h int
}

// NewRenderer returns a renderer backed by cache, which may be nil.
func NewRenderer(cache *storage.Cache) *Renderer {
	return &Renderer{cache: cache, mem: make(map[memKey][]byte)}
}

// Thumbnail returns a PNG of path scaled to fit inside w x h.
func (r *Renderer) Thumbnail(ctx context.Context, path string, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", w, h)
	}
	mk := memKey{path: path, w: w, h: h}
	r.mu.RLock()
	b, ok := r.mem[mk]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	gen := func(context.Context) ([]byte, error) { return renderFile(path, w, h) }
	if r.cache != nil {
		key, err := storage.KeyFor(path, w, h)
		if err != nil {
			return nil, err
		}
		b, err = r.cache.GetOrCreate(ctx, key, gen)
		if err != nil {
			applog.WithComponent("thumbs").Warn("thumbnail failed", slog.String("file", path), slog.Any("err", err))
			return nil, err
		}
	} else {
		var err error
		if b, err = gen(ctx); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.mem[mk] = b
	r.mu.Unlock()
	return b, nil
}

// Forget drops in-memory thumbnails, for example after the list was cleared.
func (r *Renderer) Forget() {
	r.mu.Lock()
	r.mem = make(map[memKey][]byte)
	r.mu.Unlock()
}

func renderFile(path string, w, h int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Scale(src, w, h)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Scale returns src resized to fit inside w x h, keeping its aspect ratio.
// Images already inside the box are returned at their own size.
func Scale(src image.Image, w, h int) image.Image {
	sb := src.Bounds()
	tw, th := FitInside(sb.Dx(), sb.Dy(), w, h)
	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// FitInside returns the largest size with the aspect of sw x sh that fits in
// w x h without upscaling. The result is at least 1x1.
func FitInside(sw, sh, w, h int) (int, int) {
	if sw <= 0 || sh <= 0 {
		return 1, 1
	}
	if sw <= w && sh <= h {
		return sw, sh
	}
	tw, th := w, sh*w/sw
	if th > h {
		tw, th = sw*h/sh, h
	}
	return max(tw, 1), max(th, 1)
}
