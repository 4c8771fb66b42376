/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package thumbs holds the geometry and rendering of the thumbnail cells shown
// in the image list. Every cell has the same size regardless of its image.
package thumbs

import (
	"math"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	// BaseWidth and BaseHeight are the thumbnail area of a cell, roughly A4 aspect.
	BaseWidth  = 100
	BaseHeight = 141

	cellPadding  = 4
	labelSpacing = 2
	listPadding  = 6

	// aspect is the height/width ratio used when cells follow the list height.
	aspect = 1.41
)

// CellSize is a cell extent in pixels.
type CellSize struct {
	W, H int
}

// CellSizeFor returns the cell size for a label font of the given pixel height:
// the base thumbnail plus padding, the label line and a small gap.
func CellSizeFor(fontHeight int) CellSize {
	if fontHeight < 0 {
		fontHeight = 0
	}
	return CellSize{
		W: BaseWidth + cellPadding,
		H: BaseHeight + cellPadding + fontHeight + labelSpacing,
	}
}

// ListHeight is the height of a single-row list showing cells of size c.
func ListHeight(c CellSize) int { return c.H + listPadding }

// FontHeight returns the line height of face in whole pixels.
// A nil face measures the headless default, basicfont.Face7x13.
func FontHeight(face font.Face) int {
	if face == nil {
		face = basicfont.Face7x13
	}
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Label is the caption shown under a thumbnail.
func Label(path string) string { return filepath.Base(path) }

// Delegate hands out the configured cell size for every entry.
type Delegate struct {
	mu   sync.RWMutex
	size CellSize
}

// NewDelegate returns a delegate sized for a label font of fontHeight pixels.
func NewDelegate(fontHeight int) *Delegate {
	return &Delegate{size: CellSizeFor(fontHeight)}
}

// SizeHint returns the cell size. It ignores which entry is asked for.
func (d *Delegate) SizeHint() CellSize {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size
}

// SetSize replaces the cell size used for all entries.
func (d *Delegate) SetSize(c CellSize) {
	if c.W <= 0 || c.H <= 0 {
		return
	}
	d.mu.Lock()
	d.size = c
	d.mu.Unlock()
}

// ThumbSize is the image area inside a cell, without padding and label.
func (d *Delegate) ThumbSize(fontHeight int) CellSize {
	c := d.SizeHint()
	w := c.W - cellPadding
	h := c.H - cellPadding - fontHeight - labelSpacing
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return CellSize{W: w, H: h}
}

// SizeCatcher turns list height changes into cell sizes with the page aspect.
// It is only installed when thumbnails follow the list size.
type SizeCatcher struct {
	onSize func(CellSize)
	last   int
}

// NewSizeCatcher returns an observer that calls onSize for each new height.
func NewSizeCatcher(onSize func(CellSize)) *SizeCatcher {
	return &SizeCatcher{onSize: onSize}
}

// Resized reports a new list height. Repeated or non-positive heights are ignored.
func (s *SizeCatcher) Resized(listHeight int) {
	if s == nil || listHeight <= 0 || listHeight == s.last {
		return
	}
	s.last = listHeight
	if s.onSize != nil {
		s.onSize(SizeForHeight(listHeight))
	}
}

// SizeForHeight is the cell emitted for a list of height h.
func SizeForHeight(h int) CellSize {
	return CellSize{W: int(math.Round(float64(h) / aspect)), H: h}
}
