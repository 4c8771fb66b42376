/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui is the desktop window. The fyne implementation is compiled with
// -tags fyne; other builds get a stub so CI stays headless.
//
// The "From File" button adds one image per pick. To add several images in
// one go, drop them on the window; non-image files are skipped.
package ui

import (
	"pdfquirk/internal/config"
	"pdfquirk/internal/dialog"
	"pdfquirk/internal/pdfbuild"
	"pdfquirk/internal/settings"
	"pdfquirk/internal/thumbs"
)

// Options carries what the window needs from the command line setup.
type Options struct {
	Config   config.AppConfig
	Settings settings.Store
	Builder  pdfbuild.Builder
	// Renderer may be nil; thumbnails are then rendered without the disk cache.
	Renderer *thumbs.Renderer
	// Scanner is nil when no scanner backend is available.
	Scanner dialog.Scanner
}
