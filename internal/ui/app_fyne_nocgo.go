//go:build fyne && !cgo

package ui

import (
	"context"
	"fmt"
)

// Available reports whether this binary contains the desktop UI.
const Available = false

// Run informs the user that Fyne UI requires cgo (OpenGL) and a C toolchain.
// This stub is compiled when the build uses -tags fyne but CGO is disabled.
func Run(_ context.Context, _ Options) error {
	return fmt.Errorf("Fyne UI requires cgo (OpenGL). Enable cgo and install a C toolchain, then run: CGO_ENABLED=1 go run -tags fyne ./cmd/pdfquirk ui")
}
