// Package platform contains OS-specific conveniences.
package platform

import (
	"context"
	"os/exec"
	"runtime"
)

// Opener reveals a directory in the desktop file browser.
type Opener interface {
	Open(ctx context.Context, dir string) error
}

// DirOpener opens directories with the macOS "open" command and does
// nothing elsewhere.
type DirOpener struct {
	GOOS string
	run  func(ctx context.Context, name string, args ...string) error
}

// NewDirOpener returns an opener for the running OS.
func NewDirOpener() *DirOpener {
	return &DirOpener{GOOS: runtime.GOOS, run: runCommand}
}

// Supported reports whether Open does anything on this OS.
func (o *DirOpener) Supported() bool {
	return o.GOOS == "darwin"
}

// Open runs `open dir` on macOS.
func (o *DirOpener) Open(ctx context.Context, dir string) error {
	if !o.Supported() {
		return nil
	}
	return o.run(ctx, "open", dir)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
