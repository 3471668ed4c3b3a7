//go:build linux

package minicask

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync flushes file data without forcing a full metadata sync.
func fdatasync(file *os.File) error {
	return unix.Fdatasync(int(file.Fd()))
}
