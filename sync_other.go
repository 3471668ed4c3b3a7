//go:build !linux

package minicask

import "os"

func fdatasync(file *os.File) error {
	return file.Sync()
}
