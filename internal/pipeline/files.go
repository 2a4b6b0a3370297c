package pipeline

import (
	"fmt"
	"io"
	"os"
)

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems (work dir and output dir are often on
// different mounts).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return os.Remove(src)
}
