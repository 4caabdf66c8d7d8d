package writers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Downstream consumers like `head` close stdout early; that is not a failure.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

// WriteFileAtomic writes via a temp file in the target directory and renames
// it into place, so a failed write never leaves a partial file at path.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteMatrixFile writes m to path in format, atomically.
func WriteMatrixFile(path, format string, m Matrix) error {
	if _, ok := matrixWriters[format]; !ok {
		return fmt.Errorf("unknown matrix format %q (no writer registered)", format)
	}
	return WriteFileAtomic(path, func(w io.Writer) error { return WriteMatrix(format, w, m) })
}
