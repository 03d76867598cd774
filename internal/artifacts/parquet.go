// Package artifacts reads and writes the columnar files shared between pipeline stages.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet replaces the file at path with rows.
// The data is written to a sibling temp file first and renamed into place so
// readers see either the old or the new file, never a partial one.
func WriteParquet[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := parquet.Write(tmp, rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write parquet %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadParquet loads every row of the file at path. A missing file yields no rows.
func ReadParquet[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// Info describes one artifact on disk
type Info struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Exists     bool       `json:"exists"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	SizeBytes  int64      `json:"size_bytes"`
	Rows       *int64     `json:"rows,omitempty"`
}

// StatParquet reports file metadata and the row count from the parquet footer
func StatParquet(name, path string) (Info, error) {
	info := Info{Name: name, Path: path}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("failed to open artifact %s: %w", name, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return info, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}
	modified := st.ModTime().UTC()
	info.Exists = true
	info.ModifiedAt = &modified
	info.SizeBytes = st.Size()

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return info, fmt.Errorf("failed to open parquet footer %s: %w", name, err)
	}
	rows := pf.NumRows()
	info.Rows = &rows

	return info, nil
}

// StatDir reports the newest modification time and file count of a directory
func StatDir(name, dir, pattern string) (Info, error) {
	info := Info{Name: name, Path: dir}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return info, fmt.Errorf("failed to list %s: %w", name, err)
	}

	var count int64
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			continue
		}
		count++
		info.SizeBytes += st.Size()
		if mt := st.ModTime().UTC(); info.ModifiedAt == nil || mt.After(*info.ModifiedAt) {
			info.ModifiedAt = &mt
		}
	}
	info.Exists = count > 0
	info.Rows = &count

	return info, nil
}
