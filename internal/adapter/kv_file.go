package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"book-catalogue/internal/core/model"

	"github.com/google/renameio/v2"
)

// FileKV stores each key as a file in one directory. Writes are atomic and
// durable: a reader sees either the old or the new value, never a torn one.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create cache dir: %w", model.ErrStorage, err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: invalid key %q", model.ErrStorage, key)
	}
	return filepath.Join(f.dir, key), nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrStorage, key, err)
	}
	return b, nil
}

func (f *FileKV) Set(_ context.Context, key string, value []byte) (err error) {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(p, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("%w: create pending file: %w", model.ErrStorage, err)
	}
	// removes the temp file unless it was committed
	defer func() {
		if cerr := pending.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: cleanup pending file: %w", model.ErrStorage, cerr)
		}
	}()

	if _, err := pending.Write(value); err != nil {
		return fmt.Errorf("%w: write %s: %w", model.ErrStorage, key, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: replace %s: %w", model.ErrStorage, key, err)
	}
	return nil
}
