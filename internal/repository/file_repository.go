package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// LastImageFilename is the fixed name of the slot inside the output directory
const LastImageFilename = "last_image.png"

// FileLastImageRepository keeps the slot as one PNG file on local disk
type FileLastImageRepository struct {
	dir string
}

// NewFileLastImageRepository creates a repository rooted at dir
func NewFileLastImageRepository(dir string) *FileLastImageRepository {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &FileLastImageRepository{dir: dir}
}

// Ref returns the slot's file path
func (r *FileLastImageRepository) Ref() string {
	return filepath.Join(r.dir, LastImageFilename)
}

// Save writes data through a temp file and renames it over the slot
func (r *FileLastImageRepository) Save(_ context.Context, data []byte) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := r.Ref()
	tmpPath := filepath.Join(r.dir, ".tmp-"+LastImageFilename+"-"+strconv.FormatInt(time.Now().UnixNano(), 10))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename last image: %w", err)
	}

	return path, nil
}

// Load reads the slot file
func (r *FileLastImageRepository) Load(_ context.Context, ref string) ([]byte, error) {
	if err := checkRef(r, ref); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.Ref())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNoLastImage
	}
	if err != nil {
		return nil, fmt.Errorf("read last image: %w", err)
	}
	return data, nil
}

// UpdatedAt returns the slot file's modification time
func (r *FileLastImageRepository) UpdatedAt(_ context.Context) (time.Time, error) {
	info, err := os.Stat(r.Ref())
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, domain.ErrNoLastImage
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stat last image: %w", err)
	}
	return info.ModTime(), nil
}

// Delete removes the slot file
func (r *FileLastImageRepository) Delete(_ context.Context) error {
	if err := os.Remove(r.Ref()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove last image: %w", err)
	}
	return nil
}
