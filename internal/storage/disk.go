package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Disk stores one file per key below a session directory
type Disk struct {
	dir string
}

// NewDisk creates a disk storage rooted at cacheDir/sessionID
func NewDisk(cacheDir, sessionID string) *Disk {
	return &Disk{
		dir: filepath.Join(cacheDir, sessionID),
	}
}

// Init ensures the session directory exists
func (d *Disk) Init() error {
	return os.MkdirAll(d.dir, 0755)
}

// Dir returns the session directory
func (d *Disk) Dir() string {
	return d.dir
}

// path maps a key to a file name; keys contain characters that are not
// valid in file names, so they are hashed
func (d *Disk) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(hash[:])+".json")
}

func (d *Disk) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(d.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (d *Disk) Write(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return err
	}

	// Write to a temp file first so readers never see a partial record
	tmp, err := os.CreateTemp(d.dir, ".write-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	cachePath := d.path(key)
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}

	logrus.Debugf("Wrote cache file: %s", cachePath)
	return nil
}

func (d *Disk) Remove(_ context.Context, key string) error {
	err := os.Remove(d.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) Clear(_ context.Context) error {
	return os.RemoveAll(d.dir)
}

var _ Storage = (*Disk)(nil)
