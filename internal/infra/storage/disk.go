package storage

import (
	"os"
	"path/filepath"
)

// Disk is the public file store backing auction images. All paths passed to
// it are relative (e.g. "auctions/2025-06-01/toyota_aqua/img_001.jpg") and
// served back to the review UI under /storage/.
type Disk struct {
	Root string
}

func NewDisk(root string) *Disk {
	return &Disk{Root: root}
}

func (d *Disk) fullPath(rel string) string {
	return filepath.Join(d.Root, filepath.FromSlash(rel))
}

// Put writes data at the relative path, creating parent directories.
func (d *Disk) Put(rel string, data []byte) error {
	full := d.fullPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (d *Disk) Get(rel string) ([]byte, error) {
	return os.ReadFile(d.fullPath(rel))
}

func (d *Disk) Exists(rel string) bool {
	_, err := os.Stat(d.fullPath(rel))
	return err == nil
}

// DeleteDir removes the directory at rel and everything under it.
func (d *Disk) DeleteDir(rel string) error {
	return os.RemoveAll(d.fullPath(rel))
}

// Directories lists the names of immediate subdirectories of rel.
func (d *Disk) Directories(rel string) ([]string, error) {
	entries, err := os.ReadDir(d.fullPath(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// CountFiles walks rel and counts regular files under it.
func (d *Disk) CountFiles(rel string) (int, error) {
	count := 0
	err := filepath.Walk(d.fullPath(rel), func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil && os.IsNotExist(err) {
		return 0, nil
	}
	return count, err
}
