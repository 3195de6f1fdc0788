// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package backingstore

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Adapter delegates I/O to a single flat directory on the host
// filesystem. All paths passed to its methods are relative to the
// backing root (a leaf name for a flat file, a directory-relative
// path inside a real subdirectory), not virtual paths — callers
// resolve the virtual namespace first (see lib/pathrouter).
type Adapter struct {
	root string
}

// New returns an Adapter rooted at root. The directory is not created;
// call EnsureRoot for that.
func New(root string) *Adapter {
	return &Adapter{root: root}
}

// Root returns the backing directory's absolute path.
func (a *Adapter) Root() string {
	return a.root
}

// Path joins a leaf filename onto the backing root.
func (a *Adapter) Path(name string) string {
	return filepath.Join(a.root, name)
}

// EnsureRoot creates the backing directory (and any missing parents)
// if it does not already exist.
func (a *Adapter) EnsureRoot() error {
	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return fmt.Errorf("creating backing root %s: %w", a.root, err)
	}
	return nil
}

// Stat returns os-level metadata for a backing file by leaf name.
func (a *Adapter) Stat(name string) (os.FileInfo, error) {
	return os.Lstat(a.Path(name))
}

// Access checks whether name is accessible under the given mode bits
// (as passed by the kernel to the FUSE access() callback).
func (a *Adapter) Access(name string, mode uint32) error {
	return syscall.Access(a.Path(name), mode)
}

// Open opens a backing file with the given flags and mode, returning
// the raw *os.File so callers can perform positional I/O directly.
func (a *Adapter) Open(name string, flags int, mode os.FileMode) (*os.File, error) {
	return os.OpenFile(a.Path(name), flags, mode)
}

// Truncate changes the size of a backing file.
func (a *Adapter) Truncate(name string, size int64) error {
	return os.Truncate(a.Path(name), size)
}

// Unlink removes a backing file.
func (a *Adapter) Unlink(name string) error {
	return os.Remove(a.Path(name))
}

// Mkdir creates a real subdirectory in the backing store. This is the
// degenerate "nested real directory" case mentioned in the FUSE
// handler design — it is not a synthetic category.
func (a *Adapter) Mkdir(name string, mode os.FileMode) error {
	return os.Mkdir(a.Path(name), mode)
}

// Rmdir removes a real subdirectory from the backing store.
func (a *Adapter) Rmdir(name string) error {
	return os.Remove(a.Path(name))
}

// Rename renames a backing file or directory.
func (a *Adapter) Rename(oldName, newName string) error {
	return os.Rename(a.Path(oldName), a.Path(newName))
}

// Chmod changes a backing file's mode bits.
func (a *Adapter) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(a.Path(name), mode)
}

// Chown changes a backing file's owner and group. Either id may be -1
// to leave it unchanged, matching os.Chown / the kernel chown() call.
func (a *Adapter) Chown(name string, uid, gid int) error {
	return os.Chown(a.Path(name), uid, gid)
}

// SetTimes sets a backing file's access and modification times.
func (a *Adapter) SetTimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(a.Path(name), atime, mtime)
}

// Statfs reports filesystem-level statistics for the backing root,
// used to answer the kernel's statfs() call.
func (a *Adapter) Statfs() (*syscall.Statfs_t, error) {
	var statfs syscall.Statfs_t
	if err := syscall.Statfs(a.root, &statfs); err != nil {
		return nil, err
	}
	return &statfs, nil
}

// DirEntry describes one entry returned by ReadDir: a name, its
// os-reported inode, and its dirent type bits.
type DirEntry struct {
	Name string
	Ino  uint64
	Type uint32
}

// ReadDir enumerates the backing root's direct children, skipping "."
// and "..". Order is whatever the host filesystem returns; callers
// that need a stable order must sort.
func (a *Adapter) ReadDir() ([]DirEntry, error) {
	return a.ReadDirAt("")
}

// ReadDirAt enumerates the direct children of the real subdirectory
// named by relativePath (relative to the backing root), skipping "."
// and "..". Used by the degenerate nested-real-directory case (spec
// §4.6 readdir(other)); an empty relativePath reads the backing root
// itself.
func (a *Adapter) ReadDirAt(relativePath string) ([]DirEntry, error) {
	dirHandle, err := os.Open(a.Path(relativePath))
	if err != nil {
		return nil, err
	}
	defer dirHandle.Close()

	names, err := dirHandle.Readdirnames(-1)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(names))
	for _, name := range names {
		info, statErr := a.Stat(filepath.Join(relativePath, name))
		if statErr != nil {
			// Entry vanished between Readdirnames and Stat (a
			// concurrent unlink). Skip it rather than fail the
			// whole listing.
			continue
		}
		stat, ok := info.Sys().(*syscall.Stat_t)
		var ino uint64
		if ok {
			ino = stat.Ino
		}
		entries = append(entries, DirEntry{
			Name: name,
			Ino:  ino,
			Type: modeToDirentType(info.Mode()),
		})
	}
	return entries, nil
}

// modeToDirentType converts an os.FileMode to the dirent d_type value
// the kernel expects (shifted into st_mode form by callers as needed).
func modeToDirentType(mode os.FileMode) uint32 {
	switch {
	case mode.IsDir():
		return syscall.DT_DIR
	case mode&os.ModeSymlink != 0:
		return syscall.DT_LNK
	default:
		return syscall.DT_REG
	}
}
