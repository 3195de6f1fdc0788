// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package magicfs

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/gauravkhati/magicfolder/lib/ignore"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// fileNode represents a single backing-store file, reached either
// directly under "/" or through a category directory. Both resolve to
// the same flat file (spec §4.1): I/O is identical either way. Only
// rootChild differs, since it decides whether closing the file should
// trigger classification (spec §4.6 "release").
type fileNode struct {
	gofuse.Inode
	options   *Options
	name      string
	rootChild bool
}

var (
	_ gofuse.InodeEmbedder = (*fileNode)(nil)
	_ gofuse.NodeGetattrer = (*fileNode)(nil)
	_ gofuse.NodeSetattrer = (*fileNode)(nil)
	_ gofuse.NodeOpener    = (*fileNode)(nil)
	_ gofuse.NodeAccesser  = (*fileNode)(nil)
)

func (f *fileNode) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := f.options.Store.Stat(f.name)
	if err != nil {
		return gofuse.ToErrno(err)
	}
	out.Mode = syscall.S_IFREG | uint32(info.Mode().Perm())
	out.Size = uint64(info.Size())
	stampTimes(&out.Attr, info)
	return 0
}

// Setattr handles truncate, chmod, chown, and utimens by delegating
// straight to the backing store (spec §4.6: "truncate, chmod, chown,
// utimens ... Delegate").
func (f *fileNode) Setattr(ctx context.Context, fh gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := f.options.Store.Truncate(f.name, int64(size)); err != nil {
			return gofuse.ToErrno(err)
		}
	}
	if mode, ok := in.GetMode(); ok {
		if err := f.options.Store.Chmod(f.name, os.FileMode(mode).Perm()); err != nil {
			return gofuse.ToErrno(err)
		}
	}
	uid, hasUID := in.GetUID()
	gid, hasGID := in.GetGID()
	if hasUID || hasGID {
		newUID, newGID := -1, -1
		if hasUID {
			newUID = int(uid)
		}
		if hasGID {
			newGID = int(gid)
		}
		if err := f.options.Store.Chown(f.name, newUID, newGID); err != nil {
			return gofuse.ToErrno(err)
		}
	}
	mtime, hasMtime := in.GetMTime()
	atime, hasAtime := in.GetATime()
	if hasMtime || hasAtime {
		if !hasAtime {
			atime = mtime
		}
		if !hasMtime {
			mtime = atime
		}
		if err := f.options.Store.SetTimes(f.name, atime, mtime); err != nil {
			return gofuse.ToErrno(err)
		}
	}
	return f.Getattr(ctx, fh, out)
}

// Open resolves the backing file with the caller's flags and stashes
// the returned handle (spec §4.6 "open").
func (f *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	file, err := f.options.Store.Open(f.name, int(flags), 0)
	if err != nil {
		return nil, 0, gofuse.ToErrno(err)
	}
	return &fileHandle{file: file, options: f.options, name: f.name, rootChild: f.rootChild}, 0, 0
}

func (f *fileNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	return gofuse.ToErrno(f.options.Store.Access(f.name, mask))
}

// fileHandle wraps an *os.File opened against the backing store,
// performing positional I/O directly against it (spec §4.6
// "read/write: positional I/O against the stashed handle"). On
// Release, if the file is a root child and not an ignored filename,
// it ensures the file is marked Hidden and enqueues it for
// classification (spec §4.6 "release": "classification is triggered
// on close, not on create, so the classifier sees final bytes").
type fileHandle struct {
	file      *os.File
	options   *Options
	name      string
	rootChild bool
}

var (
	_ gofuse.FileReader   = (*fileHandle)(nil)
	_ gofuse.FileWriter   = (*fileHandle)(nil)
	_ gofuse.FileFlusher  = (*fileHandle)(nil)
	_ gofuse.FileReleaser = (*fileHandle)(nil)
	_ gofuse.FileFsyncer  = (*fileHandle)(nil)
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.file.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, gofuse.ToErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.file.WriteAt(data, off)
	if err != nil {
		return uint32(n), gofuse.ToErrno(err)
	}
	return uint32(n), 0
}

func (h *fileHandle) Flush(ctx context.Context) syscall.Errno {
	return 0
}

func (h *fileHandle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	return gofuse.ToErrno(h.file.Sync())
}

// Release closes the handle, then — for a root-child, non-ignored
// file — ensures it is Hidden and enqueues it for classification.
// Enqueue and MarkHidden are both idempotent, and Enqueue drops
// already-classified filenames, so this runs on every release of a
// root-child handle, not only the one that follows Create. MarkHidden
// does not check classification: a root-child handle released after
// its file was classified also adds the name to the Hidden set.
func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	err := h.file.Close()
	if h.rootChild && !ignore.Is(h.name) {
		h.options.State.MarkHidden(h.name)
		h.options.Queue.Enqueue(h.name)
	}
	return gofuse.ToErrno(err)
}
