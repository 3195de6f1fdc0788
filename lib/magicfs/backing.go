// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package magicfs

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/gauravkhati/magicfolder/lib/ignore"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// lookupBacking stats a leaf name in the backing store and, on
// success, wraps it in the appropriate node type: fileNode for
// regular files, realDirNode for the degenerate case of a real
// (non-synthetic) nested directory created by Mkdir. rootChild
// records whether this lookup happened directly under "/" — it is
// threaded into the resulting fileNode so that a later Open/Release
// knows whether to trigger mark_hidden/enqueue (spec §4.6 "release").
func lookupBacking(ctx context.Context, parent *gofuse.Inode, options *Options, name string, rootChild bool, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	info, err := options.Store.Stat(name)
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}

	if info.IsDir() {
		fillDirAttr(out, info)
		child := parent.NewPersistentInode(ctx, &realDirNode{options: options, name: name}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
		return child, 0
	}

	fillFileAttr(out, info)
	node := &fileNode{options: options, name: name, rootChild: rootChild}
	child := parent.NewPersistentInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG})
	return child, 0
}

// createBacking creates name in the backing store and stashes an
// open handle. rootChild controls whether this create happened
// directly under "/" — only root children are hidden on create (spec
// §4.6 "create": "If the created path is at the root ... mark_hidden").
func createBacking(ctx context.Context, parent *gofuse.Inode, options *Options, name string, flags, mode uint32, rootChild bool, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	file, err := options.Store.Open(name, int(flags)|os.O_CREATE, os.FileMode(mode))
	if err != nil {
		return nil, nil, 0, gofuse.ToErrno(err)
	}

	if rootChild && !ignore.Is(name) {
		options.State.MarkHidden(name)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, 0, gofuse.ToErrno(err)
	}
	fillFileAttr(out, info)

	node := &fileNode{options: options, name: name, rootChild: rootChild}
	child := parent.NewPersistentInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG})
	handle := &fileHandle{file: file, options: options, name: name, rootChild: rootChild}
	return child, handle, 0, 0
}

// unlinkBacking removes name from the backing store and forgets any
// Visibility State recorded for it.
func unlinkBacking(options *Options, name string) syscall.Errno {
	if err := options.Store.Unlink(name); err != nil {
		return gofuse.ToErrno(err)
	}
	options.State.Forget(name)
	return 0
}

// renameBacking rejects any kernel-supplied rename flags (spec §4.6:
// "Reject if the kernel supplied any flags"), then delegates the
// physical move to the backing store. oldBackingPath and
// newBackingPath are already resolved to whatever the destination
// node type expects (a flat leaf name for a root or category
// destination, a directory-relative path for a real nested
// destination) — callers compute those, since the correct shape
// depends on which node type is on each side of the rename. It does
// not touch Visibility State: the caller applies whatever State
// transition matches the specific source/destination shape (flat-to-flat
// migrate, flat-to-nested forget, nested-to-flat stale-clear,
// nested-to-nested no-op).
func renameBacking(options *Options, oldBackingPath, newBackingPath string, flags uint32) syscall.Errno {
	if flags != 0 {
		return syscall.EINVAL
	}
	if err := options.Store.Rename(oldBackingPath, newBackingPath); err != nil {
		return gofuse.ToErrno(err)
	}
	return 0
}

func mkdirBacking(ctx context.Context, parent *gofuse.Inode, options *Options, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if err := options.Store.Mkdir(name, os.FileMode(mode)); err != nil {
		return nil, gofuse.ToErrno(err)
	}
	info, err := options.Store.Stat(name)
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}
	fillDirAttr(out, info)
	child := parent.NewPersistentInode(ctx, &realDirNode{options: options, name: name}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
	return child, 0
}

func statfsBacking(options *Options, out *fuse.StatfsOut) syscall.Errno {
	statfs, err := options.Store.Statfs()
	if err != nil {
		return gofuse.ToErrno(err)
	}
	out.Blocks = statfs.Blocks
	out.Bfree = statfs.Bfree
	out.Bavail = statfs.Bavail
	out.Files = statfs.Files
	out.Ffree = statfs.Ffree
	out.Bsize = uint32(statfs.Bsize)
	out.NameLen = uint32(statfs.Namelen)
	out.Frsize = uint32(statfs.Frsize)
	return 0
}

// statDir fills out a synthetic directory's attributes: mode
// directory|0755, nlink 2, size 4096, timestamps "now" (spec §4.6
// getattr; SPEC_FULL note: ctime is stamped too, not only mtime).
func statDir(options *Options, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o755
	out.Nlink = 2
	out.Size = 4096
	now := uint64(time.Now().Unix())
	out.Mtime = now
	out.Atime = now
	out.Ctime = now
	out.Owner = currentOwner()
	return 0
}

// currentOwner returns the mount process's own uid/gid. statDir uses
// it as the owner of every synthetic directory; the uid/gid of the
// requesting caller is not consulted.
func currentOwner() fuse.Owner {
	return fuse.Owner{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())}
}

// inoOf extracts the host inode number from an os.FileInfo, or 0 if
// unavailable (non-Linux Sys() implementations).
func inoOf(info os.FileInfo) uint64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Ino
	}
	return 0
}

func fillFileAttr(out *fuse.EntryOut, info os.FileInfo) {
	out.Mode = syscall.S_IFREG | uint32(info.Mode().Perm())
	out.Size = uint64(info.Size())
	stampTimes(&out.Attr, info)
}

func fillDirAttr(out *fuse.EntryOut, info os.FileInfo) {
	out.Mode = syscall.S_IFDIR | uint32(info.Mode().Perm())
	out.Nlink = 2
	stampTimes(&out.Attr, info)
}

func stampTimes(attr *fuse.Attr, info os.FileInfo) {
	modTime := info.ModTime()
	attr.Mtime = uint64(modTime.Unix())
	attr.Mtimensec = uint32(modTime.Nanosecond())
	attr.Atime = attr.Mtime
	attr.Ctime = attr.Mtime
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		attr.Ino = stat.Ino
		attr.Nlink = uint32(stat.Nlink)
		attr.Uid = stat.Uid
		attr.Gid = stat.Gid
	}
}
