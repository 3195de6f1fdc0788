// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package magicfs

import (
	"context"
	"path"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// realDirNode represents a real, non-synthetic subdirectory created
// by Mkdir under the backing store. Spec §4.6 calls this "a
// degenerate case" — the virtual namespace is one level deep by
// design (spec §1 Non-goals: "nested virtual hierarchies"), so
// anything nested is a plain real directory with no hiding or
// classification applied to its contents. name is the directory's
// path relative to the backing root.
type realDirNode struct {
	gofuse.Inode
	options *Options
	name    string
}

var (
	_ gofuse.InodeEmbedder = (*realDirNode)(nil)
	_ gofuse.NodeLookuper  = (*realDirNode)(nil)
	_ gofuse.NodeReaddirer = (*realDirNode)(nil)
	_ gofuse.NodeGetattrer = (*realDirNode)(nil)
	_ gofuse.NodeCreater   = (*realDirNode)(nil)
	_ gofuse.NodeUnlinker  = (*realDirNode)(nil)
	_ gofuse.NodeRenamer   = (*realDirNode)(nil)
	_ gofuse.NodeMkdirer   = (*realDirNode)(nil)
	_ gofuse.NodeRmdirer   = (*realDirNode)(nil)
)

func (d *realDirNode) child(name string) string {
	return path.Join(d.name, name)
}

func (d *realDirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return lookupBacking(ctx, &d.Inode, d.options, d.child(name), false, out)
}

func (d *realDirNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := d.options.Store.ReadDirAt(d.name)
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}
	dirEntries := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		dirEntries = append(dirEntries, fuse.DirEntry{Name: entry.Name, Ino: entry.Ino, Mode: entry.Type << 12})
	}
	return gofuse.NewListDirStream(dirEntries), 0
}

func (d *realDirNode) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := d.options.Store.Stat(d.name)
	if err != nil {
		return gofuse.ToErrno(err)
	}
	out.Mode = syscall.S_IFDIR | uint32(info.Mode().Perm())
	out.Nlink = 2
	stampTimes(&out.Attr, info)
	return 0
}

func (d *realDirNode) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	return createBacking(ctx, &d.Inode, d.options, d.child(name), flags, mode, false, out)
}

func (d *realDirNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return unlinkBacking(d.options, d.child(name))
}

// Rename moves a nested real entry, computing the destination
// backing path from the destination node's own type rather than
// assuming it stays under this directory. A real-to-real rename keeps
// the directory-relative path shape; a rename out to root or a
// category flattens to newName, the same backing name spec §4.1 gives
// every root-level file (name never entered Visibility State while
// nested, so there is nothing of its own to migrate there, but a stale
// entry left behind under newName by some other, unrelated file is
// cleared so it cannot leak onto this one).
func (d *realDirNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	switch dest := newParent.(type) {
	case *realDirNode:
		return renameBacking(d.options, d.child(name), dest.child(newName), flags)
	case *rootNode, *categoryNode:
		if errno := renameBacking(d.options, d.child(name), newName, flags); errno != 0 {
			return errno
		}
		d.options.State.Forget(newName)
		return 0
	default:
		return syscall.EINVAL
	}
}

func (d *realDirNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return mkdirBacking(ctx, &d.Inode, d.options, d.child(name), mode, out)
}

func (d *realDirNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return gofuse.ToErrno(d.options.Store.Rmdir(d.child(name)))
}
