// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package magicfs

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// categoryNode is a synthetic directory "/<category>". It exists only
// so long as Visibility State has at least one filename assigned to
// it — categories with zero members are never materialized (spec §3
// invariant: "Categories with zero assigned files are not listed at
// root").
type categoryNode struct {
	gofuse.Inode
	options  *Options
	category string
}

var (
	_ gofuse.InodeEmbedder = (*categoryNode)(nil)
	_ gofuse.NodeLookuper  = (*categoryNode)(nil)
	_ gofuse.NodeReaddirer = (*categoryNode)(nil)
	_ gofuse.NodeGetattrer = (*categoryNode)(nil)
	_ gofuse.NodeAccesser  = (*categoryNode)(nil)
	_ gofuse.NodeUnlinker  = (*categoryNode)(nil)
)

func newCategoryInode(ctx context.Context, parent *gofuse.Inode, options *Options, category string, out *fuse.EntryOut) *gofuse.Inode {
	out.Mode = syscall.S_IFDIR | 0o755
	out.Nlink = 2
	child := parent.NewPersistentInode(ctx, &categoryNode{options: options, category: category}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
	return child
}

// Lookup resolves "/<category>/<name>": name must currently be a
// member of the category, and its backing file must still exist
// (spec §4.6 readdir(/<category>) tolerates stale entries; Lookup
// applies the same tolerance).
func (c *categoryNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if category, ok := c.options.State.CategoryOf(name); !ok || category != c.category {
		return nil, syscall.ENOENT
	}
	return lookupBacking(ctx, &c.Inode, c.options, name, false, out)
}

// Readdir emits ".", "..", then every filename assigned to this
// category, skipping any whose backing file has since vanished (spec
// §4.6 readdir(/<category>): "tolerate stale entries").
func (c *categoryNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	for _, name := range c.options.State.ListCategory(c.category) {
		info, err := c.options.Store.Stat(name)
		if err != nil {
			continue
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFREG, Ino: inoOf(info)})
	}
	return gofuse.NewListDirStream(entries), 0
}

func (c *categoryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	return statDir(c.options, out)
}

func (c *categoryNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	return 0
}

// Unlink removes the backing file for a classified filename reached
// via its category path and forgets its Visibility State, the same
// as unlinking it would via the root (spec §3: a filename is stored
// flat regardless of virtual directory).
func (c *categoryNode) Unlink(ctx context.Context, name string) syscall.Errno {
	if category, ok := c.options.State.CategoryOf(name); !ok || category != c.category {
		return syscall.ENOENT
	}
	return unlinkBacking(c.options, name)
}
