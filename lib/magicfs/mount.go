// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package magicfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/gauravkhati/magicfolder/lib/backingstore"
	"github.com/gauravkhati/magicfolder/lib/classifyqueue"
	"github.com/gauravkhati/magicfolder/lib/ignore"
	"github.com/gauravkhati/magicfolder/lib/visibility"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// entryTimeout, attrTimeout, and negativeTimeout bound how long the
// kernel may cache directory entries, attributes, and negative
// lookups before re-querying. All three are disabled (zero) because a
// reclassification applied by the background worker must become
// visible on the very next readdir/getattr, never served stale from
// the kernel cache (spec §4.6 "init").
const (
	entryTimeout    = 0
	attrTimeout     = 0
	negativeTimeout = 0
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// Store performs the real I/O against the backing directory.
	Store *backingstore.Adapter

	// State is the authoritative Visibility State.
	State *visibility.State

	// Queue accepts filenames for classification on release.
	Queue *classifyqueue.Queue

	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a text logger that
	// writes only Error-level messages to stderr is used.
	Logger *slog.Logger
}

// Mount mounts the magicfolder FUSE filesystem at the configured
// mountpoint. The caller must call Server.Unmount when done. The
// mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if options.State == nil {
		return nil, fmt.Errorf("state is required")
	}
	if options.Queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &rootNode{options: &options}

	entry := time.Duration(entryTimeout)
	attr := time.Duration(attrTimeout)
	negative := time.Duration(negativeTimeout)

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		// Kernel metadata caching is disabled (all three timeouts
		// zero) so that a reclassification applied by the background
		// worker is reflected in the next readdir/getattr rather than
		// served from a stale kernel cache. Spec §4.6 "init".
		EntryTimeout:    &entry,
		AttrTimeout:     &attr,
		NegativeTimeout: &negative,
		MountOptions: fuse.MountOptions{
			FsName:     "magicfolder",
			Name:       "magicfolder",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("magicfolder mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// rootNode is the filesystem root ("/"). Its children are the
// synthetic category directories plus every backing file that is
// neither Hidden nor Classified.
type rootNode struct {
	gofuse.Inode
	options *Options
}

var (
	_ gofuse.InodeEmbedder = (*rootNode)(nil)
	_ gofuse.NodeLookuper  = (*rootNode)(nil)
	_ gofuse.NodeReaddirer = (*rootNode)(nil)
	_ gofuse.NodeGetattrer = (*rootNode)(nil)
	_ gofuse.NodeAccesser  = (*rootNode)(nil)
	_ gofuse.NodeCreater   = (*rootNode)(nil)
	_ gofuse.NodeUnlinker  = (*rootNode)(nil)
	_ gofuse.NodeRenamer   = (*rootNode)(nil)
	_ gofuse.NodeMkdirer   = (*rootNode)(nil)
	_ gofuse.NodeRmdirer   = (*rootNode)(nil)
	_ gofuse.NodeStatfser  = (*rootNode)(nil)
)

// Lookup resolves "/<name>". A name with at least one assigned file
// is a synthetic category directory. A name that has already been
// classified under some other category has moved there and is no
// longer reachable at root. Anything else is resolved straight
// through to the backing store.
func (r *rootNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if r.options.State.HasCategory(name) {
		return newCategoryInode(ctx, &r.Inode, r.options, name, out), 0
	}
	if !ignore.Is(name) {
		if _, classified := r.options.State.CategoryOf(name); classified {
			return nil, syscall.ENOENT
		}
	}
	return lookupBacking(ctx, &r.Inode, r.options, name, true, out)
}

// Readdir emits ".", "..", every category name, then every backing
// entry that is neither Hidden nor Classified (spec §4.6 readdir(/)).
func (r *rootNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry

	for _, category := range r.options.State.ListCategories() {
		entries = append(entries, fuse.DirEntry{Name: category, Mode: syscall.S_IFDIR})
	}

	backingEntries, err := r.options.Store.ReadDir()
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}
	for _, entry := range backingEntries {
		if !ignore.Is(entry.Name) {
			if r.options.State.IsHidden(entry.Name) {
				continue
			}
			if _, classified := r.options.State.CategoryOf(entry.Name); classified {
				continue
			}
		}
		entries = append(entries, fuse.DirEntry{
			Name: entry.Name,
			Ino:  entry.Ino,
			Mode: entry.Type << 12,
		})
	}

	return gofuse.NewListDirStream(entries), 0
}

func (r *rootNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	return statDir(r.options, out)
}

func (r *rootNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	return 0
}

func (r *rootNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	return createBacking(ctx, &r.Inode, r.options, name, flags, mode, true, out)
}

// Unlink removes the backing file and forgets any Visibility State
// recorded for it (spec §4.6 "unlink").
func (r *rootNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return unlinkBacking(r.options, name)
}

// Rename rejects kernel rename flags, then delegates to the backing
// store and updates Visibility State according to the destination's
// node type (spec §4.6 "rename"; SPEC_FULL decision: migrate rather
// than leave stale). name is always a flat root-level backing name
// here. A root or category destination collapses to the same flat
// backing name (spec §4.1: the virtual hierarchy is cosmetic), so the
// filename key is migrated in place. A real nested destination
// (spec §4.6's degenerate Mkdir case) moves the file out of the flat,
// classification-tracked namespace entirely, so its tracked state is
// forgotten rather than migrated to a path Visibility State never
// keys by.
func (r *rootNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	switch dest := newParent.(type) {
	case *realDirNode:
		if errno := renameBacking(r.options, name, dest.child(newName), flags); errno != 0 {
			return errno
		}
		// Forget also tombstones name, so a classifier verdict that
		// arrives later for the old backing path cannot resurrect a
		// filename that no longer lives at root under a category
		// (the same protection spec §8 scenario 6 requires for unlink).
		r.options.State.Forget(name)
		return 0
	case *rootNode, *categoryNode:
		if errno := renameBacking(r.options, name, newName, flags); errno != 0 {
			return errno
		}
		r.options.State.Rename(name, newName)
		return 0
	default:
		return syscall.EINVAL
	}
}

func (r *rootNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return mkdirBacking(ctx, &r.Inode, r.options, name, mode, out)
}

func (r *rootNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return gofuse.ToErrno(r.options.Store.Rmdir(name))
}

func (r *rootNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	return statfsBacking(r.options, out)
}
