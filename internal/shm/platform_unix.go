//go:build unix

package shm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/srediag/quicklaunch/internal/elevation"
)

const devShm = "/dev/shm"

type regionHandle struct {
	fd   int
	path string
}

// regionPath turns an object name such as `Local\Foo` into a file under
// /dev/shm, or the temp dir on systems without it.
func regionPath(name string) string {
	dir := devShm
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		dir = os.TempDir()
	}
	clean := strings.NewReplacer(`\`, "_", "/", "_", ":", "_").Replace(name)
	return filepath.Join(dir, clean)
}

// MapRegion maps or creates a shared memory region (unix implementation).
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	path := regionPath(opts.Name)
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if opts.Create {
		flags |= unix.O_CREAT
	}
	fd, err := unix.Open(path, flags, 0600)
	if opts.Create && errors.Is(err, unix.EACCES) {
		// Sticky /dev/shm refuses O_CREAT on a file another user owns, which
		// is what an earlier run leaves behind after handing the file over.
		fd, err = unix.Open(path, flags&^unix.O_CREAT, 0600)
	}
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, fmt.Errorf("open %s: %w", path, ErrRegionNotFound)
		}
		return nil, fmt.Errorf("open: %w", err)
	}
	if opts.Create {
		if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("ftruncate: %w", err)
		}
		if err := shareWithInvoker(fd); err != nil {
			_ = unix.Close(fd)
			return nil, err
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("fstat: %w", err)
		}
		if st.Size < int64(opts.Size) {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("%s has %d bytes: %w", path, st.Size, ErrRegionTooSmall)
		}
	}
	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &MappedRegion{
		Addr:    addr,
		Name:    opts.Name,
		Created: opts.Create,
		sys:     regionHandle{fd: fd, path: path},
	}, nil
}

// shareWithInvoker gives a region created by root under sudo to the
// invoking user. The relay and the helper run as that user and must open it.
func shareWithInvoker(fd int) error {
	cred, ok, err := elevation.InvokingUser()
	if err != nil || !ok {
		return err
	}
	if err := unix.Fchown(fd, int(cred.Uid), int(cred.Gid)); err != nil {
		return fmt.Errorf("fchown: %w", err)
	}
	return nil
}

// UnmapRegion unmaps and closes the shared memory region. The creator also
// unlinks the backing file, so the name disappears like a Windows mapping
// once its last handle is gone.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	var errs []error
	if err := unix.Munmap(region.Addr); err != nil {
		errs = append(errs, fmt.Errorf("munmap: %w", err))
	}
	region.Addr = nil
	if err := unix.Close(region.sys.fd); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	if region.Created {
		if err := unix.Unlink(region.sys.path); err != nil && !errors.Is(err, unix.ENOENT) {
			errs = append(errs, fmt.Errorf("unlink: %w", err))
		}
	}
	return errors.Join(errs...)
}
