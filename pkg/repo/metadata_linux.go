//go:build linux

package repo

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// statMetadata snapshots p without following a final symlink. The creation
// time is the statx birth time; filesystems that do not record one fall back
// to the status-change time.
func statMetadata(p string) (Metadata, error) {
	var stx unix.Statx_t
	mask := unix.STATX_BTIME | unix.STATX_CTIME | unix.STATX_MTIME | unix.STATX_SIZE
	if err := unix.Statx(unix.AT_FDCWD, p, unix.AT_SYMLINK_NOFOLLOW, mask, &stx); err != nil {
		return Metadata{}, &Error{
			Kind: ErrMetadataUnavailable,
			Op:   "stat",
			Path: p,
			Err:  &fs.PathError{Op: "statx", Path: p, Err: err},
		}
	}

	created := stx.Ctime
	if stx.Mask&unix.STATX_BTIME != 0 {
		created = stx.Btime
	}
	return Metadata{
		CTime: statxTime(created),
		MTime: statxTime(stx.Mtime),
		Size:  int64(stx.Size),
	}, nil
}

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec)).UTC()
}
