//go:build !linux

package repo

import "os"

// statMetadata snapshots p without following a final symlink. There is no
// portable birth time, so the modification time stands in for it.
func statMetadata(p string) (Metadata, error) {
	info, err := os.Lstat(p)
	if err != nil {
		return Metadata{}, &Error{Kind: ErrMetadataUnavailable, Op: "stat", Path: p, Err: err}
	}
	mtime := info.ModTime().UTC()
	return Metadata{CTime: mtime, MTime: mtime, Size: info.Size()}, nil
}
