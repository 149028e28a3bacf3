//go:build linux || darwin

package source

import (
	"io/fs"
	"syscall"
)

// inodeOf extracts the inode number from a *syscall.Stat_t-backed
// os.FileInfo when available, completing the (size, mtime, inode, mode)
// signature tuple from spec.md §3.
func inodeOf(info fs.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Ino), true
}
