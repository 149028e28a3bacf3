//go:build !linux && !darwin

package source

import "io/fs"

// inodeOf has no portable equivalent outside unix-like platforms; callers
// fall back to size+mtime+mode, which remains sufficient in practice.
func inodeOf(info fs.FileInfo) (uint64, bool) {
	return 0, false
}
