package collector

import "strings"

// DefaultWalker is the straightforward attrtypes.PathWalker
// implementation: it yields start and each ancestor directory up to and
// including root, by splitting on "/". Both start and root are
// expected relative to the repository work-tree root; root == "" walks
// all the way to the top.
type DefaultWalker struct{}

func (DefaultWalker) WalkUp(start, root string, fn func(dir string) bool) {
	dir := strings.Trim(start, "/")
	rootTrim := strings.Trim(root, "/")

	for {
		if !fn(dir) {
			return
		}
		if dir == rootTrim || dir == "" {
			return
		}
		idx := strings.LastIndexByte(dir, '/')
		if idx < 0 {
			if rootTrim == "" {
				if !fn("") {
					return
				}
			}
			return
		}
		dir = dir[:idx]
	}
}
