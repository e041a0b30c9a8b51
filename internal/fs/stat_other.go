//go:build !unix

package fs

import "io/fs"

// allocatedSize falls back to the logical size where block counts are unavailable.
func allocatedSize(info fs.FileInfo) int64 {
	return info.Size()
}
