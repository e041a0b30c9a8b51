//go:build unix

package fs

import (
	"io/fs"
	"syscall"
)

// allocatedSize returns the bytes allocated on disk for the file,
// which for sparse or compressed files differs from the logical size.
func allocatedSize(info fs.FileInfo) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.Size()
	}
	// st_blocks is always in 512-byte units, whatever the filesystem block size.
	return int64(stat.Blocks) * 512
}
