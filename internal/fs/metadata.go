package fs

import (
	"errors"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/djherbis/times.v1"

	"rw-go/internal/rw"
)

const (
	contentTypeDirectory = "inode/directory"
	contentTypeSymlink   = "inode/symlink"
	contentTypeDevice    = "inode/blockdevice"
	contentTypeCharDev   = "inode/chardevice"
	contentTypeFifo      = "inode/fifo"
	contentTypeSocket    = "inode/socket"
	contentTypeBinary    = "application/octet-stream"
)

// OSMetadataResolver reads metadata from the real filesystem.
// It never fails: anything it cannot determine falls back to rw.MissingMetadata.
type OSMetadataResolver struct {
	logger rw.Logger
}

// NewOSMetadataResolver creates a resolver. Stat failures other than a
// missing path are logged at debug level.
func NewOSMetadataResolver(logger rw.Logger) *OSMetadataResolver {
	return &OSMetadataResolver{logger: logger.With("component", "metadata")}
}

// Resolve returns the metadata of path as seen at now. Symlinks are not followed.
func (r *OSMetadataResolver) Resolve(path string, now time.Time) rw.Metadata {
	info, err := os.Lstat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("metadata unavailable", "path", path, "error", err)
		}
		return rw.MissingMetadata(now)
	}

	md := rw.Metadata{
		Exists:      true,
		IsDir:       info.IsDir(),
		ContentType: contentType(path, info),
		ModifiedAt:  info.ModTime().Unix(),
		CreatedAt:   birthTime(path),
	}
	if !md.IsDir {
		md.Size = allocatedSize(info)
	}
	return md
}

// contentType classifies special files by mode and sniffs regular files.
func contentType(path string, info fs.FileInfo) string {
	mode := info.Mode()
	switch {
	case mode.IsDir():
		return contentTypeDirectory
	case mode&os.ModeSymlink != 0:
		return contentTypeSymlink
	case mode&os.ModeCharDevice != 0:
		return contentTypeCharDev
	case mode&os.ModeDevice != 0:
		return contentTypeDevice
	case mode&os.ModeNamedPipe != 0:
		return contentTypeFifo
	case mode&os.ModeSocket != 0:
		return contentTypeSocket
	}

	byExt := mime.TypeByExtension(filepath.Ext(path))

	mt, err := mimetype.DetectFile(path)
	if err != nil || mt.Is(contentTypeBinary) {
		// Unreadable or unrecognised content: trust the extension if it says anything.
		if byExt != "" {
			return byExt
		}
		if err != nil {
			return ""
		}
	}
	return mt.String()
}

// birthTime returns the creation time in unix seconds, or -1 when the
// platform or filesystem does not record it.
func birthTime(path string) int64 {
	ts, err := times.Lstat(path)
	if err != nil || !ts.HasBirthTime() {
		return -1
	}
	return ts.BirthTime().Unix()
}

var _ rw.MetadataResolver = (*OSMetadataResolver)(nil)
