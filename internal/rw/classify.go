package rw

// Flags is a raw notification that may report several changes at once,
// e.g. created and changed for a file written right after creation.
type Flags struct {
	FileCreated bool
	FileRemoved bool
	FileRenamed bool
	FileChanged bool
	DirCreated  bool
	DirRemoved  bool
	DirRenamed  bool
	DirChanged  bool
}

// Any reports whether at least one flag is set.
func (f Flags) Any() bool {
	return f != Flags{}
}

// Classify maps flags to exactly one EventKind.
//
// Flags are checked in a fixed order and the last one set wins:
// fileCreated, fileRemoved, fileRenamed, fileChanged,
// dirCreated, dirRemoved, dirRenamed, dirChanged.
// So {FileCreated, FileChanged} classifies as KindFileChanged.
func Classify(f Flags) EventKind {
	kind := KindUnknown
	if f.FileCreated {
		kind = KindFileCreated
	}
	if f.FileRemoved {
		kind = KindFileRemoved
	}
	if f.FileRenamed {
		kind = KindFileRenamed
	}
	if f.FileChanged {
		kind = KindFileChanged
	}
	if f.DirCreated {
		kind = KindDirCreated
	}
	if f.DirRemoved {
		kind = KindDirRemoved
	}
	if f.DirRenamed {
		kind = KindDirRenamed
	}
	if f.DirChanged {
		kind = KindDirChanged
	}
	return kind
}
